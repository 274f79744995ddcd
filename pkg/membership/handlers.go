// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/guard"
	"github.com/canonical/workspace-service/pkg/permissions"
)

type InviteRequest struct {
	Emails []string    `json:"emails" validate:"required,min=1,max=50,dive,email"`
	Role   domain.Role `json:"role" validate:"required,oneof=admin member"`
}

type AddRequest struct {
	UserIDs []string    `json:"userIds" validate:"required,min=1,max=100,dive,required"`
	Role    domain.Role `json:"role" validate:"required,oneof=admin member"`
}

type UpdateRequest struct {
	Role     *domain.Role `json:"role" validate:"omitempty,oneof=admin member"`
	Archived *bool        `json:"archived"`
	Muted    *bool        `json:"muted"`
	Order    *float64     `json:"order"`
}

type API struct {
	service   ServiceInterface
	guard     GuardInterface
	registry  *entities.Registry
	validator *validation.Validator

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RegisterEndpoints mounts the member routes of every context type, the router must
// authenticate the caller first
func (a *API) RegisterEndpoints(r chi.Router) {
	for _, t := range a.registry.ContextTypes() {
		base := fmt.Sprintf("/%ss/{id}/members", t)

		r.With(a.guard.RequireAccess(t, permissions.ActionRead, "id")).Get(base, a.handleList(t))
		r.With(a.guard.RequireAccess(t, permissions.ActionRead, "id")).Get(base+"/counts", a.handleCounts(t))
		r.With(a.guard.RequireAccess(t, permissions.ActionRead, "id")).Patch(base+"/{userId}", a.handleUpdate)

		if t == entities.Organization {
			r.With(a.guard.RequireAccess(t, permissions.ActionManage, "id")).Post(base+"/invite", a.handleInvite)
		} else {
			r.With(a.guard.RequireAccess(t, permissions.ActionManage, "id")).Post(base, a.handleAdd)
		}
	}

	r.With(a.guard.LoadMemberships()).Delete("/memberships", a.handleDelete)
}

func (a *API) handleList(t entities.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := guard.GetScope(r.Context())
		if !ok {
			types.WriteError(w, r, types.Unauthorized(), a.logger)
			return
		}

		page, err := types.ParsePagination(r)
		if err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		members, err := a.service.List(r.Context(), entities.ContextRef{Type: t, ID: scope.Entity.ID}, page.Page, page.Size)
		if err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		types.WriteData(w, http.StatusOK, members, page)
	}
}

func (a *API) handleCounts(t entities.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := guard.GetScope(r.Context())
		if !ok {
			types.WriteError(w, r, types.Unauthorized(), a.logger)
			return
		}

		counts, err := a.service.Counts(r.Context(), entities.ContextRef{Type: t, ID: scope.Entity.ID})
		if err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		types.WriteData(w, http.StatusOK, counts, nil)
	}
}

func (a *API) handleInvite(w http.ResponseWriter, r *http.Request) {
	scope, ok := guard.GetScope(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	req := new(InviteRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	result, err := a.service.Invite(r.Context(), scope.User, scope.Entity, req.Emails, req.Role)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, result, nil)
}

func (a *API) handleAdd(w http.ResponseWriter, r *http.Request) {
	scope, ok := guard.GetScope(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	req := new(AddRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	result, err := a.service.Add(r.Context(), scope.User, scope.Entity, req.UserIDs, req.Role)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, result, nil)
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	scope, ok := guard.GetScope(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	req := new(UpdateRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	patch := domain.MembershipPatch{Role: req.Role, Archived: req.Archived, Muted: req.Muted, Order: req.Order}
	caller := Caller{User: scope.User, Memberships: scope.Memberships}

	m, err := a.service.Update(r.Context(), caller, scope.Subject, chi.URLParam(r, "userId"), patch)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, m, nil)
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	scope, ok := guard.GetScope(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		types.WriteError(w, r, types.InvalidRequest("ids is required"), a.logger)
		return
	}

	result, err := a.service.Delete(r.Context(), Caller{User: scope.User, Memberships: scope.Memberships}, ids)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, result, nil)
}

func splitIDs(raw string) []string {
	ids := make([]string, 0)

	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

func NewAPI(
	service ServiceInterface,
	g GuardInterface,
	registry *entities.Registry,
	validator *validation.Validator,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *API {
	a := new(API)

	a.service = service
	a.guard = g
	a.registry = registry
	a.validator = validator

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
