// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package entity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/guard"
	"github.com/canonical/workspace-service/pkg/permissions"
)

// CreateRequest carries the ancestor identifiers read by the guard next to the entity fields
type CreateRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Slug     string  `json:"slug" validate:"omitempty,max=100,slug"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`

	Organization   string `json:"organization,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
	Project        string `json:"project,omitempty"`
	ProjectID      string `json:"projectId,omitempty"`
}

type UpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=255"`
	Slug *string `json:"slug" validate:"omitempty,max=100,slug"`
}

type SlugAvailability struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
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

// RegisterEndpoints mounts the CRUD routes of every registered type, the router must
// authenticate the caller first. Organizations are created by any authenticated user,
// other types need create permission on the ancestors found in the request.
func (a *API) RegisterEndpoints(r chi.Router) {
	for _, t := range a.registry.Types() {
		def, _ := a.registry.Get(t)
		base := fmt.Sprintf("/%ss", t)

		if t == entities.Organization {
			r.With(a.guard.LoadMemberships()).Post(base, a.handleCreate(t))
		} else {
			r.With(a.guard.RequireAccess(t, permissions.ActionCreate, "")).Post(base, a.handleCreate(t))
		}

		r.With(a.guard.LoadMemberships()).Delete(base, a.handleDeleteMany(t))
		r.With(a.guard.RequireAccess(t, permissions.ActionRead, "id")).Get(base+"/{id}", a.handleGet)
		r.With(a.guard.RequireAccess(t, permissions.ActionUpdate, "id")).Patch(base+"/{id}", a.handleUpdate)
		r.With(a.guard.RequireAccess(t, permissions.ActionDelete, "id")).Delete(base+"/{id}", a.handleDelete(t))

		if def.HasSlug {
			r.Get(base+"/check-slug/{slug}", a.handleCheckSlug(t))
		}
	}
}

func (a *API) handleCreate(t entities.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := guard.GetScope(r.Context())
		if !ok {
			types.WriteError(w, r, types.Unauthorized(), a.logger)
			return
		}

		req := new(CreateRequest)
		if err := a.validator.DecodeJSON(r, req); err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		in := CreateInput{Name: req.Name, Slug: req.Slug, ParentID: req.ParentID}

		e, err := a.service.Create(r.Context(), scope.User, t, scope.Subject.Ancestors, in)
		if err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		types.WriteData(w, http.StatusCreated, e, nil)
	}
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	scope, ok := guard.GetScope(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, scope.Entity, nil)
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

	e, err := a.service.Update(r.Context(), scope.User, scope.Subject, scope.Entity, storage.EntityPatch{Name: req.Name, Slug: req.Slug})
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, e, nil)
}

func (a *API) handleDelete(t entities.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := guard.GetScope(r.Context())
		if !ok {
			types.WriteError(w, r, types.Unauthorized(), a.logger)
			return
		}

		caller := Caller{User: scope.User, Memberships: scope.Memberships}

		result, err := a.service.Delete(r.Context(), caller, t, []string{scope.Entity.ID})
		if err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		if len(result.Errors) > 0 {
			types.WriteError(w, r, types.NewError(result.Errors[0].Type, "").WithEntity(string(t)), a.logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *API) handleDeleteMany(t entities.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		result, err := a.service.Delete(r.Context(), Caller{User: scope.User, Memberships: scope.Memberships}, t, ids)
		if err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		types.WriteData(w, http.StatusOK, result, nil)
	}
}

func (a *API) handleCheckSlug(t entities.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		available, err := a.service.SlugAvailable(r.Context(), t, slug)
		if err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}

		types.WriteData(w, http.StatusOK, SlugAvailability{Slug: slug, Available: available}, nil)
	}
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
