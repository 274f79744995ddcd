// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type AcceptRequest struct {
	Name     string `json:"name" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type NewPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type API struct {
	service   ServiceInterface
	validator *validation.Validator

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RegisterEndpoints mounts the token routes, none of them requires a session
func (a *API) RegisterEndpoints(r chi.Router) {
	r.Get("/tokens/{token}", a.handleCheck)
	r.Post("/tokens/{token}/resend", a.handleResend)
	r.Post("/invitation/{token}/accept", a.handleAccept)
	r.Post("/invitation/{token}/reject", a.handleReject)
	r.Post("/auth/verify-email/{token}", a.handleVerifyEmail)
	r.Post("/auth/request-password", a.handleRequestPassword)
	r.Post("/auth/reset-password/{token}", a.handleResetPassword)
}

func (a *API) handleCheck(w http.ResponseWriter, r *http.Request) {
	tokenType := domain.TokenType(r.URL.Query().Get("type"))
	if !tokenType.Valid() {
		types.WriteError(w, r, types.InvalidRequest("type must be one of [email_verification password_reset invitation]"), a.logger)
		return
	}

	info, err := a.service.Check(r.Context(), chi.URLParam(r, "token"), tokenType)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, info, nil)
}

func (a *API) handleResend(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Resend(r.Context(), chi.URLParam(r, "token")); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAccept(w http.ResponseWriter, r *http.Request) {
	req := new(AcceptRequest)
	if r.ContentLength != 0 {
		if err := a.validator.DecodeJSON(r, req); err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}
	}

	caller, _ := authentication.GetUser(r.Context())

	result, err := a.service.Accept(r.Context(), chi.URLParam(r, "token"), AcceptInput{Name: req.Name, Password: req.Password}, caller)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, result, nil)
}

func (a *API) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Reject(r.Context(), chi.URLParam(r, "token")); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := a.service.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRequestPassword(w http.ResponseWriter, r *http.Request) {
	req := new(PasswordResetRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	if err := a.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	req := new(NewPasswordRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	if err := a.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func NewAPI(service ServiceInterface, validator *validation.Validator, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.validator = validator

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
