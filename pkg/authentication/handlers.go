// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/validation"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=255"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type API struct {
	service   ServiceInterface
	sessions  SessionValidatorInterface
	validator *validation.Validator

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RegisterPublicEndpoints mounts the routes reachable without a session
func (a *API) RegisterPublicEndpoints(r chi.Router) {
	r.Post("/auth/sign-up", a.handleSignUp)
	r.Post("/auth/sign-in", a.handleSignIn)
}

// RegisterEndpoints mounts the routes that require an authenticated user
func (a *API) RegisterEndpoints(r chi.Router) {
	r.Post("/auth/sign-out", a.handleSignOut)
	r.Get("/me", a.handleMe)
	r.Get("/me/menu", a.handleMenu)
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req := new(SignUpRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	user, err := a.service.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusCreated, user, nil)
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	req := new(SignInRequest)
	if err := a.validator.DecodeJSON(r, req); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	value, session, err := a.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	http.SetCookie(w, a.sessions.Cookie(value, session.ExpiresAt))
	types.WriteData(w, http.StatusOK, map[string]any{"expiresAt": session.ExpiresAt}, nil)
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if value, ok := a.sessions.ReadCookie(r); ok {
		if err := a.service.SignOut(r.Context(), value); err != nil {
			types.WriteError(w, r, err, a.logger)
			return
		}
	}

	http.SetCookie(w, a.sessions.Cookie("", time.Time{}))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUser(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	profile, err := a.service.Me(r.Context(), user)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, profile, nil)
}

func (a *API) handleMenu(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUser(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	menu, err := a.service.Menu(r.Context(), user)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	types.WriteData(w, http.StatusOK, menu, nil)
}

func NewAPI(service ServiceInterface, sessions SessionValidatorInterface, validator *validation.Validator, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.sessions = sessions
	a.validator = validator

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
