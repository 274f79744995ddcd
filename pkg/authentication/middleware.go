// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
)

type Middleware struct {
	sessions SessionValidatorInterface
	verifier TokenVerifierInterface
	storage  StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Authenticate accepts a session cookie first, then a bearer token when a verifier is
// configured. Authenticated requests bump the user's lastSeenAt.
func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.Authenticate")
			defer span.End()

			user, err := m.authenticate(ctx, r)
			if err != nil {
				types.WriteError(w, r, err, m.logger)
				return
			}

			if err := m.storage.TouchUser(ctx, user.ID, storage.LastSeenAt); err != nil {
				m.logger.Errorf("failed to update last seen for %s: %v", user.ID, err)
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// OptionalAuthenticate attaches the user when the credentials are valid and lets anonymous
// requests through
func (m *Middleware) OptionalAuthenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.OptionalAuthenticate")
			defer span.End()

			user, err := m.authenticate(ctx, r)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

func (m *Middleware) authenticate(ctx context.Context, r *http.Request) (*domain.User, error) {
	if cookie, ok := m.sessions.ReadCookie(r); ok {
		_, user, err := m.sessions.Validate(ctx, cookie)

		switch {
		case errors.Is(err, ErrInvalidSession):
			m.logger.Security().AuthnTokenInvalid("session")
			return nil, types.Unauthorized()
		case err != nil:
			return nil, err
		}

		return user, nil
	}

	token, found := m.getBearerToken(r.Header)
	if !found || m.verifier == nil {
		return nil, types.Unauthorized()
	}

	claims, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		m.logger.Debugf("JWT verification failed: %v", err)
		m.logger.Security().AuthnTokenInvalid("jwt")
		return nil, types.Unauthorized()
	}

	user, err := m.storage.GetUserByEmail(ctx, claims.Email)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, types.Unauthorized()
	case err != nil:
		return nil, err
	}

	return user, nil
}

func (m *Middleware) getBearerToken(headers http.Header) (string, bool) {
	bearer := headers.Get("Authorization")
	if bearer == "" {
		return "", false
	}

	// Only support "Bearer <token>" format (RFC 6750)
	if !strings.HasPrefix(bearer, "Bearer ") {
		return "", false
	}

	return strings.TrimPrefix(bearer, "Bearer "), true
}

// NewMiddleware builds the authentication middleware, verifier may be nil to disable bearer tokens
func NewMiddleware(sessions SessionValidatorInterface, verifier TokenVerifierInterface, s StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		sessions: sessions,
		verifier: verifier,
		storage:  s,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
