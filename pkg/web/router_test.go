// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

// passthroughDB runs transactional work directly on the request context
type passthroughDB struct {
	db.DBClientInterface
}

func (passthroughDB) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// headerAuthenticator trusts the X-User header, enough to tell the route groups apart
type headerAuthenticator struct{}

func (headerAuthenticator) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-User")
			if id == "" {
				types.WriteError(w, r, types.Unauthorized(), logging.NewNoopLogger())
				return
			}

			next.ServeHTTP(w, r.WithContext(authentication.WithUser(r.Context(), &domain.User{ID: id})))
		})
	}
}

func (headerAuthenticator) OptionalAuthenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-User"); id != "" {
				r = r.WithContext(authentication.WithUser(r.Context(), &domain.User{ID: id}))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// whoami answers with the id of the authenticated caller, empty for anonymous requests
func whoami(w http.ResponseWriter, r *http.Request) {
	id := ""
	if user, ok := authentication.GetUser(r.Context()); ok {
		id = user.ID
	}

	types.WriteData(w, http.StatusOK, id, nil)
}

type authAPI struct{}

func (authAPI) RegisterPublicEndpoints(r chi.Router) {
	r.Post("/auth/sign-in", whoami)
}

func (authAPI) RegisterEndpoints(r chi.Router) {
	r.Get("/me", whoami)
}

type routeAPI struct {
	method, pattern string
}

func (a routeAPI) RegisterEndpoints(r chi.Router) {
	r.MethodFunc(a.method, a.pattern, whoami)
}

func newTestRouter(cfg Config) http.Handler {
	logger := logging.NewNoopLogger()
	apis := APIs{
		Authentication: authAPI{},
		Tokens:         routeAPI{method: http.MethodPost, pattern: "/invitation/{token}/accept"},
		Webhooks:       routeAPI{method: http.MethodPost, pattern: "/webhooks/registration"},
		Protected:      []APIInterface{routeAPI{method: http.MethodPost, pattern: "/organizations"}},
	}

	return NewRouter(cfg, apis, headerAuthenticator{}, passthroughDB{}, nil, prometheus.NewRegistry(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) string {
	var payload struct {
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))

	return payload.Data
}

func TestRouter_Groups(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		user           string
		expectedStatus int
		expectedUser   string
	}{
		{name: "status is public", method: http.MethodGet, path: "/api/v0/status", expectedStatus: http.StatusOK},
		{name: "metrics are public", method: http.MethodGet, path: "/api/v0/metrics", expectedStatus: http.StatusOK},
		{name: "sign in is public", method: http.MethodPost, path: "/api/v0/auth/sign-in", expectedStatus: http.StatusOK},
		{name: "accept anonymously", method: http.MethodPost, path: "/api/v0/invitation/abc/accept", expectedStatus: http.StatusOK},
		{name: "accept as a user", method: http.MethodPost, path: "/api/v0/invitation/abc/accept", user: "u1", expectedStatus: http.StatusOK, expectedUser: "u1"},
		{name: "webhooks skip the session", method: http.MethodPost, path: "/api/v0/webhooks/registration", expectedStatus: http.StatusOK},
		{name: "profile needs a session", method: http.MethodGet, path: "/api/v0/me", expectedStatus: http.StatusUnauthorized},
		{name: "profile", method: http.MethodGet, path: "/api/v0/me", user: "u1", expectedStatus: http.StatusOK, expectedUser: "u1"},
		{name: "create needs a session", method: http.MethodPost, path: "/api/v0/organizations", expectedStatus: http.StatusUnauthorized},
		{name: "create", method: http.MethodPost, path: "/api/v0/organizations", user: "u2", expectedStatus: http.StatusOK, expectedUser: "u2"},
		{name: "unknown route", method: http.MethodGet, path: "/api/v0/nope", user: "u1", expectedStatus: http.StatusNotFound},
	}

	router := newTestRouter(Config{AllowedOrigins: []string{"*"}, AuthRateLimit: 100, AuthRateBurst: 100})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.user != "" {
				req.Header.Set("X-User", tt.user)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedUser != "" {
				assert.Equal(t, tt.expectedUser, decodeData(t, w))
			}
		})
	}
}

func TestRouter_RateLimitsPublicRoutes(t *testing.T) {
	router := newTestRouter(Config{AllowedOrigins: []string{"*"}, AuthRateLimit: 0.001, AuthRateBurst: 2})

	send := func(path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		return w
	}

	assert.Equal(t, http.StatusOK, send("/api/v0/auth/sign-in", "").Code)
	assert.Equal(t, http.StatusOK, send("/api/v0/invitation/abc/accept", "").Code)

	w := send("/api/v0/auth/sign-in", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var payload struct {
		Type types.ErrorType `json:"type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, types.ErrorTooManyRequests, payload.Type)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// authenticated routes and webhooks have their own budget
	assert.Equal(t, http.StatusOK, send("/api/v0/webhooks/registration", "").Code)
	assert.Equal(t, http.StatusOK, send("/api/v0/organizations", "u1").Code)
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(Config{AllowedOrigins: []string{"https://app.example.com"}, AuthRateLimit: 100, AuthRateBurst: 100})

	req := httptest.NewRequest(http.MethodOptions, "/api/v0/organizations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
