// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/metrics"
	"github.com/canonical/workspace-service/pkg/status"
)

type Config struct {
	AllowedOrigins []string
	AuthRateLimit  float64
	AuthRateBurst  int
}

// APIs groups the handler sets served under /api/v0
type APIs struct {
	// Authentication serves sign-up and sign-in publicly, the rest behind a session
	Authentication PublicAPIInterface
	// Tokens serves the invitation, verification and password reset links, callers are
	// identified when they carry a session
	Tokens APIInterface
	// Webhooks authenticate the identity provider with a shared key, nil disables them
	Webhooks APIInterface
	// Protected require an authenticated caller
	Protected []APIInterface
}

func NewRouter(
	cfg Config,
	apis APIs,
	authn AuthenticatorInterface,
	dbClient db.DBClientInterface,
	pingers map[string]status.PingerInterface,
	gatherer prometheus.Gatherer,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.AllowedOrigins),
	)

	router.Use(middlewares...)

	metrics.NewAPI(gatherer, logger).RegisterEndpoints(router)
	status.NewAPI(pingers, tracer, monitor, logger).RegisterEndpoints(router)

	limiter := NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, monitor, logger)
	txMiddleware := db.TransactionMiddleware(dbClient, logger)

	router.Route("/api/v0", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware(), txMiddleware)

			apis.Authentication.RegisterPublicEndpoints(r)

			r.Group(func(r chi.Router) {
				r.Use(authn.OptionalAuthenticate())
				apis.Tokens.RegisterEndpoints(r)
			})
		})

		if apis.Webhooks != nil {
			r.Group(func(r chi.Router) {
				r.Use(txMiddleware)
				apis.Webhooks.RegisterEndpoints(r)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate(), txMiddleware)

			apis.Authentication.RegisterEndpoints(r)

			for _, api := range apis.Protected {
				api.RegisterEndpoints(r)
			}
		})
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
