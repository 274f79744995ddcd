// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canonical/workspace-service/internal/logging"
)

type API struct {
	handler http.Handler

	logger logging.LoggerInterface
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Handle("/api/v0/metrics", a.handler)
}

// NewAPI exposes the metrics collected by gatherer, a nil gatherer serves the default registry
func NewAPI(gatherer prometheus.Gatherer, logger logging.LoggerInterface) *API {
	a := new(API)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	a.handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	a.logger = logger

	return a
}
