// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/logging"
	monitor "github.com/canonical/workspace-service/internal/monitoring/prometheus"
)

func TestAPI_Metrics(t *testing.T) {
	logger := logging.NewNoopLogger()
	registry := prometheus.NewRegistry()

	m := monitor.NewMonitor("workspace-service", registry, logger)
	require.NoError(t, m.SetResponseTimeMetric(map[string]string{"route": "GET /api/v0/me", "status": "200"}, 0.1))

	r := chi.NewRouter()
	NewAPI(registry, logger).RegisterEndpoints(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v0/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "workspace-service")
}
