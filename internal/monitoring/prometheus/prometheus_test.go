// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/canonical/workspace-service/internal/logging"
)

func TestMonitorResponseTime(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMonitor("workspace-service", reg, logging.NewNoopLogger())

	if err := m.SetResponseTimeMetric(map[string]string{"route": "GET/api/v0/me", "status": "200"}, 0.2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c := testutil.CollectAndCount(m.responseTime); c != 1 {
		t.Errorf("expected 1 series, got %d", c)
	}
}

func TestMonitorDeniedRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMonitor("workspace-service", reg, logging.NewNoopLogger())

	_ = m.IncDeniedRequests(map[string]string{"entity": "project", "action": "delete"})
	_ = m.IncDeniedRequests(map[string]string{"entity": "project", "action": "delete"})

	v := testutil.ToFloat64(m.deniedRequests.With(prometheus.Labels{"entity": "project", "action": "delete", "service": "workspace-service"}))
	if v != 2 {
		t.Errorf("expected 2 denied requests, got %v", v)
	}
}

func TestMonitorConnectedStreams(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMonitor("workspace-service", reg, logging.NewNoopLogger())

	_ = m.SetConnectedStreams(nil, 3)

	if v := testutil.ToFloat64(m.connectedStreams.With(prometheus.Labels{"service": "workspace-service"})); v != 3 {
		t.Errorf("expected 3 streams, got %v", v)
	}
}
