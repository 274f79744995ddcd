// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime     *prometheus.HistogramVec
	dependencies     *prometheus.GaugeVec
	connectedStreams *prometheus.GaugeVec
	deniedRequests   *prometheus.CounterVec

	registerer prometheus.Registerer

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	if m.responseTime == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.responseTime.With(m.labels(tags, "route", "status")).Observe(value)

	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	if m.dependencies == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.dependencies.With(m.labels(tags, "component")).Set(value)

	return nil
}

func (m *Monitor) SetConnectedStreams(tags map[string]string, value float64) error {
	if m.connectedStreams == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.connectedStreams.With(m.labels(tags)).Set(value)

	return nil
}

func (m *Monitor) IncDeniedRequests(tags map[string]string) error {
	if m.deniedRequests == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.deniedRequests.With(m.labels(tags, "entity", "action")).Inc()

	return nil
}

// labels fills the expected label set so that a missing tag does not panic the vector
func (m *Monitor) labels(tags map[string]string, keys ...string) prometheus.Labels {
	l := prometheus.Labels{"service": m.service}

	for _, k := range keys {
		l[k] = tags[k]
	}

	return l
}

func (m *Monitor) registerHistograms() {
	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "http_response_time_seconds",
		},
		[]string{"route", "status", "service"},
	)

	if err := m.registerer.Register(m.responseTime); err != nil {
		m.logger.Errorf("unable to register response time metric: %v", err)
	}
}

func (m *Monitor) registerGauges() {
	m.dependencies = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_available",
			Help: "dependency_available",
		},
		[]string{"component", "service"},
	)

	m.connectedStreams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sse_connected_streams",
			Help: "number of event streams held by this replica",
		},
		[]string{"service"},
	)

	for _, c := range []prometheus.Collector{m.dependencies, m.connectedStreams} {
		if err := m.registerer.Register(c); err != nil {
			m.logger.Errorf("unable to register gauge: %v", err)
		}
	}
}

func (m *Monitor) registerCounters() {
	m.deniedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_denied_total",
			Help: "requests rejected by the access guard",
		},
		[]string{"entity", "action", "service"},
	)

	if err := m.registerer.Register(m.deniedRequests); err != nil {
		m.logger.Errorf("unable to register denied requests metric: %v", err)
	}
}

// NewMonitor creates a new prometheus monitor registered on the given registerer,
// a nil registerer falls back to the default global one
func NewMonitor(service string, registerer prometheus.Registerer, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger
	m.registerer = registerer

	if m.registerer == nil {
		m.registerer = prometheus.DefaultRegisterer
	}

	m.registerHistograms()
	m.registerGauges()
	m.registerCounters()

	return m
}
