// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package monitoring

type MonitorInterface interface {
	GetService() string
	SetResponseTimeMetric(map[string]string, float64) error
	SetDependencyAvailability(map[string]string, float64) error
	// SetConnectedStreams reports the number of open event streams on this replica
	SetConnectedStreams(map[string]string, float64) error
	IncDeniedRequests(map[string]string) error
}
