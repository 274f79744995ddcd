// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"github.com/canonical/workspace-service/internal/logging"
)

// Config picks the span exporter, the gRPC endpoint wins over the HTTP one
type Config struct {
	OtelHTTPEndpoint string
	OtelGRPCEndpoint string

	// SampleRatio is the share of root traces recorded, parents decide for their children
	SampleRatio float64

	Logger  logging.LoggerInterface
	Enabled bool
}

func NewConfig(enabled bool, otelGRPCEndpoint, otelHTTPEndpoint string, sampleRatio float64, logger logging.LoggerInterface) *Config {
	c := new(Config)

	c.Enabled = enabled
	c.OtelGRPCEndpoint = otelGRPCEndpoint
	c.OtelHTTPEndpoint = otelHTTPEndpoint
	c.SampleRatio = sampleRatio
	c.Logger = logger

	return c
}
