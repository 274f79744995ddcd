// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

// NewJWTAuthenticator initializes the bearer token verifier used by API clients,
// an empty issuer disables bearer authentication and returns nil.
func NewJWTAuthenticator(
	ctx context.Context,
	issuer string,
	jwksURL string,
	requiredScope string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (TokenVerifierInterface, error) {
	if issuer == "" {
		logger.Info("JWT authentication is disabled, only session cookies are accepted")
		return nil, nil
	}

	if jwksURL != "" {
		logger.Infof("Using manual JWKS URL: %s", jwksURL)
	} else {
		logger.Infof("Using OIDC discovery for issuer: %s", issuer)
	}

	verifier, err := newIDTokenVerifier(ctx, issuer, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT verifier: %v", err)
	}

	return NewJWTVerifier(verifier, requiredScope, tracer, monitor, logger), nil
}
