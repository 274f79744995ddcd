// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

// Claims is the identity extracted from a bearer token
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
}

type JWTVerifier struct {
	verifier      *oidc.IDTokenVerifier
	requiredScope string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// VerifyToken only accepts tokens carrying a verified email, the email is what maps the
// caller onto a local user
func (v *JWTVerifier) VerifyToken(ctx context.Context, rawToken string) (*Claims, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.JWTVerifier.VerifyToken")
	defer span.End()

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Subject       string   `json:"sub"`
		Email         string   `json:"email"`
		EmailVerified bool     `json:"email_verified"`
		Scope         string   `json:"scope"`
		Scopes        []string `json:"scp"`
	}

	if err := token.Claims(&claims); err != nil {
		v.logger.Debugf("Failed to extract claims: %v", err)
		return nil, err
	}

	if v.requiredScope != "" && !slices.Contains(strings.Fields(claims.Scope), v.requiredScope) && !slices.Contains(claims.Scopes, v.requiredScope) {
		v.logger.Security().AuthzFailure(claims.Subject, "api", "missing_scope")
		return nil, fmt.Errorf("unauthorized: missing required scope")
	}

	if claims.Email == "" || !claims.EmailVerified {
		v.logger.Security().AuthnTokenInvalid("unverified_email")
		return nil, fmt.Errorf("unauthorized: token carries no verified email")
	}

	return &Claims{Subject: claims.Subject, Email: claims.Email, EmailVerified: claims.EmailVerified}, nil
}

func NewJWTVerifier(
	verifier *oidc.IDTokenVerifier,
	requiredScope string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *JWTVerifier {
	return &JWTVerifier{
		verifier:      verifier,
		requiredScope: requiredScope,
		tracer:        tracer,
		monitor:       monitor,
		logger:        logger,
	}
}
