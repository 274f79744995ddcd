// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// APIInterface is implemented by every handler set mounted under /api/v0
type APIInterface interface {
	RegisterEndpoints(chi.Router)
}

// PublicAPIInterface also exposes routes reachable without a session
type PublicAPIInterface interface {
	APIInterface
	RegisterPublicEndpoints(chi.Router)
}

type AuthenticatorInterface interface {
	Authenticate() func(http.Handler) http.Handler
	OptionalAuthenticate() func(http.Handler) http.Handler
}
