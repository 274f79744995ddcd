// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/validation"
)

// APIKeyHeader carries the secret shared with the identity provider
const APIKeyHeader = "X-Webhook-Key"

type API struct {
	service   ServiceInterface
	apiKey    string
	validator *validation.Validator

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, apiKey string, validator *validation.Validator, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.apiKey = apiKey
	a.validator = validator

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Post("/webhooks/registration", a.registration)
}

func (a *API) registration(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(APIKeyHeader)
	if a.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) != 1 {
		a.logger.Security().AuthzFailure("webhook", "registration", r.Method)
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	// identity documents carry more than the traits read here
	identity := new(Identity)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, validation.MaxBodySize)).Decode(identity); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			types.WriteError(w, r, types.PayloadTooLarge(validation.MaxBodySize), a.logger)
			return
		}

		types.WriteError(w, r, types.InvalidRequest("malformed request body"), a.logger)
		return
	}

	if err := a.validator.Struct(identity); err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	result, err := a.service.HandleRegistration(r.Context(), *identity)
	if err != nil {
		types.WriteError(w, r, err, a.logger)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	types.WriteData(w, status, result, nil)
}
