// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type API struct {
	registry     RegistryInterface
	pingInterval time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Get("/me/sse", a.handleStream)
}

// handleStream holds the connection until the client leaves or a newer stream of the
// same user takes over
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	user, ok := authentication.GetUser(r.Context())
	if !ok {
		types.WriteError(w, r, types.Unauthorized(), a.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		types.WriteError(w, r, types.NewError(types.ErrorServer, "streaming unsupported"), a.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	stream := a.registry.Register(user.ID)
	defer a.registry.Deregister(stream)

	write := func(e Event) bool {
		if _, err := w.Write(e.Frame()); err != nil {
			a.logger.Debugf("event stream of %s closed: %v", user.ID, err)
			return false
		}
		flusher.Flush()
		return true
	}

	if !write(Event{Name: Connected}) {
		return
	}

	ticker := time.NewTicker(a.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-stream.Done():
			return
		case e := <-stream.Events():
			if !write(e) {
				return
			}
		case <-ticker.C:
			if !write(Event{Name: Ping}) {
				return
			}
		}
	}
}

func NewAPI(registry RegistryInterface, pingInterval time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	a.registry = registry
	a.pingInterval = pingInterval

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
