// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"runtime/debug"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/version"
)

const pingTimeout = 2 * time.Second

// PingerInterface is a dependency the service cannot serve requests without
type PingerInterface interface {
	Ping(context.Context) error
}

type BuildInfo struct {
	Version    string `json:"version"`
	CommitHash string `json:"commitHash,omitempty"`
	GoVersion  string `json:"goVersion,omitempty"`
}

type Status struct {
	Status       string            `json:"status"`
	BuildInfo    BuildInfo         `json:"buildInfo"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type API struct {
	pingers map[string]PingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Get("/api/v0/status", a.alive)
	r.Get("/api/v0/ready", a.ready)
	r.Get("/api/v0/version", a.version)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	types.WriteJSON(w, http.StatusOK, Status{Status: "ok", BuildInfo: ReadBuildInfo()})
}

// ready pings every dependency, one failure is enough to report the replica unavailable
func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.ready")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	names := make([]string, 0, len(a.pingers))
	for name := range a.pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	s := Status{Status: "ok", BuildInfo: ReadBuildInfo(), Dependencies: make(map[string]string, len(names))}
	code := http.StatusOK

	for _, name := range names {
		if err := a.pingers[name].Ping(ctx); err != nil {
			a.logger.Errorf("%s is not reachable: %v", name, err)
			s.Dependencies[name] = "unavailable"
			s.Status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}

		s.Dependencies[name] = "ok"
	}

	types.WriteJSON(w, code, s)
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	types.WriteJSON(w, http.StatusOK, ReadBuildInfo())
}

// ReadBuildInfo reports the linked version with the commit and toolchain recorded by go build
func ReadBuildInfo() BuildInfo {
	b := BuildInfo{Version: version.Version}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}

	b.GoVersion = info.GoVersion

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			b.CommitHash = s.Value
		}
	}

	return b
}

func NewAPI(pingers map[string]PingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.pingers = pingers

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
