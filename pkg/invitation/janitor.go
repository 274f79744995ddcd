// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

// Janitor purges expired tokens and sessions on a cron schedule, tokens nobody tried to
// use are only removed here
type Janitor struct {
	purger PurgerInterface
	cron   *cron.Cron

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop prevents new runs, the returned context is done once a running purge completes
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

func (j *Janitor) Run(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "invitation.Janitor.Run")
	defer span.End()

	tokens, sessions, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.logger.Errorf("failed to purge expired rows: %v", err)
		return
	}

	j.logger.Infow("purged expired rows", "tokens", tokens, "sessions", sessions)
}

// NewJanitor validates the standard 5 field schedule, descriptors like @hourly are accepted
func NewJanitor(schedule string, purger PurgerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*Janitor, error) {
	j := new(Janitor)

	j.purger = purger
	j.cron = cron.New()

	j.tracer = tracer
	j.monitor = monitor
	j.logger = logger

	if _, err := j.cron.AddFunc(schedule, func() { j.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}

	return j, nil
}
