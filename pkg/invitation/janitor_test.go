// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

func newTestJanitor(t *testing.T, schedule string, purger PurgerInterface) (*Janitor, error) {
	t.Helper()

	logger := logging.NewNoopLogger()

	return NewJanitor(schedule, purger, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func TestJanitor_Schedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	for _, schedule := range []string{"@hourly", "*/5 * * * *", "@every 10m"} {
		_, err := newTestJanitor(t, schedule, NewMockPurgerInterface(ctrl))
		assert.NoError(t, err, schedule)
	}

	_, err := newTestJanitor(t, "every hour", NewMockPurgerInterface(ctrl))
	assert.Error(t, err)
}

func TestJanitor_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	purger := NewMockPurgerInterface(ctrl)
	gomock.InOrder(
		purger.EXPECT().PurgeExpired(gomock.Any()).Return(int64(3), int64(1), nil),
		purger.EXPECT().PurgeExpired(gomock.Any()).Return(int64(0), int64(0), errors.New("connection reset")),
	)

	j, err := newTestJanitor(t, "@hourly", purger)
	require.NoError(t, err)

	j.Run(context.Background())
	j.Run(context.Background())
}

func TestJanitor_StartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	j, err := newTestJanitor(t, "@hourly", NewMockPurgerInterface(ctrl))
	require.NoError(t, err)

	j.Start()

	select {
	case <-j.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("idle janitor did not stop")
	}
}
