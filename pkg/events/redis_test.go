// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

func newTestBus(t *testing.T, addr string, local RegistryInterface) *RedisBus {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	logger := logging.NewNoopLogger()
	return NewRedisBus(client, "test:events", local, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func TestRedisBus_FanOut(t *testing.T) {
	mr := miniredis.RunT(t)

	// two replicas, each holding one user stream
	localA, localB := newTestNotifier(4), newTestNotifier(4)
	busA, busB := newTestBus(t, mr.Addr(), localA), newTestBus(t, mr.Addr(), localB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = busA.Listen(ctx) }()
	go func() { _ = busB.Listen(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("test:events")["test:events"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	streamA := localA.Register("a")
	streamB := localB.Register("b")

	busA.SendToUsers(ctx, []string{"a", "b"}, NewMembership(entities.Organization), map[string]string{"id": "o1"})

	for _, s := range []*Stream{streamA, streamB} {
		select {
		case e := <-s.Events():
			assert.Equal(t, "new_organization_membership", e.Name)
			assert.JSONEq(t, `{"id":"o1"}`, string(e.Data))
		case <-time.After(2 * time.Second):
			t.Fatalf("no event delivered to %s", s.UserID)
		}
	}
}

func TestRedisBus_PublishFailureDeliversLocally(t *testing.T) {
	mr := miniredis.RunT(t)
	local := newTestNotifier(4)
	bus := newTestBus(t, mr.Addr(), local)

	s := local.Register("a")
	mr.Close()

	bus.Send(context.Background(), "a", Update(entities.Project), nil)

	select {
	case e := <-s.Events():
		assert.Equal(t, "update_project", e.Name)
	default:
		t.Fatal("event not delivered locally")
	}
}

func TestRedisBus_ListenStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	bus := newTestBus(t, mr.Addr(), newTestNotifier(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- bus.Listen(ctx) }()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("test:events")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestRedisBus_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	bus := newTestBus(t, mr.Addr(), newTestNotifier(1))

	assert.NoError(t, bus.Ping(context.Background()))

	mr.Close()

	assert.Error(t, bus.Ping(context.Background()))
}
