// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

func newTestNotifier(bufferSize int) *Notifier {
	logger := logging.NewNoopLogger()
	return NewNotifier(bufferSize, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func TestEventFrame(t *testing.T) {
	e, err := NewEvent(Update(entities.Organization), map[string]string{"id": "o1"})
	require.NoError(t, err)

	assert.Equal(t, "event: update_organization\ndata: {\"id\":\"o1\"}\nretry: 5000\n\n", string(e.Frame()))
	assert.Equal(t, "event: connected\ndata: {}\nretry: 5000\n\n", string(Event{Name: Connected}.Frame()))
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, "new_project_membership", NewMembership(entities.Project))
	assert.Equal(t, "remove_organization_membership", RemoveMembership(entities.Organization))
	assert.Equal(t, "update_workspace", Update(entities.Workspace))
}

func TestNotifier_SendWithoutStreamIsNoop(t *testing.T) {
	n := newTestNotifier(1)

	assert.NotPanics(t, func() {
		n.Send(context.Background(), "nobody", Ping, nil)
		n.SendToUsers(context.Background(), []string{"a", "b"}, Ping, nil)
	})
	assert.False(t, n.Deliver("nobody", Event{Name: Ping}))
}

func TestNotifier_SendToUsers(t *testing.T) {
	n := newTestNotifier(4)

	a := n.Register("a")
	b := n.Register("b")

	n.SendToUsers(context.Background(), []string{"a", "b", "c"}, RemoveMembership(entities.Organization), map[string]string{"id": "o1"})

	for _, s := range []*Stream{a, b} {
		select {
		case e := <-s.Events():
			assert.Equal(t, "remove_organization_membership", e.Name)
			assert.JSONEq(t, `{"id":"o1"}`, string(e.Data))
		default:
			t.Fatalf("no event delivered to %s", s.UserID)
		}
	}
}

func TestNotifier_RegisterReplacesPreviousStream(t *testing.T) {
	n := newTestNotifier(4)

	first := n.Register("a")
	second := n.Register("a")

	select {
	case <-first.Done():
	default:
		t.Fatal("replaced stream was not closed")
	}

	n.Send(context.Background(), "a", Ping, nil)
	assert.Len(t, second.Events(), 1)
	assert.Len(t, first.Events(), 0)

	// the replaced stream leaving must not drop the new one
	n.Deregister(first)
	assert.True(t, n.Deliver("a", Event{Name: Ping}))

	n.Deregister(second)
	assert.False(t, n.Deliver("a", Event{Name: Ping}))
}

func TestNotifier_FullBufferDrops(t *testing.T) {
	n := newTestNotifier(1)
	s := n.Register("a")

	assert.True(t, n.Deliver("a", Event{Name: "one"}))
	assert.False(t, n.Deliver("a", Event{Name: "two"}))

	e := <-s.Events()
	assert.Equal(t, "one", e.Name)
}

func TestNotifier_CloseEndsStreams(t *testing.T) {
	n := newTestNotifier(1)

	a, b := n.Register("a"), n.Register("b")
	n.Close()

	for _, s := range []*Stream{a, b} {
		select {
		case <-s.Done():
		default:
			t.Fatalf("stream of %s still open", s.UserID)
		}
	}

	assert.False(t, n.Deliver("a", Event{Name: Ping}))

	// deregistering after close is harmless
	n.Deregister(a)
}
