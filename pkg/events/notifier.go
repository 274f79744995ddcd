// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"context"
	"sync"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

const defaultBufferSize = 16

// Stream is the open channel of one user. Done is closed when a newer stream of the same
// user replaces it.
type Stream struct {
	UserID string

	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *Stream) Events() <-chan Event {
	return s.events
}

func (s *Stream) Done() <-chan struct{} {
	return s.done
}

func (s *Stream) close() {
	s.once.Do(func() { close(s.done) })
}

var _ RegistryInterface = (*Notifier)(nil)

// Notifier keeps a single stream per user, a new connection replaces the previous one
type Notifier struct {
	mu      sync.RWMutex
	streams map[string]*Stream

	bufferSize int

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (n *Notifier) Register(userID string) *Stream {
	s := &Stream{
		UserID: userID,
		events: make(chan Event, n.bufferSize),
		done:   make(chan struct{}),
	}

	n.mu.Lock()
	old, ok := n.streams[userID]
	n.streams[userID] = s
	count := len(n.streams)
	n.mu.Unlock()

	if ok {
		old.close()
	}

	n.setConnected(count)

	return s
}

// Deregister drops s unless it was already replaced by a newer stream
func (n *Notifier) Deregister(s *Stream) {
	n.mu.Lock()
	if current, ok := n.streams[s.UserID]; ok && current == s {
		delete(n.streams, s.UserID)
	}
	count := len(n.streams)
	n.mu.Unlock()

	s.close()
	n.setConnected(count)
}

// Deliver queues e on the user stream, it never blocks: a full buffer drops the event
func (n *Notifier) Deliver(userID string, e Event) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	s, ok := n.streams[userID]
	if !ok {
		return false
	}

	select {
	case s.events <- e:
		return true
	default:
		n.logger.Warnf("event buffer full for user %s, dropping %s", userID, e.Name)
		return false
	}
}

func (n *Notifier) Send(ctx context.Context, userID, name string, payload any) {
	n.SendToUsers(ctx, []string{userID}, name, payload)
}

func (n *Notifier) SendToUsers(ctx context.Context, userIDs []string, name string, payload any) {
	_, span := n.tracer.Start(ctx, "events.Notifier.SendToUsers")
	defer span.End()

	e, err := NewEvent(name, payload)
	if err != nil {
		n.logger.Error(err)
		return
	}

	for _, id := range userIDs {
		n.Deliver(id, e)
	}
}

// Close ends every open stream, used on shutdown so that handlers return
func (n *Notifier) Close() {
	n.mu.Lock()
	streams := n.streams
	n.streams = make(map[string]*Stream)
	n.mu.Unlock()

	for _, s := range streams {
		s.close()
	}

	n.setConnected(0)
}

func (n *Notifier) setConnected(count int) {
	if err := n.monitor.SetConnectedStreams(nil, float64(count)); err != nil {
		n.logger.Debugf("failed to record connected streams: %v", err)
	}
}

// NewNotifier builds the registry, bufferSize bounds the events queued per stream
func NewNotifier(bufferSize int, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Notifier {
	n := new(Notifier)

	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	n.streams = make(map[string]*Stream)
	n.bufferSize = bufferSize

	n.tracer = tracer
	n.monitor = monitor
	n.logger = logger

	return n
}
