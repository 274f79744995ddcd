// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"encoding/json"
	"fmt"

	"github.com/canonical/workspace-service/internal/entities"
)

const (
	Connected = "connected"
	Ping      = "ping"

	// retryMillis is the reconnection delay suggested to browsers
	retryMillis = 5000
)

func NewMembership(t entities.Type) string {
	return fmt.Sprintf("new_%s_membership", t)
}

func RemoveMembership(t entities.Type) string {
	return fmt.Sprintf("remove_%s_membership", t)
}

func Update(t entities.Type) string {
	return fmt.Sprintf("update_%s", t)
}

// Event is a named payload pushed to a user stream
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

func NewEvent(name string, payload any) (Event, error) {
	if payload == nil {
		payload = struct{}{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s event: %w", name, err)
	}

	return Event{Name: name, Data: data}, nil
}

// Frame renders the event in text/event-stream format
func (e Event) Frame() []byte {
	data := e.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	return fmt.Appendf(nil, "event: %s\ndata: %s\nretry: %d\n\n", e.Name, data, retryMillis)
}
