// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"context"
)

// NotifierInterface pushes events to connected users, delivery is at most once and only
// to users holding an open stream
type NotifierInterface interface {
	Send(ctx context.Context, userID, name string, payload any)
	SendToUsers(ctx context.Context, userIDs []string, name string, payload any)
}

// RegistryInterface is the process local set of open streams
type RegistryInterface interface {
	NotifierInterface

	Register(userID string) *Stream
	Deregister(s *Stream)
	Deliver(userID string, e Event) bool
}
