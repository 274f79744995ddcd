// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"context"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/permissions"
)

type scopeKey struct{}

// Scope is what a passed guard hands to the handler
type Scope struct {
	User *types.User

	// Entity is nil when the request creates a new entity
	Entity      *types.Entity
	Subject     permissions.Subject
	Memberships []*types.Membership
}

// ContextID returns the id of the context of type t the request targets, either the
// entity itself or one of its ancestors
func (s *Scope) ContextID(t entities.Type) (string, bool) {
	if s.Entity != nil && s.Subject.Type == t {
		return s.Entity.ID, true
	}

	for _, ref := range s.Subject.Ancestors {
		if ref.Type == t {
			return ref.ID, true
		}
	}

	return "", false
}

// Membership returns the caller's membership on the given context
func (s *Scope) Membership(ref entities.ContextRef) *types.Membership {
	for _, m := range s.Memberships {
		if m.UserID == s.User.ID && ref.Matches(m) {
			return m
		}
	}

	return nil
}

func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func GetScope(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}
