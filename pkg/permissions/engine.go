// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package permissions

import (
	"context"
	"fmt"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

// Subject is the target of a permission check. ID is empty when the entity does not exist
// yet, Ancestors are ordered from the nearest parent to the organization.
type Subject struct {
	Type      entities.Type
	ID        string
	Ancestors []entities.ContextRef
}

// Lineage lists the contexts to consult, the subject itself first when it owns memberships
func (s Subject) Lineage(registry *entities.Registry) []entities.ContextRef {
	refs := make([]entities.ContextRef, 0, len(s.Ancestors)+1)

	if def, err := registry.Get(s.Type); err == nil && def.IsContext && s.ID != "" {
		refs = append(refs, entities.ContextRef{Type: s.Type, ID: s.ID})
	}

	return append(refs, s.Ancestors...)
}

// SubjectOf builds the subject of an existing entity from its parent pointers
func SubjectOf(registry *entities.Registry, e *types.Entity) (Subject, error) {
	def, err := registry.Get(entities.Type(e.Type))
	if err != nil {
		return Subject{}, err
	}

	s := Subject{Type: def.Type, ID: e.ID}

	for _, a := range def.Ancestors {
		id, ok := registry.ParentID(e, a)
		if !ok {
			return Subject{}, fmt.Errorf("%s %s has no %s", def.Type, e.ID, a)
		}

		s.Ancestors = append(s.Ancestors, entities.ContextRef{Type: a, ID: id})
	}

	return s, nil
}

var _ EngineInterface = (*Engine)(nil)

// Engine decides allow or deny from a user's memberships and a static policy
type Engine struct {
	policy   Policy
	registry *entities.Registry

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// IsAllowed lets system admins through. Otherwise the first context of the lineage the user
// holds a membership on decides, so a direct membership shadows inherited ones.
// Anything missing denies.
func (e *Engine) IsAllowed(ctx context.Context, user *types.User, memberships []*types.Membership, action Action, subject Subject) bool {
	_, span := e.tracer.Start(ctx, "permissions.Engine.IsAllowed")
	defer span.End()

	if user == nil {
		return false
	}

	if user.IsSystemAdmin() {
		return true
	}

	if _, err := e.registry.Get(subject.Type); err != nil {
		e.logger.Errorf("permission check on unregistered type: %v", err)
		return false
	}

	for _, ref := range subject.Lineage(e.registry) {
		m := find(memberships, user.ID, ref)
		if m == nil {
			continue
		}

		allowed := e.policy.Actions(subject.Type, ref.Type, m.Role).Has(action)

		e.logger.Debugf(
			"user %s %s on %s %s through %s membership as %s: %t",
			user.ID, action, subject.Type, subject.ID, ref, m.Role, allowed,
		)

		return allowed
	}

	return false
}

// Split partitions subjects into the allowed and denied ones for a batch operation
func (e *Engine) Split(ctx context.Context, user *types.User, memberships []*types.Membership, action Action, subjects []Subject) ([]Subject, []Subject) {
	allowed := make([]Subject, 0, len(subjects))
	denied := make([]Subject, 0)

	for _, s := range subjects {
		if e.IsAllowed(ctx, user, memberships, action, s) {
			allowed = append(allowed, s)
		} else {
			denied = append(denied, s)
		}
	}

	return allowed, denied
}

func find(memberships []*types.Membership, userID string, ref entities.ContextRef) *types.Membership {
	for _, m := range memberships {
		if m == nil || m.UserID != userID {
			continue
		}

		if ref.Matches(m) {
			return m
		}
	}

	return nil
}

func NewEngine(policy Policy, registry *entities.Registry, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Engine {
	e := new(Engine)

	e.policy = policy
	e.registry = registry

	e.tracer = tracer
	e.monitor = monitor
	e.logger = logger

	return e
}
