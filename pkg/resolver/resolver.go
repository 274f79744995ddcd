// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"context"
	"errors"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

// ErrNotFound is returned when no entity of the requested type matches
var ErrNotFound = errors.New("entity not found")

var _ ResolverInterface = (*Resolver)(nil)

// Resolver maps a type tag plus id or slug onto a stored entity
type Resolver struct {
	storage  StorageInterface
	registry *entities.Registry

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Resolve returns ErrNotFound for a missing entity, an unregistered type is reported
// as entities.ErrUnknownType
func (r *Resolver) Resolve(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.Resolver.Resolve")
	defer span.End()

	if _, err := r.registry.Get(entityType); err != nil {
		return nil, err
	}

	if idOrSlug == "" {
		return nil, ErrNotFound
	}

	e, err := r.storage.GetEntity(ctx, entityType, idOrSlug)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}

	return e, nil
}

// ResolveMany omits ids that do not exist, callers diff the result against their input
func (r *Resolver) ResolveMany(ctx context.Context, entityType entities.Type, ids []string) ([]*types.Entity, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.Resolver.ResolveMany")
	defer span.End()

	if _, err := r.registry.Get(entityType); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*types.Entity{}, nil
	}

	return r.storage.ListEntitiesByIDs(ctx, entityType, ids)
}

// Missing returns the requested ids absent from the resolved set
func Missing(ids []string, resolved []*types.Entity) []string {
	found := make(map[string]struct{}, len(resolved))
	for _, e := range resolved {
		found[e.ID] = struct{}{}
	}

	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	return missing
}

func NewResolver(s StorageInterface, registry *entities.Registry, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Resolver {
	r := new(Resolver)

	r.storage = s
	r.registry = registry

	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}
