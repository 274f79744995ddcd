// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"context"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
)

type ResolverInterface interface {
	Resolve(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error)
	ResolveMany(ctx context.Context, entityType entities.Type, ids []string) ([]*types.Entity, error)
}

type StorageInterface interface {
	GetEntity(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error)
	ListEntitiesByIDs(ctx context.Context, entityType entities.Type, ids []string) ([]*types.Entity, error)
}
