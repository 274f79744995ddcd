// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package entity

import (
	"context"
	"net/http"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/permissions"
)

type ServiceInterface interface {
	Create(ctx context.Context, caller *types.User, entityType entities.Type, ancestors []entities.ContextRef, in CreateInput) (*types.Entity, error)
	Update(ctx context.Context, caller *types.User, subject permissions.Subject, e *types.Entity, patch storage.EntityPatch) (*types.Entity, error)
	Delete(ctx context.Context, caller Caller, entityType entities.Type, ids []string) (*DeleteResult, error)
	SlugAvailable(ctx context.Context, entityType entities.Type, slug string) (bool, error)
}

type StorageInterface interface {
	CreateEntity(ctx context.Context, e *types.Entity) (*types.Entity, error)
	UpdateEntity(ctx context.Context, entityType entities.Type, id string, patch storage.EntityPatch, modifiedBy string) (*types.Entity, error)
	DeleteEntities(ctx context.Context, entityType entities.Type, ids []string) ([]string, error)
	SlugExists(ctx context.Context, entityType entities.Type, slug string) (bool, error)
	CreateMembership(ctx context.Context, membership *types.Membership) (*types.Membership, bool, error)
	ListMemberUserIDs(ctx context.Context, ref entities.ContextRef) ([]string, error)
}

type ResolverInterface interface {
	Resolve(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error)
	ResolveMany(ctx context.Context, entityType entities.Type, ids []string) ([]*types.Entity, error)
}

// TxInterface runs fn atomically, joining a transaction already carried by ctx
type TxInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type GuardInterface interface {
	RequireAccess(entityType entities.Type, action permissions.Action, idParam string) func(http.Handler) http.Handler
	LoadMemberships() func(http.Handler) http.Handler
}
