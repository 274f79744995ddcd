// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/entity"
)

// StorageInterface is the subset of the storage layer used to provision users
type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
}

// EntityCreatorInterface creates the personal organization, its creator becomes admin
type EntityCreatorInterface interface {
	Create(ctx context.Context, caller *types.User, entityType entities.Type, ancestors []entities.ContextRef, in entity.CreateInput) (*types.Entity, error)
}

type TxInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// ServiceInterface defines the webhook service operations.
type ServiceInterface interface {
	HandleRegistration(ctx context.Context, identity Identity) (*Registration, error)
}
