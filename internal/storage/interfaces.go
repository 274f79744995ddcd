// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
)

type StorageInterface interface {
	GetEntity(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error)
	ListEntitiesByIDs(ctx context.Context, entityType entities.Type, ids []string) ([]*types.Entity, error)
	CreateEntity(ctx context.Context, e *types.Entity) (*types.Entity, error)
	UpdateEntity(ctx context.Context, entityType entities.Type, id string, patch EntityPatch, modifiedBy string) (*types.Entity, error)
	DeleteEntities(ctx context.Context, entityType entities.Type, ids []string) ([]string, error)
	SlugExists(ctx context.Context, entityType entities.Type, slug string) (bool, error)

	ListMembershipsByUserID(ctx context.Context, userID string) ([]*types.Membership, error)
	FindMembership(ctx context.Context, userID string, ref entities.ContextRef) (*types.Membership, error)
	GetMembershipsByIDs(ctx context.Context, ids []string) ([]*types.Membership, error)
	CreateMembership(ctx context.Context, membership *types.Membership) (*types.Membership, bool, error)
	UpdateMembership(ctx context.Context, userID string, ref entities.ContextRef, patch types.MembershipPatch, modifiedBy string) (*types.Membership, error)
	DeleteMemberships(ctx context.Context, ids []string) ([]string, []string, error)
	CountMemberships(ctx context.Context, ref entities.ContextRef) (*types.MembershipCounts, error)
	ListMembers(ctx context.Context, ref entities.ContextRef, offset, limit uint64) ([]*types.Member, error)
	ListMemberUserIDs(ctx context.Context, ref entities.ContextRef) ([]string, error)

	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	UpdateUserPassword(ctx context.Context, id, hashedPassword string) error
	MarkEmailVerified(ctx context.Context, id string) error
	TouchUser(ctx context.Context, id string, field UserTimestamp) error

	CreateSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, id string) (*types.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CreateToken(ctx context.Context, t *types.Token) (*types.Token, error)
	GetToken(ctx context.Context, id string) (*types.Token, error)
	DeleteToken(ctx context.Context, id string) error
	DeleteTokensFor(ctx context.Context, tokenType types.TokenType, userID *string, email string, organizationID *string) (int64, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
