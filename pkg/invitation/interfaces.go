// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"time"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
)

type ServiceInterface interface {
	IssueEmailVerification(ctx context.Context, user *types.User) error
	Invite(ctx context.Context, inviter *types.User, organization *types.Entity, emails []string, role types.Role) (*InviteResult, error)
	Check(ctx context.Context, tokenID string, tokenType types.TokenType) (*TokenInfo, error)
	Accept(ctx context.Context, tokenID string, in AcceptInput, caller *types.User) (*Acceptance, error)
	Reject(ctx context.Context, tokenID string) error
	Resend(ctx context.Context, tokenID string) error
	VerifyEmail(ctx context.Context, tokenID string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tokenID, password string) error
	PurgeExpired(ctx context.Context) (int64, int64, error)
}

// PurgerInterface is the part of the service run by the janitor
type PurgerInterface interface {
	PurgeExpired(ctx context.Context) (int64, int64, error)
}

type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	UpdateUserPassword(ctx context.Context, id, hashedPassword string) error
	MarkEmailVerified(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	FindMembership(ctx context.Context, userID string, ref entities.ContextRef) (*types.Membership, error)
	CreateMembership(ctx context.Context, membership *types.Membership) (*types.Membership, bool, error)
	UpdateMembership(ctx context.Context, userID string, ref entities.ContextRef, patch types.MembershipPatch, modifiedBy string) (*types.Membership, error)
	ListMemberUserIDs(ctx context.Context, ref entities.ContextRef) ([]string, error)

	CreateToken(ctx context.Context, t *types.Token) (*types.Token, error)
	GetToken(ctx context.Context, id string) (*types.Token, error)
	DeleteToken(ctx context.Context, id string) error
	DeleteTokensFor(ctx context.Context, tokenType types.TokenType, userID *string, email string, organizationID *string) (int64, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type ResolverInterface interface {
	Resolve(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error)
}

// TxInterface runs fn atomically, joining a transaction already carried by ctx
type TxInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}
