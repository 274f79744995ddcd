// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"net/http"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/invitation"
	"github.com/canonical/workspace-service/pkg/permissions"
)

type ServiceInterface interface {
	List(ctx context.Context, ref entities.ContextRef, page, size int64) ([]*types.Member, error)
	Counts(ctx context.Context, ref entities.ContextRef) (*types.MembershipCounts, error)
	Invite(ctx context.Context, inviter *types.User, organization *types.Entity, emails []string, role types.Role) (*invitation.InviteResult, error)
	Add(ctx context.Context, caller *types.User, target *types.Entity, userIDs []string, role types.Role) (*AddResult, error)
	Update(ctx context.Context, caller Caller, subject permissions.Subject, userID string, patch types.MembershipPatch) (*types.Membership, error)
	Delete(ctx context.Context, caller Caller, ids []string) (*DeleteResult, error)
}

type StorageInterface interface {
	ListMembers(ctx context.Context, ref entities.ContextRef, offset, limit uint64) ([]*types.Member, error)
	CountMemberships(ctx context.Context, ref entities.ContextRef) (*types.MembershipCounts, error)
	FindMembership(ctx context.Context, userID string, ref entities.ContextRef) (*types.Membership, error)
	CreateMembership(ctx context.Context, membership *types.Membership) (*types.Membership, bool, error)
	UpdateMembership(ctx context.Context, userID string, ref entities.ContextRef, patch types.MembershipPatch, modifiedBy string) (*types.Membership, error)
	GetMembershipsByIDs(ctx context.Context, ids []string) ([]*types.Membership, error)
	DeleteMemberships(ctx context.Context, ids []string) ([]string, []string, error)
	ListMemberUserIDs(ctx context.Context, ref entities.ContextRef) ([]string, error)
}

type InvitationInterface interface {
	Invite(ctx context.Context, inviter *types.User, organization *types.Entity, emails []string, role types.Role) (*invitation.InviteResult, error)
}

// TxInterface runs fn atomically, joining a transaction already carried by ctx
type TxInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type GuardInterface interface {
	RequireAccess(entityType entities.Type, action permissions.Action, idParam string) func(http.Handler) http.Handler
	LoadMemberships() func(http.Handler) http.Handler
}
