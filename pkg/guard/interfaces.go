// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"context"
	"net/http"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
)

type ResolverInterface interface {
	Resolve(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error)
}

type StorageInterface interface {
	ListMembershipsByUserID(ctx context.Context, userID string) ([]*types.Membership, error)
}

type ContextBuilderInterface interface {
	BuildContext(ctx context.Context, entityType entities.Type, r *http.Request) (*AncestorContext, error)
}
