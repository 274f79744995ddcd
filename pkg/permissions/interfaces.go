// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package permissions

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

type EngineInterface interface {
	IsAllowed(ctx context.Context, user *types.User, memberships []*types.Membership, action Action, subject Subject) bool
	Split(ctx context.Context, user *types.User, memberships []*types.Membership, action Action, subjects []Subject) ([]Subject, []Subject)
}
