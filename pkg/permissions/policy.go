// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package permissions

import (
	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
)

// Grants maps a membership role to the actions it allows
type Grants map[types.Role]Action

// Policy is keyed by subject type, then by the context type the membership points at.
// A missing entry grants nothing.
type Policy map[entities.Type]map[entities.Type]Grants

func (p Policy) Actions(subject, context entities.Type, role types.Role) Action {
	byContext, ok := p[subject]
	if !ok {
		return ActionNone
	}

	grants, ok := byContext[context]
	if !ok {
		return ActionNone
	}

	return grants[role]
}

// DefaultPolicy is the static access configuration loaded at startup
func DefaultPolicy() Policy {
	return Policy{
		entities.Organization: {
			entities.Organization: {types.RoleAdmin: ActionAll, types.RoleMember: ActionRead},
		},
		entities.Workspace: {
			entities.Workspace:    {types.RoleAdmin: ActionAll, types.RoleMember: ActionRead},
			entities.Organization: {types.RoleAdmin: ActionAll, types.RoleMember: ActionCreate},
		},
		entities.Project: {
			entities.Project:      {types.RoleAdmin: ActionAll, types.RoleMember: ActionRead | ActionUpdate},
			entities.Organization: {types.RoleAdmin: ActionAll},
		},
		entities.Task: {
			entities.Project:      {types.RoleAdmin: ActionAll, types.RoleMember: ActionAll},
			entities.Organization: {types.RoleAdmin: ActionAll},
		},
		entities.Label: {
			entities.Project:      {types.RoleAdmin: ActionAll, types.RoleMember: ActionCreate | ActionRead | ActionUpdate},
			entities.Organization: {types.RoleAdmin: ActionAll},
		},
	}
}
