// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package entities

import (
	"fmt"

	"github.com/canonical/workspace-service/internal/types"
)

// ContextRef points at one context entity, Type is always organization, workspace or project
type ContextRef struct {
	Type Type
	ID   string
}

func NewContextRef(t Type, id string) (ContextRef, error) {
	switch t {
	case Organization, Workspace, Project:
		return ContextRef{Type: t, ID: id}, nil
	case Task, Label, User:
		return ContextRef{}, fmt.Errorf("%q is not a context type", t)
	default:
		return ContextRef{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// ContextRefFromMembership extracts the context a membership points at
func ContextRefFromMembership(m *types.Membership) (ContextRef, error) {
	switch Type(m.Type) {
	case Organization:
		return ContextRef{Type: Organization, ID: m.OrganizationID}, nil
	case Workspace:
		if m.WorkspaceID == nil {
			return ContextRef{}, fmt.Errorf("workspace membership %s has no workspace", m.ID)
		}
		return ContextRef{Type: Workspace, ID: *m.WorkspaceID}, nil
	case Project:
		if m.ProjectID == nil {
			return ContextRef{}, fmt.Errorf("project membership %s has no project", m.ID)
		}
		return ContextRef{Type: Project, ID: *m.ProjectID}, nil
	case Task, Label, User:
		return ContextRef{}, fmt.Errorf("membership %s has non context type %q", m.ID, m.Type)
	default:
		return ContextRef{}, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
}

// Matches reports whether m is a membership on exactly this context
func (c ContextRef) Matches(m *types.Membership) bool {
	ref, err := ContextRefFromMembership(m)
	if err != nil {
		return false
	}

	return ref == c
}

func (c ContextRef) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.ID)
}
