// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package permissions

import (
	"context"
	"testing"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

const (
	orgID     = "org-1"
	projectID = "project-1"
	taskID    = "task-1"
	wsID      = "ws-1"
	userID    = "user-1"
)

func newEngine() *Engine {
	logger := logging.NewNoopLogger()
	return NewEngine(DefaultPolicy(), entities.DefaultRegistry(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func orgMembership(role types.Role) *types.Membership {
	return &types.Membership{ID: "m-org", UserID: userID, Type: "organization", OrganizationID: orgID, Role: role}
}

func projectMembership(role types.Role) *types.Membership {
	p := projectID
	return &types.Membership{ID: "m-project", UserID: userID, Type: "project", OrganizationID: orgID, ProjectID: &p, Role: role}
}

var (
	orgSubject     = Subject{Type: entities.Organization, ID: orgID}
	projectSubject = Subject{Type: entities.Project, ID: projectID, Ancestors: []entities.ContextRef{{Type: entities.Organization, ID: orgID}}}
	taskSubject    = Subject{
		Type: entities.Task,
		ID:   taskID,
		Ancestors: []entities.ContextRef{
			{Type: entities.Project, ID: projectID},
			{Type: entities.Organization, ID: orgID},
		},
	}
	newWorkspace = Subject{Type: entities.Workspace, Ancestors: []entities.ContextRef{{Type: entities.Organization, ID: orgID}}}
)

func TestSystemAdminAlwaysAllowed(t *testing.T) {
	e := newEngine()
	admin := &types.User{ID: "root", Role: types.SystemRoleAdmin}

	for _, s := range []Subject{orgSubject, projectSubject, taskSubject, newWorkspace, {Type: entities.Label}} {
		for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage} {
			if !e.IsAllowed(context.Background(), admin, nil, a, s) {
				t.Errorf("system admin denied %s on %s", a, s.Type)
			}
		}
	}
}

func TestNoMembershipDenied(t *testing.T) {
	e := newEngine()
	user := &types.User{ID: userID, Role: types.SystemRoleUser}
	other := &types.Membership{ID: "m-x", UserID: userID, Type: "organization", OrganizationID: "org-other", Role: types.RoleAdmin}

	for _, s := range []Subject{orgSubject, projectSubject, taskSubject, newWorkspace, {Type: entities.Project}} {
		for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage} {
			if e.IsAllowed(context.Background(), user, []*types.Membership{other}, a, s) {
				t.Errorf("user without membership allowed %s on %s", a, s.Type)
			}
		}
	}

	if e.IsAllowed(context.Background(), nil, nil, ActionRead, orgSubject) {
		t.Errorf("anonymous caller allowed")
	}
}

func TestIsAllowed(t *testing.T) {
	user := &types.User{ID: userID, Role: types.SystemRoleUser}

	tests := []struct {
		name        string
		memberships []*types.Membership
		action      Action
		subject     Subject
		expected    bool
	}{
		{
			name:        "organization member reads organization",
			memberships: []*types.Membership{orgMembership(types.RoleMember)},
			action:      ActionRead,
			subject:     orgSubject,
			expected:    true,
		},
		{
			name:        "organization member cannot delete organization",
			memberships: []*types.Membership{orgMembership(types.RoleMember)},
			action:      ActionDelete,
			subject:     orgSubject,
			expected:    false,
		},
		{
			name:        "organization admin deletes project through inheritance",
			memberships: []*types.Membership{orgMembership(types.RoleAdmin)},
			action:      ActionDelete,
			subject:     projectSubject,
			expected:    true,
		},
		{
			name:        "organization member gets nothing on projects",
			memberships: []*types.Membership{orgMembership(types.RoleMember)},
			action:      ActionRead,
			subject:     projectSubject,
			expected:    false,
		},
		{
			name:        "direct project membership shadows organization admin",
			memberships: []*types.Membership{orgMembership(types.RoleAdmin), projectMembership(types.RoleMember)},
			action:      ActionDelete,
			subject:     projectSubject,
			expected:    false,
		},
		{
			name:        "project member updates project",
			memberships: []*types.Membership{projectMembership(types.RoleMember)},
			action:      ActionUpdate,
			subject:     projectSubject,
			expected:    true,
		},
		{
			name:        "project member cannot manage project members",
			memberships: []*types.Membership{projectMembership(types.RoleMember)},
			action:      ActionManage,
			subject:     projectSubject,
			expected:    false,
		},
		{
			name:        "project admin manages project members",
			memberships: []*types.Membership{projectMembership(types.RoleAdmin)},
			action:      ActionManage,
			subject:     projectSubject,
			expected:    true,
		},
		{
			name:        "organization admin manages project members through inheritance",
			memberships: []*types.Membership{orgMembership(types.RoleAdmin)},
			action:      ActionManage,
			subject:     projectSubject,
			expected:    true,
		},
		{
			name:        "organization member cannot manage organization members",
			memberships: []*types.Membership{orgMembership(types.RoleMember)},
			action:      ActionManage,
			subject:     orgSubject,
			expected:    false,
		},
		{
			name:        "project member deletes task via nearest ancestor",
			memberships: []*types.Membership{projectMembership(types.RoleMember)},
			action:      ActionDelete,
			subject:     taskSubject,
			expected:    true,
		},
		{
			name:        "organization member cannot read task",
			memberships: []*types.Membership{orgMembership(types.RoleMember)},
			action:      ActionRead,
			subject:     taskSubject,
			expected:    false,
		},
		{
			name:        "organization member creates workspace",
			memberships: []*types.Membership{orgMembership(types.RoleMember)},
			action:      ActionCreate,
			subject:     newWorkspace,
			expected:    true,
		},
		{
			name:        "empty context fails closed",
			memberships: []*types.Membership{orgMembership(types.RoleAdmin)},
			action:      ActionCreate,
			subject:     Subject{Type: entities.Project},
			expected:    false,
		},
		{
			name: "membership of another user is ignored",
			memberships: []*types.Membership{
				{ID: "m-y", UserID: "user-2", Type: "organization", OrganizationID: orgID, Role: types.RoleAdmin},
			},
			action:   ActionRead,
			subject:  orgSubject,
			expected: false,
		},
		{
			name:        "unregistered subject type",
			memberships: []*types.Membership{orgMembership(types.RoleAdmin)},
			action:      ActionRead,
			subject:     Subject{Type: "galaxy", Ancestors: []entities.ContextRef{{Type: entities.Organization, ID: orgID}}},
			expected:    false,
		},
	}

	e := newEngine()

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := e.IsAllowed(context.Background(), user, test.memberships, test.action, test.subject); got != test.expected {
				t.Errorf("expected %t, got %t", test.expected, got)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	e := newEngine()
	user := &types.User{ID: userID, Role: types.SystemRoleUser}

	foreign := Subject{Type: entities.Task, ID: "task-2", Ancestors: []entities.ContextRef{{Type: entities.Project, ID: "project-2"}, {Type: entities.Organization, ID: "org-2"}}}

	allowed, denied := e.Split(
		context.Background(),
		user,
		[]*types.Membership{projectMembership(types.RoleMember)},
		ActionDelete,
		[]Subject{taskSubject, foreign},
	)

	if len(allowed) != 1 || allowed[0].ID != taskID {
		t.Errorf("unexpected allowed set %v", allowed)
	}

	if len(denied) != 1 || denied[0].ID != "task-2" {
		t.Errorf("unexpected denied set %v", denied)
	}
}

func TestSubjectOf(t *testing.T) {
	reg := entities.DefaultRegistry()
	o, p := orgID, projectID

	s, err := SubjectOf(reg, &types.Entity{ID: taskID, Type: "task", OrganizationID: &o, ProjectID: &p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.Ancestors) != 2 || s.Ancestors[0].Type != entities.Project || s.Ancestors[1].ID != orgID {
		t.Errorf("unexpected ancestors %v", s.Ancestors)
	}

	if _, err := SubjectOf(reg, &types.Entity{ID: taskID, Type: "task", OrganizationID: &o}); err == nil {
		t.Errorf("expected error for a task without project")
	}

	lineage := Subject{Type: entities.Project, ID: projectID, Ancestors: s.Ancestors[1:]}.Lineage(reg)
	if len(lineage) != 2 || lineage[0] != (entities.ContextRef{Type: entities.Project, ID: projectID}) {
		t.Errorf("unexpected lineage %v", lineage)
	}
}

func TestActions(t *testing.T) {
	if !ActionAll.Has(ActionDelete) || (ActionRead | ActionUpdate).Has(ActionDelete) || ActionAll.Has(ActionNone) {
		t.Errorf("bitset checks are wrong")
	}

	if (ActionRead | ActionUpdate).String() != "read|update" {
		t.Errorf("unexpected string %s", (ActionRead | ActionUpdate).String())
	}

	if !ActionAll.Has(ActionManage) || (ActionRead | ActionUpdate).Has(ActionManage) {
		t.Errorf("manage is only part of the full grant")
	}

	if (ActionUpdate | ActionManage).String() != "update|manage" {
		t.Errorf("unexpected string %s", (ActionUpdate | ActionManage).String())
	}

	if a, err := ParseAction("delete"); err != nil || a != ActionDelete {
		t.Errorf("unexpected parse result %v %v", a, err)
	}

	if _, err := ParseAction("obliterate"); err == nil {
		t.Errorf("expected error")
	}
}
