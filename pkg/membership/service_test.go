// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/entities"
	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/events"
	"github.com/canonical/workspace-service/pkg/invitation"
	"github.com/canonical/workspace-service/pkg/permissions"
)

//go:generate mockgen -build_flags=--mod=mod -package membership -destination ./mock_membership.go -source=./interfaces.go

const (
	orgID     = "0190f5a4-0000-7000-8000-000000000001"
	projectID = "0190f5a4-0000-7000-8000-000000000002"
	adminID   = "0190f5a4-0000-7000-8000-0000000000a1"
	memberID  = "0190f5a4-0000-7000-8000-0000000000a2"
	outsideID = "0190f5a4-0000-7000-8000-0000000000a3"
)

var orgRef = entities.ContextRef{Type: entities.Organization, ID: orgID}

type serviceMocks struct {
	storage     *MockStorageInterface
	invitations *MockInvitationInterface
	notifier    *events.Notifier
}

func newTestService(ctrl *gomock.Controller) (*Service, serviceMocks) {
	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("test", logger)
	registry := entities.DefaultRegistry()

	m := serviceMocks{
		storage:     NewMockStorageInterface(ctrl),
		invitations: NewMockInvitationInterface(ctrl),
		notifier:    events.NewNotifier(4, tracer, monitor, logger),
	}

	tx := NewMockTxInterface(ctrl)
	tx.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()

	engine := permissions.NewEngine(permissions.DefaultPolicy(), registry, tracer, monitor, logger)

	return NewService(m.storage, tx, m.invitations, engine, registry, m.notifier, tracer, monitor, logger), m
}

func orgMembership(id, userID string, role types.Role) *types.Membership {
	return &types.Membership{ID: id, UserID: userID, Type: "organization", OrganizationID: orgID, Role: role}
}

func expectEvent(t *testing.T, stream *events.Stream, name string) {
	t.Helper()

	select {
	case e := <-stream.Events():
		assert.Equal(t, name, e.Name)
	default:
		t.Fatalf("expected %s event", name)
	}
}

func TestService_DeleteRemovesMemberAndNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	admin := orgMembership("ma", adminID, types.RoleAdmin)
	member := orgMembership("mb", memberID, types.RoleMember)
	caller := Caller{User: &types.User{ID: adminID}, Memberships: []*types.Membership{admin}}

	removed := m.notifier.Register(memberID)

	m.storage.EXPECT().GetMembershipsByIDs(gomock.Any(), []string{"mb"}).Return([]*types.Membership{member}, nil)
	m.storage.EXPECT().DeleteMemberships(gomock.Any(), []string{"mb"}).Return([]string{"mb"}, []string{}, nil)
	m.storage.EXPECT().ListMemberUserIDs(gomock.Any(), orgRef).Return([]string{adminID}, nil)

	result, err := s.Delete(context.Background(), caller, []string{"mb"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mb"}, result.Deleted)
	assert.Empty(t, result.Errors)

	expectEvent(t, removed, "remove_organization_membership")
}

func TestService_DeleteReportsPerID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	self := orgMembership("mb", memberID, types.RoleMember)
	other := orgMembership("mc", outsideID, types.RoleMember)
	caller := Caller{User: &types.User{ID: memberID}, Memberships: []*types.Membership{self}}

	m.storage.EXPECT().GetMembershipsByIDs(gomock.Any(), []string{"mb", "mc", "gone"}).Return([]*types.Membership{self, other}, nil)
	m.storage.EXPECT().DeleteMemberships(gomock.Any(), []string{"mb"}).Return([]string{"mb"}, []string{}, nil)
	m.storage.EXPECT().ListMemberUserIDs(gomock.Any(), orgRef).Return([]string{adminID}, nil)

	result, err := s.Delete(context.Background(), caller, []string{"mb", "mc", "gone"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mb"}, result.Deleted)
	assert.ElementsMatch(t, []httptypes.BatchError{
		{ID: "mc", Type: httptypes.ErrorForbidden, EntityType: "organization"},
		{ID: "gone", Type: httptypes.ErrorNotFound, EntityType: "membership"},
	}, result.Errors)
}

func TestService_DeleteKeepsLastAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	admin := orgMembership("ma", adminID, types.RoleAdmin)
	caller := Caller{User: &types.User{ID: adminID}, Memberships: []*types.Membership{admin}}

	m.storage.EXPECT().GetMembershipsByIDs(gomock.Any(), []string{"ma"}).Return([]*types.Membership{admin}, nil)
	m.storage.EXPECT().CountMemberships(gomock.Any(), orgRef).Return(&types.MembershipCounts{Admins: 1, Members: 3}, nil)

	result, err := s.Delete(context.Background(), caller, []string{"ma"})
	require.NoError(t, err)
	assert.Empty(t, result.Deleted)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, httptypes.ErrorLastAdmin, result.Errors[0].Type)
}

func TestService_Update(t *testing.T) {
	admin := types.RoleAdmin
	member := types.RoleMember
	archived := true

	adminMembership := orgMembership("ma", adminID, types.RoleAdmin)
	memberMembership := orgMembership("mb", memberID, types.RoleMember)
	subject := permissions.Subject{Type: entities.Organization, ID: orgID}

	tests := []struct {
		name       string
		caller     Caller
		userID     string
		patch      types.MembershipPatch
		setupMocks func(serviceMocks)
		expectErr  httptypes.ErrorType
		expectSent string
	}{
		{
			name:      "empty patch",
			caller:    Caller{User: &types.User{ID: adminID}},
			userID:    memberID,
			expectErr: httptypes.ErrorInvalidRequest,
		},
		{
			name:      "member cannot change roles",
			caller:    Caller{User: &types.User{ID: memberID}, Memberships: []*types.Membership{memberMembership}},
			userID:    memberID,
			patch:     types.MembershipPatch{Role: &admin},
			expectErr: httptypes.ErrorForbidden,
		},
		{
			name:      "admin cannot archive for someone else",
			caller:    Caller{User: &types.User{ID: adminID}, Memberships: []*types.Membership{adminMembership}},
			userID:    memberID,
			patch:     types.MembershipPatch{Archived: &archived},
			expectErr: httptypes.ErrorForbidden,
		},
		{
			name:   "member archives own membership",
			caller: Caller{User: &types.User{ID: memberID}, Memberships: []*types.Membership{memberMembership}},
			userID: memberID,
			patch:  types.MembershipPatch{Archived: &archived},
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().FindMembership(gomock.Any(), memberID, orgRef).Return(memberMembership, nil)
				m.storage.EXPECT().UpdateMembership(gomock.Any(), memberID, orgRef, types.MembershipPatch{Archived: &archived}, memberID).
					Return(memberMembership, nil)
			},
		},
		{
			name:   "last admin cannot be demoted",
			caller: Caller{User: &types.User{ID: adminID}, Memberships: []*types.Membership{adminMembership}},
			userID: adminID,
			patch:  types.MembershipPatch{Role: &member},
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().FindMembership(gomock.Any(), adminID, orgRef).Return(adminMembership, nil)
				m.storage.EXPECT().CountMemberships(gomock.Any(), orgRef).Return(&types.MembershipCounts{Admins: 1, Members: 2}, nil)
			},
			expectErr: httptypes.ErrorLastAdmin,
		},
		{
			name:   "admin promotes a member",
			caller: Caller{User: &types.User{ID: adminID}, Memberships: []*types.Membership{adminMembership}},
			userID: memberID,
			patch:  types.MembershipPatch{Role: &admin},
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().FindMembership(gomock.Any(), memberID, orgRef).Return(memberMembership, nil)
				m.storage.EXPECT().UpdateMembership(gomock.Any(), memberID, orgRef, types.MembershipPatch{Role: &admin}, adminID).
					Return(orgMembership("mb", memberID, types.RoleAdmin), nil)
			},
			expectSent: "update_organization",
		},
		{
			name:   "unknown membership",
			caller: Caller{User: &types.User{ID: adminID}, Memberships: []*types.Membership{adminMembership}},
			userID: outsideID,
			patch:  types.MembershipPatch{Role: &admin},
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().FindMembership(gomock.Any(), outsideID, orgRef).Return(nil, storage.ErrNotFound)
			},
			expectErr: httptypes.ErrorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}

			stream := m.notifier.Register(tt.userID)

			result, err := s.Update(context.Background(), tt.caller, subject, tt.userID, tt.patch)

			if tt.expectErr != "" {
				assert.ErrorIs(t, err, httptypes.NewError(tt.expectErr, ""))
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, result)

			if tt.expectSent != "" {
				expectEvent(t, stream, tt.expectSent)
			}
		})
	}
}

func TestService_ProjectMemberCannotManageMembers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	admin := types.RoleAdmin
	projectRef := entities.ContextRef{Type: entities.Project, ID: projectID}
	subject := permissions.Subject{Type: entities.Project, ID: projectID, Ancestors: []entities.ContextRef{orgRef}}

	self := &types.Membership{ID: "mp", UserID: memberID, Type: "project", OrganizationID: orgID, ProjectID: &projectRef.ID, Role: types.RoleMember}
	other := &types.Membership{ID: "mq", UserID: adminID, Type: "project", OrganizationID: orgID, ProjectID: &projectRef.ID, Role: types.RoleAdmin}
	caller := Caller{User: &types.User{ID: memberID}, Memberships: []*types.Membership{self}}

	result, err := s.Update(context.Background(), caller, subject, memberID, types.MembershipPatch{Role: &admin})
	assert.ErrorIs(t, err, httptypes.NewError(httptypes.ErrorForbidden, ""))
	assert.Nil(t, result)

	m.storage.EXPECT().GetMembershipsByIDs(gomock.Any(), []string{"mq"}).Return([]*types.Membership{other}, nil)

	deleted, err := s.Delete(context.Background(), caller, []string{"mq"})
	require.NoError(t, err)
	assert.Empty(t, deleted.Deleted)
	assert.Equal(t, []httptypes.BatchError{{ID: "mq", Type: httptypes.ErrorForbidden, EntityType: "project"}}, deleted.Errors)
}

func TestService_Add(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	oid := orgID
	project := &types.Entity{ID: projectID, Type: "project", Name: "Apollo", OrganizationID: &oid}
	projectRef := entities.ContextRef{Type: entities.Project, ID: projectID}
	stream := m.notifier.Register(memberID)

	m.storage.EXPECT().FindMembership(gomock.Any(), memberID, orgRef).Return(orgMembership("mb", memberID, types.RoleMember), nil)
	m.storage.EXPECT().FindMembership(gomock.Any(), outsideID, orgRef).Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().CreateMembership(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *types.Membership) (*types.Membership, bool, error) {
			assert.Equal(t, "project", in.Type)
			assert.Equal(t, projectID, *in.ProjectID)
			assert.Nil(t, in.WorkspaceID)
			assert.Equal(t, orgID, in.OrganizationID)

			in.ID = "mp"
			return in, true, nil
		},
	)
	m.storage.EXPECT().ListMemberUserIDs(gomock.Any(), projectRef).Return([]string{adminID, memberID}, nil)

	result, err := s.Add(context.Background(), &types.User{ID: adminID}, project, []string{memberID, outsideID}, types.RoleMember)
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "mp", result.Added[0].ID)
	assert.Equal(t, []httptypes.BatchError{{ID: outsideID, Type: httptypes.ErrorNotFound, EntityType: "user"}}, result.Errors)

	expectEvent(t, stream, "new_project_membership")

	org := &types.Entity{ID: orgID, Type: "organization"}
	_, err = s.Add(context.Background(), &types.User{ID: adminID}, org, []string{memberID}, types.RoleMember)
	assert.ErrorIs(t, err, httptypes.InvalidRequest(""))
}

func TestService_ListAndCounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	m.storage.EXPECT().ListMembers(gomock.Any(), orgRef, uint64(10), uint64(10)).Return([]*types.Member{}, nil)
	m.storage.EXPECT().ListMembers(gomock.Any(), orgRef, uint64(0), uint64(100)).Return(nil, errors.New("boom"))
	m.storage.EXPECT().CountMemberships(gomock.Any(), orgRef).Return(&types.MembershipCounts{Admins: 1, Members: 1}, nil)

	members, err := s.List(context.Background(), orgRef, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = s.List(context.Background(), orgRef, 0, 0)
	assert.EqualError(t, err, "boom")

	counts, err := s.Counts(context.Background(), orgRef)
	require.NoError(t, err)
	assert.Equal(t, &types.MembershipCounts{Admins: 1, Members: 1}, counts)
}

func TestService_Invite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	inviter := &types.User{ID: adminID}
	org := &types.Entity{ID: orgID, Type: "organization"}

	m.invitations.EXPECT().Invite(gomock.Any(), inviter, org, []string{"b@x.com"}, types.RoleMember).
		Return(&invitation.InviteResult{Invited: []string{"b@x.com"}}, nil)

	result, err := s.Invite(context.Background(), inviter, org, []string{"b@x.com"}, types.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com"}, result.Invited)

	project := &types.Entity{ID: projectID, Type: "project"}
	_, err = s.Invite(context.Background(), inviter, project, []string{"b@x.com"}, types.RoleMember)
	assert.ErrorIs(t, err, httptypes.InvalidRequest(""))
}
