// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/entities"
	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

type serviceMocks struct {
	storage  *MockStorageInterface
	sessions *MockSessionValidatorInterface
	tokens   *MockTokenIssuerInterface
	resolver *MockResolverInterface
}

func newTestService(ctrl *gomock.Controller) (*Service, serviceMocks) {
	m := serviceMocks{
		storage:  NewMockStorageInterface(ctrl),
		sessions: NewMockSessionValidatorInterface(ctrl),
		tokens:   NewMockTokenIssuerInterface(ctrl),
		resolver: NewMockResolverInterface(ctrl),
	}

	logger := logging.NewNoopLogger()
	s := NewService(m.storage, m.sessions, m.tokens, m.resolver, entities.DefaultRegistry(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	return s, m
}

func TestService_SignUp(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(serviceMocks)
		expectErr  error
	}{
		{
			name: "creates user and issues verification",
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, u *types.User) (*types.User, error) {
						if u.HashedPassword == nil || *u.HashedPassword == "secret-password" {
							t.Errorf("password must be hashed")
						}
						if !strings.HasPrefix(u.Slug, "ada-") || u.Role != types.SystemRoleUser {
							t.Errorf("unexpected user %+v", u)
						}
						u.ID = "0190f5a4-0000-7000-8000-0000000000a1"
						return u, nil
					},
				)
				m.tokens.EXPECT().IssueEmailVerification(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "duplicate email",
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil, storage.ErrDuplicateKey)
			},
			expectErr: httptypes.NewError(httptypes.ErrorEmailExists, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tt.setupMocks(m)

			user, err := s.SignUp(context.Background(), "ada@example.com", "secret-password", "Ada")
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("expected error %v, got %v", tt.expectErr, err)
				}
				return
			}

			if err != nil || user == nil {
				t.Fatalf("unexpected result %v, %v", user, err)
			}
		})
	}
}

func TestService_SignIn(t *testing.T) {
	hash, err := HashPassword("correct-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := &types.User{ID: "0190f5a4-0000-7000-8000-0000000000a1", Email: "ada@example.com", HashedPassword: &hash}
	unauthorized := httptypes.Unauthorized()

	tests := []struct {
		name       string
		password   string
		setupMocks func(serviceMocks)
		expectErr  error
	}{
		{
			name:     "valid credentials",
			password: "correct-password",
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), user.Email).Return(user, nil)
				m.sessions.EXPECT().Create(gomock.Any(), user.ID).Return("cookie", &types.Session{UserID: user.ID}, nil)
				m.storage.EXPECT().TouchUser(gomock.Any(), user.ID, storage.LastSignInAt).Return(nil)
			},
		},
		{
			name:     "wrong password",
			password: "wrong-password",
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), user.Email).Return(user, nil)
			},
			expectErr: unauthorized,
		},
		{
			name:     "unknown email",
			password: "correct-password",
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), user.Email).Return(nil, storage.ErrNotFound)
			},
			expectErr: unauthorized,
		},
		{
			name:     "user without password",
			password: "correct-password",
			setupMocks: func(m serviceMocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), user.Email).Return(&types.User{ID: user.ID}, nil)
			},
			expectErr: unauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tt.setupMocks(m)

			value, session, err := s.SignIn(context.Background(), user.Email, tt.password)
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("expected error %v, got %v", tt.expectErr, err)
				}
				return
			}

			if err != nil || value != "cookie" || session == nil {
				t.Fatalf("unexpected result %q, %v, %v", value, session, err)
			}
		})
	}
}

func TestService_Me(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	user := &types.User{ID: "0190f5a4-0000-7000-8000-0000000000a1"}
	memberships := []*types.Membership{{ID: "m1", UserID: user.ID, Type: "organization", OrganizationID: "o1"}}

	m.storage.EXPECT().TouchUser(gomock.Any(), user.ID, storage.LastVisitAt).Return(errors.New("ignored"))
	m.storage.EXPECT().ListMembershipsByUserID(gomock.Any(), user.ID).Return(memberships, nil)

	profile, err := s.Me(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.User != user || len(profile.Memberships) != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestService_Menu(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	user := &types.User{ID: "0190f5a4-0000-7000-8000-0000000000a1"}
	p1, p2 := "p1", "p2"

	memberships := []*types.Membership{
		{ID: "m1", UserID: user.ID, Type: "organization", OrganizationID: "o1", Order: 2},
		{ID: "m2", UserID: user.ID, Type: "organization", OrganizationID: "o2", Order: 1},
		{ID: "m3", UserID: user.ID, Type: "project", OrganizationID: "o1", ProjectID: &p1},
		{ID: "m4", UserID: user.ID, Type: "project", OrganizationID: "o1", ProjectID: &p2},
	}

	m.storage.EXPECT().ListMembershipsByUserID(gomock.Any(), user.ID).Return(memberships, nil)
	m.resolver.EXPECT().ResolveMany(gomock.Any(), entities.Organization, []string{"o1", "o2"}).Return(
		[]*types.Entity{{ID: "o1", Type: "organization"}, {ID: "o2", Type: "organization"}}, nil,
	)
	// p2 was deleted concurrently and must be skipped
	m.resolver.EXPECT().ResolveMany(gomock.Any(), entities.Project, []string{"p1", "p2"}).Return(
		[]*types.Entity{{ID: "p1", Type: "project"}}, nil,
	)

	menu, err := s.Menu(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orgs := menu[entities.Organization]
	if len(orgs) != 2 || orgs[0].Entity.ID != "o2" || orgs[1].Entity.ID != "o1" {
		t.Fatalf("organizations not ordered by membership order: %+v", orgs)
	}

	if len(menu[entities.Project]) != 1 || menu[entities.Project][0].Entity.ID != "p1" {
		t.Fatalf("unexpected projects %+v", menu[entities.Project])
	}

	if ws, ok := menu[entities.Workspace]; !ok || len(ws) != 0 {
		t.Fatalf("expected empty workspace section, got %+v", ws)
	}
}

func TestUserSlug(t *testing.T) {
	tests := map[string]string{
		"Ada.Lovelace@example.com": "ada-lovelace-",
		"__@example.com":           "user-",
	}

	for email, prefix := range tests {
		slug := UserSlug(email)
		if !strings.HasPrefix(slug, prefix) || len(slug) != len(prefix)+6 {
			t.Errorf("%s: unexpected slug %q", email, slug)
		}
	}
}
