// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"net/http"
	"time"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
)

type TokenVerifierInterface interface {
	// VerifyToken verifies a raw JWT string and returns the identity claims it carries
	VerifyToken(ctx context.Context, rawToken string) (*Claims, error)
}

type SessionValidatorInterface interface {
	Validate(ctx context.Context, cookieValue string) (*types.Session, *types.User, error)
	Create(ctx context.Context, userID string) (string, *types.Session, error)
	Invalidate(ctx context.Context, cookieValue string) error
	Cookie(value string, expires time.Time) *http.Cookie
	ReadCookie(r *http.Request) (string, bool)
}

type ServiceInterface interface {
	SignUp(ctx context.Context, email, password, name string) (*types.User, error)
	SignIn(ctx context.Context, email, password string) (string, *types.Session, error)
	SignOut(ctx context.Context, cookieValue string) error
	Me(ctx context.Context, user *types.User) (*Profile, error)
	Menu(ctx context.Context, user *types.User) (Menu, error)
}

// TokenIssuerInterface issues the email verification token after sign-up
type TokenIssuerInterface interface {
	IssueEmailVerification(ctx context.Context, user *types.User) error
}

type ResolverInterface interface {
	ResolveMany(ctx context.Context, entityType entities.Type, ids []string) ([]*types.Entity, error)
}

type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	TouchUser(ctx context.Context, id string, field storage.UserTimestamp) error
	ListMembershipsByUserID(ctx context.Context, userID string) ([]*types.Membership, error)

	CreateSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, id string) (*types.Session, error)
	DeleteSession(ctx context.Context, id string) error
}
