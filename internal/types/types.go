// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// SystemRole is the global role of a user, independent of memberships
type SystemRole string

const (
	SystemRoleUser  SystemRole = "user"
	SystemRoleAdmin SystemRole = "admin"
)

// Role is the role held through a membership
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type User struct {
	ID             string     `db:"id" json:"id"`
	Slug           string     `db:"slug" json:"slug"`
	Email          string     `db:"email" json:"email"`
	Name           string     `db:"name" json:"name"`
	Role           SystemRole `db:"role" json:"role"`
	HashedPassword *string    `db:"hashed_password" json:"-"`
	EmailVerified  bool       `db:"email_verified" json:"emailVerified"`
	Language       string     `db:"language" json:"language"`
	LastSeenAt     *time.Time `db:"last_seen_at" json:"lastSeenAt,omitempty"`
	LastSignInAt   *time.Time `db:"last_sign_in_at" json:"lastSignInAt,omitempty"`
	LastVisitAt    *time.Time `db:"last_visit_at" json:"lastVisitAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	ModifiedAt     *time.Time `db:"modified_at" json:"modifiedAt,omitempty"`
}

func (u *User) IsSystemAdmin() bool {
	return u != nil && u.Role == SystemRoleAdmin
}

// Entity is the common shape of every stored resource, parent pointers are set
// only for the types that carry them
type Entity struct {
	ID             string     `db:"id" json:"id"`
	Type           string     `db:"-" json:"entity"`
	Slug           string     `db:"slug" json:"slug,omitempty"`
	Name           string     `db:"name" json:"name"`
	OrganizationID *string    `db:"organization_id" json:"organizationId,omitempty"`
	ProjectID      *string    `db:"project_id" json:"projectId,omitempty"`
	ParentID       *string    `db:"parent_id" json:"parentId,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	CreatedBy      *string    `db:"created_by" json:"createdBy,omitempty"`
	ModifiedAt     *time.Time `db:"modified_at" json:"modifiedAt,omitempty"`
	ModifiedBy     *string    `db:"modified_by" json:"modifiedBy,omitempty"`
}

type Membership struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"userId"`
	Type           string     `db:"type" json:"type"`
	OrganizationID string     `db:"organization_id" json:"organizationId"`
	WorkspaceID    *string    `db:"workspace_id" json:"workspaceId,omitempty"`
	ProjectID      *string    `db:"project_id" json:"projectId,omitempty"`
	Role           Role       `db:"role" json:"role"`
	Archived       bool       `db:"archived" json:"archived"`
	Muted          bool       `db:"muted" json:"muted"`
	Order          float64    `db:"display_order" json:"order"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	CreatedBy      *string    `db:"created_by" json:"createdBy,omitempty"`
	ModifiedAt     *time.Time `db:"modified_at" json:"modifiedAt,omitempty"`
	ModifiedBy     *string    `db:"modified_by" json:"modifiedBy,omitempty"`
}

// ContextID returns the id of the entity the membership points at
func (m *Membership) ContextID() string {
	switch {
	case m.ProjectID != nil:
		return *m.ProjectID
	case m.WorkspaceID != nil:
		return *m.WorkspaceID
	default:
		return m.OrganizationID
	}
}

// MembershipPatch holds the mutable fields of a membership, nil means unchanged
type MembershipPatch struct {
	Role     *Role
	Archived *bool
	Muted    *bool
	Order    *float64
}

func (p MembershipPatch) Empty() bool {
	return p.Role == nil && p.Archived == nil && p.Muted == nil && p.Order == nil
}

// MembershipCounts is the aggregate of memberships on a context entity, Members counts everyone
type MembershipCounts struct {
	Admins  int `json:"admins"`
	Members int `json:"members"`
}

type TokenType string

const (
	TokenTypeEmailVerification TokenType = "email_verification"
	TokenTypePasswordReset     TokenType = "password_reset"
	TokenTypeInvitation        TokenType = "invitation"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeEmailVerification, TokenTypePasswordReset, TokenTypeInvitation:
		return true
	}
	return false
}

type Token struct {
	ID             string    `db:"id" json:"-"`
	Type           TokenType `db:"type" json:"type"`
	Email          string    `db:"email" json:"email"`
	UserID         *string   `db:"user_id" json:"userId,omitempty"`
	OrganizationID *string   `db:"organization_id" json:"organizationId,omitempty"`
	Role           *Role     `db:"role" json:"role,omitempty"`
	ExpiresAt      time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	CreatedBy      *string   `db:"created_by" json:"createdBy,omitempty"`
}

func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Member is a membership joined with the public fields of its user
type Member struct {
	Membership *Membership `json:"membership"`
	User       *User       `json:"user"`
}
