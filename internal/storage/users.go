// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/types"
)

// UserTimestamp names one of the login bookkeeping columns
type UserTimestamp string

const (
	LastSeenAt   UserTimestamp = "last_seen_at"
	LastSignInAt UserTimestamp = "last_sign_in_at"
	LastVisitAt  UserTimestamp = "last_visit_at"
)

var userColumns = []string{
	"id", "slug", "email", "name", "role", "hashed_password", "email_verified", "language",
	"last_seen_at", "last_sign_in_at", "last_visit_at", "created_at", "modified_at",
}

func userTargets(u *types.User) []any {
	return []any{
		&u.ID, &u.Slug, &u.Email, &u.Name, &u.Role, &u.HashedPassword, &u.EmailVerified, &u.Language,
		&u.LastSeenAt, &u.LastSignInAt, &u.LastVisitAt, &u.CreatedAt, &u.ModifiedAt,
	}
}

func (s *Storage) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CreateUser")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	role := u.Role
	if role == "" {
		role = types.SystemRoleUser
	}

	language := u.Language
	if language == "" {
		language = "en"
	}

	created := new(types.User)
	err = s.db.Statement(ctx).
		Insert("users").
		Columns("id", "slug", "email", "name", "role", "hashed_password", "email_verified", "language").
		Values(id, u.Slug, strings.ToLower(u.Email), u.Name, string(role), u.HashedPassword, u.EmailVerified, language).
		Suffix("RETURNING "+strings.Join(userColumns, ", ")).
		QueryRowContext(ctx).
		Scan(userTargets(created)...)

	if err != nil {
		return nil, wrap(err, "failed to insert user")
	}

	return created, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetUserByID")
	defer span.End()

	if !isUUID(id) {
		return nil, ErrNotFound
	}

	return s.getUser(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetUserByEmail")
	defer span.End()

	return s.getUser(ctx, sq.Eq{"email": strings.ToLower(email)})
}

func (s *Storage) getUser(ctx context.Context, where sq.Eq) (*types.User, error) {
	u := new(types.User)
	err := s.db.Statement(ctx).
		Select(userColumns...).
		From("users").
		Where(where).
		QueryRowContext(ctx).
		Scan(userTargets(u)...)

	if err != nil {
		return nil, wrap(err, "failed to get user")
	}

	return u, nil
}

func (s *Storage) UpdateUserPassword(ctx context.Context, id, hashedPassword string) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.UpdateUserPassword")
	defer span.End()

	return s.updateUser(ctx, id, map[string]any{"hashed_password": hashedPassword})
}

func (s *Storage) MarkEmailVerified(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.MarkEmailVerified")
	defer span.End()

	return s.updateUser(ctx, id, map[string]any{"email_verified": true})
}

// TouchUser bumps one bookkeeping timestamp, it does not count as a modification
func (s *Storage) TouchUser(ctx context.Context, id string, field UserTimestamp) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.TouchUser")
	defer span.End()

	switch field {
	case LastSeenAt, LastSignInAt, LastVisitAt:
	default:
		return fmt.Errorf("unknown user timestamp %q", field)
	}

	res, err := s.db.Statement(ctx).
		Update("users").
		Set(string(field), sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return wrap(err, "failed to touch user")
	}

	return expectAffected(res)
}

func (s *Storage) updateUser(ctx context.Context, id string, values map[string]any) error {
	if !isUUID(id) {
		return ErrNotFound
	}

	res, err := s.db.Statement(ctx).
		Update("users").
		SetMap(values).
		Set("modified_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return wrap(err, "failed to update user")
	}

	return expectAffected(res)
}

func expectAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}
