// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/types"
)

var tokenColumns = []string{
	"id", "type", "email", "user_id", "organization_id", "role", "expires_at", "created_at", "created_by",
}

func tokenTargets(t *types.Token) []any {
	return []any{&t.ID, &t.Type, &t.Email, &t.UserID, &t.OrganizationID, &t.Role, &t.ExpiresAt, &t.CreatedAt, &t.CreatedBy}
}

func (s *Storage) CreateToken(ctx context.Context, t *types.Token) (*types.Token, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CreateToken")
	defer span.End()

	var role *string
	if t.Role != nil {
		r := string(*t.Role)
		role = &r
	}

	created := new(types.Token)
	err := s.db.Statement(ctx).
		Insert("tokens").
		Columns("id", "type", "email", "user_id", "organization_id", "role", "expires_at", "created_by").
		Values(t.ID, string(t.Type), strings.ToLower(t.Email), t.UserID, t.OrganizationID, role, t.ExpiresAt, t.CreatedBy).
		Suffix("RETURNING "+strings.Join(tokenColumns, ", ")).
		QueryRowContext(ctx).
		Scan(tokenTargets(created)...)

	if err != nil {
		return nil, wrap(err, "failed to insert token")
	}

	return created, nil
}

func (s *Storage) GetToken(ctx context.Context, id string) (*types.Token, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetToken")
	defer span.End()

	t := new(types.Token)
	err := s.db.Statement(ctx).
		Select(tokenColumns...).
		From("tokens").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(tokenTargets(t)...)

	if err != nil {
		return nil, wrap(err, "failed to get token")
	}

	return t, nil
}

// DeleteToken returns ErrNotFound when the token was already consumed
func (s *Storage) DeleteToken(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeleteToken")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("tokens").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return wrap(err, "failed to delete token")
	}

	return expectAffected(res)
}

// DeleteTokensFor removes the tokens of a type issued to the user or to the email,
// invitations are further scoped to their organization
func (s *Storage) DeleteTokensFor(ctx context.Context, tokenType types.TokenType, userID *string, email string, organizationID *string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeleteTokensFor")
	defer span.End()

	owner := sq.Or{sq.Eq{"email": strings.ToLower(email)}}
	if userID != nil {
		owner = append(owner, sq.Eq{"user_id": *userID})
	}

	q := s.db.Statement(ctx).
		Delete("tokens").
		Where(sq.Eq{"type": string(tokenType)}).
		Where(owner)

	if organizationID != nil {
		q = q.Where(sq.Eq{"organization_id": *organizationID})
	}

	res, err := q.ExecContext(ctx)

	if err != nil {
		return 0, wrap(err, "failed to delete tokens")
	}

	return res.RowsAffected()
}

func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeleteExpiredTokens")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("tokens").
		Where(sq.LtOrEq{"expires_at": now}).
		ExecContext(ctx)

	if err != nil {
		return 0, wrap(err, "failed to delete expired tokens")
	}

	return res.RowsAffected()
}
