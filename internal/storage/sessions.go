// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/types"
)

func (s *Storage) CreateSession(ctx context.Context, session *types.Session) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CreateSession")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("sessions").
		Columns("id", "user_id", "expires_at").
		Values(session.ID, session.UserID, session.ExpiresAt).
		ExecContext(ctx)

	return wrap(err, "failed to insert session")
}

func (s *Storage) GetSession(ctx context.Context, id string) (*types.Session, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetSession")
	defer span.End()

	session := new(types.Session)
	err := s.db.Statement(ctx).
		Select("id", "user_id", "expires_at", "created_at").
		From("sessions").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)

	if err != nil {
		return nil, wrap(err, "failed to get session")
	}

	return session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeleteSession")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("sessions").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	return wrap(err, "failed to delete session")
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeleteExpiredSessions")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("sessions").
		Where(sq.LtOrEq{"expires_at": now}).
		ExecContext(ctx)

	if err != nil {
		return 0, wrap(err, "failed to delete expired sessions")
	}

	return res.RowsAffected()
}
