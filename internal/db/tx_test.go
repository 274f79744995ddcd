// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

func newTestClient(t *testing.T) (*DBClient, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := logging.NewNoopLogger()

	return NewDBClientWithDB(sqlDB, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger), mock
}

func touch(ctx context.Context, d *DBClient) error {
	_, err := d.Statement(ctx).
		Update("users").
		Set("last_seen_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": "user-1"}).
		ExecContext(ctx)

	return err
}

func TestWithTxCommitRunsHooks(t *testing.T) {
	d, mock := newTestClient(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET last_seen_at").WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var fired []string

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		if err := touch(ctx, d); err != nil {
			return err
		}

		AfterCommit(ctx, func() { fired = append(fired, "first") })
		AfterCommit(ctx, func() { fired = append(fired, "second") })

		assert.Empty(t, fired, "hooks must not run before commit")

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, fired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollbackDropsHooks(t *testing.T) {
	d, mock := newTestClient(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET last_seen_at").WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	fired := false
	boom := errors.New("boom")

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		if err := touch(ctx, d); err != nil {
			return err
		}

		AfterCommit(ctx, func() { fired = true })

		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, fired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxNestedJoinsOuter(t *testing.T) {
	d, mock := newTestClient(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET last_seen_at").WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET last_seen_at").WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		if err := touch(ctx, d); err != nil {
			return err
		}

		return d.WithTx(ctx, func(inner context.Context) error {
			return touch(inner, d)
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxNoStatementsNoTransaction(t *testing.T) {
	d, mock := newTestClient(t)

	fired := false
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		AfterCommit(ctx, func() { fired = true })
		return nil
	})

	require.NoError(t, err)
	assert.True(t, fired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAfterCommitWithoutTransaction(t *testing.T) {
	fired := false

	AfterCommit(context.Background(), func() { fired = true })

	assert.True(t, fired)
}

func TestWithTxBeginFailureStopsStatements(t *testing.T) {
	d, mock := newTestClient(t)

	refused := errors.New("too many connections")
	mock.ExpectBegin().WillReturnError(refused)

	calls := 0
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		calls++
		assert.ErrorIs(t, touch(ctx, d), refused)

		// a second statement does not retry, nor run on the pool
		var id string
		scanErr := d.Statement(ctx).Select("id").From("users").Where(sq.Eq{"id": "user-1"}).QueryRowContext(ctx).Scan(&id)
		assert.ErrorIs(t, scanErr, refused)

		return nil
	})

	assert.ErrorIs(t, err, refused)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithoutTxSurvivesRollback(t *testing.T) {
	d, mock := newTestClient(t)

	mock.ExpectExec("UPDATE users SET last_seen_at").WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET last_seen_at").WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTx(ctx))

		detached := WithoutTx(ctx)
		assert.False(t, InTx(detached))

		if err := touch(detached, d); err != nil {
			return err
		}

		if err := touch(ctx, d); err != nil {
			return err
		}

		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, context.Background(), WithoutTx(context.Background()))
}
