// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// transactions outlive a cancelled request so the owner can still commit or roll back
const txTimeout = time.Minute

type lazyTxKey struct{}

// lazyTx begins its transaction on the first statement, requests that only read never open one
type lazyTx struct {
	db     *sql.DB
	tx     TxInterface
	cancel context.CancelFunc
	// err is kept once BeginTx failed, every later statement and the owner see it
	err error

	afterCommit []func()
}

func (lt *lazyTx) get() (TxInterface, error) {
	if lt.tx != nil {
		return lt.tx, nil
	}

	if lt.err != nil {
		return nil, lt.err
	}

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)

	tx, err := lt.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		cancel()
		lt.err = fmt.Errorf("failed to open transaction: %w", err)
		return nil, lt.err
	}

	lt.tx = tx
	lt.cancel = cancel

	return tx, nil
}

func (lt *lazyTx) commit() error {
	if lt.tx == nil {
		return nil
	}

	err := lt.tx.Commit()
	lt.tx = nil

	return err
}

func (lt *lazyTx) rollback() error {
	if lt.tx == nil {
		return nil
	}

	err := lt.tx.Rollback()
	lt.tx = nil

	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}

func (lt *lazyTx) release() {
	if lt.cancel != nil {
		lt.cancel()
	}
}

func lazyTxFromContext(ctx context.Context) *lazyTx {
	lt, _ := ctx.Value(lazyTxKey{}).(*lazyTx)
	return lt
}

// WithoutTx detaches ctx from its transaction, statements built from it run on the pool
// and survive a rollback
func WithoutTx(ctx context.Context) context.Context {
	if lazyTxFromContext(ctx) == nil {
		return ctx
	}

	return context.WithValue(ctx, lazyTxKey{}, (*lazyTx)(nil))
}

// InTx reports whether statements built from ctx join a transaction
func InTx(ctx context.Context) bool {
	return lazyTxFromContext(ctx) != nil
}

// WithTx runs fn inside a transaction and commits when it returns nil.
// Nested calls join the outer transaction, only the outermost call commits or rolls back.
// Hooks registered with AfterCommit run once the commit succeeded.
func (d *DBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if lazyTxFromContext(ctx) != nil {
		return fn(ctx)
	}

	lt := &lazyTx{db: d.db}
	defer lt.release()

	if err := fn(context.WithValue(ctx, lazyTxKey{}, lt)); err != nil {
		if rbErr := lt.rollback(); rbErr != nil {
			d.logger.Errorf("failed to rollback transaction: %v", rbErr)
		}

		return err
	}

	// fn may have swallowed the failure of a statement that never reached the database
	if lt.err != nil {
		return lt.err
	}

	if err := lt.commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	for _, hook := range lt.afterCommit {
		hook()
	}

	return nil
}

// AfterCommit defers fn until the transaction carried by ctx commits and drops it on rollback.
// Outside of WithTx fn runs right away.
func AfterCommit(ctx context.Context, fn func()) {
	lt := lazyTxFromContext(ctx)
	if lt == nil {
		fn()
		return
	}

	lt.afterCommit = append(lt.afterCommit, fn)
}

// failedRunner answers every statement with the error that prevented the transaction
// from opening
type failedRunner struct {
	err error
}

type failedRow struct {
	err error
}

func (r failedRow) Scan(...any) error {
	return r.err
}

func (f failedRunner) Exec(string, ...any) (sql.Result, error) {
	return nil, f.err
}

func (f failedRunner) Query(string, ...any) (*sql.Rows, error) {
	return nil, f.err
}

func (f failedRunner) QueryRow(string, ...any) sq.RowScanner {
	return failedRow(f)
}

func (f failedRunner) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, f.err
}

func (f failedRunner) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, f.err
}

func (f failedRunner) QueryRowContext(context.Context, string, ...any) sq.RowScanner {
	return failedRow(f)
}
