// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors, match them with errors.Is
var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// PostgreSQL error codes
const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
)

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// IsDuplicateKeyError reports a unique constraint violation, like a taken slug or email
func IsDuplicateKeyError(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgErrCodeUniqueViolation
}

// IsForeignKeyViolation reports a reference to a missing row, like a deleted parent entity
func IsForeignKeyViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgErrCodeForeignKeyViolation
}

// DuplicateConstraint returns the name of the violated unique constraint, empty if err is not one
func DuplicateConstraint(err error) string {
	if !IsDuplicateKeyError(err) {
		return ""
	}
	return pgError(err).ConstraintName
}

// isNoRows covers both database/sql and native pgx rows errors
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

// wrap maps driver errors onto the storage sentinels, keeping the original as context
func wrap(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case isNoRows(err):
		return ErrNotFound
	case IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrDuplicateKey, err))
	case IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrForeignKeyViolation, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
