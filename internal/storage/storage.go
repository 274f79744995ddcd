// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"github.com/google/uuid"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db       db.DBClientInterface
	registry *entities.Registry

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, registry *entities.Registry, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c
	s.registry = registry

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

// rowScanner is the subset of *sql.Rows the scan helpers need
type rowScanner interface {
	Next() bool
	Scan(...any) error
	Err() error
}

// isUUID guards id columns, postgres rejects a non uuid literal instead of not matching it
func isUUID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// splitIDs separates well formed ids from the ones that can never match a row
func splitIDs(ids []string) ([]string, []string) {
	valid := make([]string, 0, len(ids))
	invalid := make([]string, 0)

	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}

	return valid, invalid
}
