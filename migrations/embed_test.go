// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedMigrations(t *testing.T) {
	files, err := fs.Glob(EmbedMigrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		raw, err := fs.ReadFile(EmbedMigrations, f)
		require.NoError(t, err)

		body := string(raw)
		assert.Contains(t, body, "-- +goose Up", f)
		assert.Contains(t, body, "-- +goose Down", f)
		assert.Equal(t, strings.Count(body, "StatementBegin"), strings.Count(body, "StatementEnd"), f)
	}
}
