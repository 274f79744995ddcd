// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageSize(t *testing.T) {
	for size, want := range map[int64]uint64{-1: DefaultPageSize, 0: DefaultPageSize, 5: 5, 200: 200, 5000: MaxPageSize} {
		assert.Equal(t, want, PageSize(size), size)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, uint64(0), Offset(-3, 10))
	assert.Equal(t, uint64(0), Offset(0, 10))
	assert.Equal(t, uint64(0), Offset(1, 10))
	assert.Equal(t, uint64(20), Offset(3, 10))
}
