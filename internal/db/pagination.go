// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

const (
	DefaultPageSize uint64 = 100
	MaxPageSize     uint64 = 500
)

// PageSize clamps the requested size, anything not positive gets the default
func PageSize(size int64) uint64 {
	switch {
	case size <= 0:
		return DefaultPageSize
	case uint64(size) > MaxPageSize:
		return MaxPageSize
	default:
		return uint64(size)
	}
}

// Offset of the 1-based page, pages below 1 are the first one
func Offset(page int64, pageSize uint64) uint64 {
	if page <= 1 {
		return 0
	}

	return uint64(page-1) * pageSize
}
