// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateArgs(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{args: nil},
		{args: []string{"up"}},
		{args: []string{"status"}},
		{args: []string{"check"}},
		{args: []string{"down"}},
		{args: []string{"down", "3"}},
		{args: []string{"down", "-1"}, wantErr: true},
		{args: []string{"down", "x"}, wantErr: true},
		{args: []string{"up", "3"}, wantErr: true},
		{args: []string{"sideways"}, wantErr: true},
		{args: []string{"down", "1", "2"}, wantErr: true},
	}

	validate := customValidArgs()

	for _, tt := range tests {
		err := validate(migrateCmd, tt.args)
		if tt.wantErr {
			assert.Error(t, err, tt.args)
		} else {
			assert.NoError(t, err, tt.args)
		}
	}
}
