// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package entity

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Acme Corp", want: "acme-corp"},
		{name: "  Équipe Été  ", want: "equipe-ete"},
		{name: "R&D / 2026", want: "r-d-2026"},
		{name: "---", want: ""},
		{name: strings.Repeat("a", 150), want: strings.Repeat("a", 100)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Slugify(test.name); got != test.want {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}
