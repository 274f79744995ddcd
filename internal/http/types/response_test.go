// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query   string
		want    Pagination
		wantErr bool
	}{
		{query: "", want: Pagination{}},
		{query: "?page=2&size=50", want: Pagination{Page: 2, Size: 50}},
		{query: "?size=10", want: Pagination{Size: 10}},
		{query: "?page=abc", wantErr: true},
		{query: "?page=-1", wantErr: true},
		{query: "?size=501", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.query, func(t *testing.T) {
			p, err := ParsePagination(httptest.NewRequest("GET", "/members"+test.query, nil))

			if test.wantErr {
				if !errors.Is(err, InvalidRequest("")) {
					t.Fatalf("expected invalid_request, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if *p != test.want {
				t.Errorf("expected %+v, got %+v", test.want, *p)
			}
		})
	}
}
