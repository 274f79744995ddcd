// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/canonical/workspace-service/internal/http/types"
)

type inviteRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
	Role   string   `json:"role" validate:"required,oneof=admin member"`
	Slug   string   `json:"slug,omitempty" validate:"omitempty,slug"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "valid", body: `{"emails":["b@x.com"],"role":"member"}`},
		{name: "empty body", body: ``, wantMsg: "request body is empty"},
		{name: "malformed", body: `{"emails":`, wantMsg: "malformed request body"},
		{name: "unknown field", body: `{"emails":["b@x.com"],"role":"member","admin":true}`, wantMsg: "malformed request body"},
		{name: "bad role", body: `{"emails":["b@x.com"],"role":"owner"}`, wantMsg: "role must be one of [admin member]"},
		{name: "bad email", body: `{"emails":["nope"],"role":"member"}`, wantMsg: "emails[0] must be a valid email"},
		{name: "bad slug", body: `{"emails":["b@x.com"],"role":"member","slug":"Not A Slug"}`, wantMsg: "slug must contain lowercase letters, digits and dashes only"},
	}

	v := NewValidator()

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(test.body))

			err := v.DecodeJSON(req, new(inviteRequest))

			if test.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var e *types.Error
			if !errors.As(err, &e) {
				t.Fatalf("expected typed error, got %v", err)
			}

			if e.Type != types.ErrorInvalidRequest || e.Status != http.StatusBadRequest {
				t.Errorf("expected invalid_request 400, got %s %d", e.Type, e.Status)
			}

			if e.Message != test.wantMsg {
				t.Errorf("expected message %q, got %q", test.wantMsg, e.Message)
			}
		})
	}
}

func TestDecodeJSONTooLarge(t *testing.T) {
	padding := strings.Repeat("a", int(MaxBodySize))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"emails":["b@x.com"],"role":"`+padding+`"}`))

	err := NewValidator().DecodeJSON(req, new(inviteRequest))

	var e *types.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected typed error, got %v", err)
	}

	if e.Type != types.ErrorPayloadTooLarge || e.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("expected payload_too_large 413, got %s %d", e.Type, e.Status)
	}
}
