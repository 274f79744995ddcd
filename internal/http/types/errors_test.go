// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/canonical/workspace-service/internal/logging"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantType     ErrorType
		wantSeverity Severity
		wantEntity   string
	}{
		{
			name:         "typed forbidden",
			err:          Forbidden("project"),
			wantStatus:   http.StatusForbidden,
			wantType:     ErrorForbidden,
			wantSeverity: SeverityWarn,
			wantEntity:   "project",
		},
		{
			name:         "wrapped not found",
			err:          fmt.Errorf("guard: %w", NotFound("")),
			wantStatus:   http.StatusNotFound,
			wantType:     ErrorNotFound,
			wantSeverity: SeverityWarn,
			wantEntity:   "unknown",
		},
		{
			name:         "untyped error",
			err:          errors.New("pq: relation does not exist"),
			wantStatus:   http.StatusInternalServerError,
			wantType:     ErrorServer,
			wantSeverity: SeverityError,
		},
		{
			name:         "last admin",
			err:          NewError(ErrorLastAdmin, ""),
			wantStatus:   http.StatusConflict,
			wantType:     ErrorLastAdmin,
			wantSeverity: SeverityInfo,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v0/projects/roadmap", nil)

			WriteError(rr, req, test.err, logging.NewNoopLogger())

			if rr.Code != test.wantStatus {
				t.Fatalf("expected status %d, got %d", test.wantStatus, rr.Code)
			}

			body := new(ErrorResponse)
			if err := json.Unmarshal(rr.Body.Bytes(), body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}

			if body.Type != test.wantType || body.Severity != test.wantSeverity || body.EntityType != test.wantEntity {
				t.Errorf("unexpected body %+v", body)
			}

			if body.LogID == "" || body.Path != "/api/v0/projects/roadmap" || body.Method != http.MethodGet {
				t.Errorf("missing correlation fields %+v", body)
			}

			if strings.Contains(rr.Body.String(), "relation does not exist") {
				t.Errorf("database text leaked into the response")
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Forbidden("task"))

	if !errors.Is(err, NewError(ErrorForbidden, "")) {
		t.Errorf("expected forbidden to match by type")
	}

	if errors.Is(err, NewError(ErrorNotFound, "")) {
		t.Errorf("forbidden must not match not_found")
	}
}
