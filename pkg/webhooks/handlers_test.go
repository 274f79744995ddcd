// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

const identityBody = `{
	"id": "identity-123",
	"schema_id": "default",
	"state": "active",
	"traits": {"email": "ada@example.com", "name": "Ada"}
}`

func TestAPI_Registration(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		body           string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
		expectedError  httptypes.ErrorType
	}{
		{
			name: "provisions a new identity",
			key:  "secret",
			body: identityBody,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), Identity{ID: "identity-123", Traits: IdentityTraits{Email: "ada@example.com", Name: "Ada"}}).
					Return(&Registration{User: &types.User{ID: "user-1"}, Organization: &types.Entity{ID: "org-1"}, Created: true}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "redelivery of a known identity",
			key:  "secret",
			body: identityBody,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).Return(&Registration{User: &types.User{ID: "user-1"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing key",
			body:           identityBody,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  httptypes.ErrorUnauthorized,
		},
		{
			name:           "wrong key",
			key:            "guess",
			body:           identityBody,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  httptypes.ErrorUnauthorized,
		},
		{
			name:           "invalid request body",
			key:            "secret",
			body:           "not-json",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidRequest,
		},
		{
			name:           "invalid email",
			key:            "secret",
			body:           `{"id":"identity-123","traits":{"email":"nope"}}`,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidRequest,
		},
		{
			name: "service error",
			key:  "secret",
			body: identityBody,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockService)

			logger := logging.NewNoopLogger()
			api := NewAPI(mockService, "secret", validation.NewValidator(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

			r := chi.NewRouter()
			api.RegisterEndpoints(r)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/registration", strings.NewReader(tt.body))
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedError != "" {
				var payload struct {
					Type httptypes.ErrorType `json:"type"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
				assert.Equal(t, tt.expectedError, payload.Type)
			}
		})
	}
}

func TestAPI_DisabledWithoutKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := logging.NewNoopLogger()
	api := NewAPI(NewMockServiceInterface(ctrl), "", validation.NewValidator(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	r := chi.NewRouter()
	api.RegisterEndpoints(r)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/registration", strings.NewReader(identityBody))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
