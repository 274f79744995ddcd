// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"encoding/json"
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
	"github.com/canonical/workspace-service/pkg/authentication"
)

func newTestRouter(service ServiceInterface, caller *types.User) *chi.Mux {
	logger := logging.NewNoopLogger()
	api := NewAPI(service, validation.NewValidator(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if caller != nil {
				req = req.WithContext(authentication.WithUser(req.Context(), caller))
			}
			next.ServeHTTP(w, req)
		})
	})
	api.RegisterEndpoints(r)

	return r
}

func TestAPI_Endpoints(t *testing.T) {
	caller := &types.User{ID: inviteeID, Email: "b@x.com"}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		caller         *types.User
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
		expectedError  httptypes.ErrorType
	}{
		{
			name:   "check invitation",
			method: http.MethodGet,
			path:   "/tokens/tok?type=invitation",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Check(gomock.Any(), "tok", types.TokenTypeInvitation).Return(&TokenInfo{Type: types.TokenTypeInvitation, Email: "b@x.com"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "check needs a valid type",
			method:         http.MethodGet,
			path:           "/tokens/tok?type=magic",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidRequest,
		},
		{
			name:   "check expired",
			method: http.MethodGet,
			path:   "/tokens/tok?type=password_reset",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Check(gomock.Any(), "tok", types.TokenTypePasswordReset).Return(nil, httptypes.NewError(httptypes.ErrorInvalidTokenOrExpired, ""))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  httptypes.ErrorInvalidTokenOrExpired,
		},
		{
			name:   "accept as new user",
			method: http.MethodPost,
			path:   "/invitation/tok/accept",
			body:   `{"name":"Bea","password":"secret-password"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), "tok", AcceptInput{Name: "Bea", Password: "secret-password"}, gomock.Nil()).
					Return(&Acceptance{NewUser: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "accept as signed in user without body",
			method: http.MethodPost,
			path:   "/invitation/tok/accept",
			caller: caller,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), "tok", AcceptInput{}, caller).Return(&Acceptance{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "accept with a short password",
			method:         http.MethodPost,
			path:           "/invitation/tok/accept",
			body:           `{"name":"Bea","password":"short"}`,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidRequest,
		},
		{
			name:   "accept a used token",
			method: http.MethodPost,
			path:   "/invitation/tok/accept",
			body:   `{}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), "tok", AcceptInput{}, gomock.Nil()).Return(nil, httptypes.NewError(httptypes.ErrorInvalidToken, ""))
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidToken,
		},
		{
			name:   "reject",
			method: http.MethodPost,
			path:   "/invitation/tok/reject",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Reject(gomock.Any(), "tok").Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "resend",
			method: http.MethodPost,
			path:   "/tokens/tok/resend",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Resend(gomock.Any(), "tok").Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "verify email",
			method: http.MethodPost,
			path:   "/auth/verify-email/tok",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().VerifyEmail(gomock.Any(), "tok").Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "request password",
			method: http.MethodPost,
			path:   "/auth/request-password",
			body:   `{"email":"b@x.com"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().RequestPasswordReset(gomock.Any(), "b@x.com").Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "request password needs an email",
			method:         http.MethodPost,
			path:           "/auth/request-password",
			body:           `{"email":"nope"}`,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidRequest,
		},
		{
			name:   "reset password",
			method: http.MethodPost,
			path:   "/auth/reset-password/tok",
			body:   `{"password":"new-secret-password"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ResetPassword(gomock.Any(), "tok", "new-secret-password").Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockServiceInterface(ctrl)
			tt.setupMocks(service)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()

			newTestRouter(service, tt.caller).ServeHTTP(w, req)

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
