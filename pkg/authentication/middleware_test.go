// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_authentication.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestMiddleware_Authenticate(t *testing.T) {
	user := &types.User{ID: "0190f5a4-0000-7000-8000-0000000000a1", Email: "ada@example.com"}

	tests := []struct {
		name           string
		withVerifier   bool
		setupRequest   func(*http.Request)
		setupMocks     func(*MockSessionValidatorInterface, *MockTokenVerifierInterface, *MockStorageInterface)
		expectedStatus int
	}{
		{
			name:         "valid session cookie",
			setupRequest: func(r *http.Request) {},
			setupMocks: func(sv *MockSessionValidatorInterface, _ *MockTokenVerifierInterface, s *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("cookie", true)
				sv.EXPECT().Validate(gomock.Any(), "cookie").Return(&types.Session{UserID: user.ID}, user, nil)
				s.EXPECT().TouchUser(gomock.Any(), user.ID, storage.LastSeenAt).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:         "touch failure does not fail the request",
			setupRequest: func(r *http.Request) {},
			setupMocks: func(sv *MockSessionValidatorInterface, _ *MockTokenVerifierInterface, s *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("cookie", true)
				sv.EXPECT().Validate(gomock.Any(), "cookie").Return(&types.Session{UserID: user.ID}, user, nil)
				s.EXPECT().TouchUser(gomock.Any(), user.ID, storage.LastSeenAt).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:         "invalid session cookie",
			setupRequest: func(r *http.Request) {},
			setupMocks: func(sv *MockSessionValidatorInterface, _ *MockTokenVerifierInterface, _ *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("cookie", true)
				sv.EXPECT().Validate(gomock.Any(), "cookie").Return(nil, nil, ErrInvalidSession)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:         "session storage failure",
			setupRequest: func(r *http.Request) {},
			setupMocks: func(sv *MockSessionValidatorInterface, _ *MockTokenVerifierInterface, _ *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("cookie", true)
				sv.EXPECT().Validate(gomock.Any(), "cookie").Return(nil, nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:         "no credentials",
			setupRequest: func(r *http.Request) {},
			setupMocks: func(sv *MockSessionValidatorInterface, _ *MockTokenVerifierInterface, _ *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("", false)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "bearer token without verifier",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer token")
			},
			setupMocks: func(sv *MockSessionValidatorInterface, _ *MockTokenVerifierInterface, _ *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("", false)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:         "valid bearer token",
			withVerifier: true,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer token")
			},
			setupMocks: func(sv *MockSessionValidatorInterface, v *MockTokenVerifierInterface, s *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("", false)
				v.EXPECT().VerifyToken(gomock.Any(), "token").Return(&Claims{Subject: "sub", Email: user.Email, EmailVerified: true}, nil)
				s.EXPECT().GetUserByEmail(gomock.Any(), user.Email).Return(user, nil)
				s.EXPECT().TouchUser(gomock.Any(), user.ID, storage.LastSeenAt).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:         "bearer token for unknown user",
			withVerifier: true,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer token")
			},
			setupMocks: func(sv *MockSessionValidatorInterface, v *MockTokenVerifierInterface, s *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("", false)
				v.EXPECT().VerifyToken(gomock.Any(), "token").Return(&Claims{Email: "ghost@example.com", EmailVerified: true}, nil)
				s.EXPECT().GetUserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:         "invalid bearer token",
			withVerifier: true,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer token")
			},
			setupMocks: func(sv *MockSessionValidatorInterface, v *MockTokenVerifierInterface, _ *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("", false)
				v.EXPECT().VerifyToken(gomock.Any(), "token").Return(nil, errors.New("expired"))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:         "non bearer authorization header",
			withVerifier: true,
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
			},
			setupMocks: func(sv *MockSessionValidatorInterface, _ *MockTokenVerifierInterface, _ *MockStorageInterface) {
				sv.EXPECT().ReadCookie(gomock.Any()).Return("", false)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSessions := NewMockSessionValidatorInterface(ctrl)
			mockVerifier := NewMockTokenVerifierInterface(ctrl)
			mockStorage := NewMockStorageInterface(ctrl)
			logger := logging.NewNoopLogger()

			tt.setupMocks(mockSessions, mockVerifier, mockStorage)

			var verifier TokenVerifierInterface
			if tt.withVerifier {
				verifier = mockVerifier
			}

			m := NewMiddleware(mockSessions, verifier, mockStorage, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

			var seen *types.User
			handler := m.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetUser(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v0/me", nil)
			tt.setupRequest(req)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}

			if tt.expectedStatus == http.StatusOK && seen != user {
				t.Fatalf("expected user in context, got %v", seen)
			}
		})
	}
}

func TestMiddleware_AuthenticateLogsInvalidSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := NewMockSessionValidatorInterface(ctrl)
	mockStorage := NewMockStorageInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)
	mockSecurity := NewMockSecurityLoggerInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), "authentication.Middleware.Authenticate").Return(context.Background(), trace.SpanFromContext(context.Background()))
	mockSessions.EXPECT().ReadCookie(gomock.Any()).Return("stale", true)
	mockSessions.EXPECT().Validate(gomock.Any(), "stale").Return(nil, nil, ErrInvalidSession)
	mockLogger.EXPECT().Security().Return(mockSecurity)
	mockSecurity.EXPECT().AuthnTokenInvalid("session")
	mockLogger.EXPECT().Infow(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warnw(gomock.Any(), gomock.Any()).AnyTimes()

	m := NewMiddleware(mockSessions, nil, mockStorage, mockTracer, mockMonitor, mockLogger)

	handler := m.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v0/me", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestMiddleware_OptionalAuthenticate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := &types.User{ID: "0190f5a4-0000-7000-8000-0000000000a1"}
	mockSessions := NewMockSessionValidatorInterface(ctrl)
	logger := logging.NewNoopLogger()

	m := NewMiddleware(mockSessions, nil, NewMockStorageInterface(ctrl), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	var seen *types.User
	handler := m.OptionalAuthenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUser(r.Context())
	}))

	mockSessions.EXPECT().ReadCookie(gomock.Any()).Return("", false)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen != nil {
		t.Fatalf("expected anonymous request, got %v", seen)
	}

	mockSessions.EXPECT().ReadCookie(gomock.Any()).Return("cookie", true)
	mockSessions.EXPECT().Validate(gomock.Any(), "cookie").Return(&types.Session{}, user, nil)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen != user {
		t.Fatalf("expected user, got %v", seen)
	}
}

func TestMiddleware_getBearerToken(t *testing.T) {
	m := new(Middleware)

	tests := []struct {
		header string
		token  string
		found  bool
	}{
		{header: "", found: false},
		{header: "Bearer abc", token: "abc", found: true},
		{header: "bearer abc", found: false},
		{header: "Token abc", found: false},
	}

	for _, tt := range tests {
		h := http.Header{}
		if tt.header != "" {
			h.Set("Authorization", tt.header)
		}

		token, found := m.getBearerToken(h)
		if token != tt.token || found != tt.found {
			t.Errorf("header %q: expected (%q, %v), got (%q, %v)", tt.header, tt.token, tt.found, token, found)
		}
	}
}
