// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package entity

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

	"github.com/canonical/workspace-service/internal/entities"
	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/guard"
	"github.com/canonical/workspace-service/pkg/permissions"
)

// scopeGuard stands in for the access guard: it resolves nothing, the entity and its
// ancestors are built from the route and the fixed organization
type scopeGuard struct {
	user *types.User
}

func (g *scopeGuard) RequireAccess(entityType entities.Type, _ permissions.Action, idParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := &guard.Scope{User: g.user, Subject: permissions.Subject{Type: entityType, Ancestors: []entities.ContextRef{orgRef}}}

			if id := chi.URLParam(r, idParam); idParam != "" && id != "" {
				scope.Entity = &types.Entity{ID: id, Type: string(entityType), OrganizationID: strPtr(orgID)}
				scope.Subject.ID = id
			}

			next.ServeHTTP(w, r.WithContext(guard.WithScope(r.Context(), scope)))
		})
	}
}

func (g *scopeGuard) LoadMemberships() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(guard.WithScope(r.Context(), &guard.Scope{User: g.user})))
		})
	}
}

func newTestRouter(service ServiceInterface, user *types.User) *chi.Mux {
	logger := logging.NewNoopLogger()
	api := NewAPI(service, &scopeGuard{user: user}, entities.DefaultRegistry(), validation.NewValidator(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	r := chi.NewRouter()
	api.RegisterEndpoints(r)

	return r
}

func TestAPI_Endpoints(t *testing.T) {
	user := &types.User{ID: userID}
	caller := Caller{User: user}
	name := "Apollo 11"

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
		expectedError  httptypes.ErrorType
	}{
		{
			name:   "create organization",
			method: http.MethodPost,
			path:   "/organizations",
			body:   `{"name":"Acme","slug":"acme"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Create(gomock.Any(), user, entities.Organization, gomock.Nil(), CreateInput{Name: "Acme", Slug: "acme"}).
					Return(&types.Entity{ID: orgID, Type: "organization", Name: "Acme", Slug: "acme"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:   "create project under an organization",
			method: http.MethodPost,
			path:   "/projects",
			body:   `{"name":"Apollo","organizationId":"` + orgID + `"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Create(gomock.Any(), user, entities.Project, []entities.ContextRef{orgRef}, CreateInput{Name: "Apollo"}).
					Return(&types.Entity{ID: projectID, Type: "project"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "create with an invalid slug",
			method:         http.MethodPost,
			path:           "/organizations",
			body:           `{"name":"Acme","slug":"Not A Slug"}`,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidRequest,
		},
		{
			name:   "create with a taken slug",
			method: http.MethodPost,
			path:   "/organizations",
			body:   `{"name":"Acme"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Create(gomock.Any(), user, entities.Organization, gomock.Any(), gomock.Any()).
					Return(nil, httptypes.NewError(httptypes.ErrorSlugExists, "").WithEntity("organization"))
			},
			expectedStatus: http.StatusConflict,
			expectedError:  httptypes.ErrorSlugExists,
		},
		{
			name:           "get project",
			method:         http.MethodGet,
			path:           "/projects/" + projectID,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "rename project",
			method: http.MethodPatch,
			path:   "/projects/" + projectID,
			body:   `{"name":"Apollo 11"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Update(gomock.Any(), user, gomock.Any(), gomock.Any(), storage.EntityPatch{Name: &name}).
					Return(&types.Entity{ID: projectID, Type: "project", Name: name}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "delete project",
			method: http.MethodDelete,
			path:   "/projects/" + projectID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Delete(gomock.Any(), caller, entities.Project, []string{projectID}).
					Return(&DeleteResult{Deleted: []string{projectID}}, nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "delete project already gone",
			method: http.MethodDelete,
			path:   "/projects/" + projectID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Delete(gomock.Any(), caller, entities.Project, []string{projectID}).
					Return(&DeleteResult{Errors: []httptypes.BatchError{{ID: projectID, Type: httptypes.ErrorNotFound}}}, nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  httptypes.ErrorNotFound,
		},
		{
			name:   "batch delete",
			method: http.MethodDelete,
			path:   "/tasks?ids=" + taskID + ",other",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Delete(gomock.Any(), caller, entities.Task, []string{taskID, "other"}).
					Return(&DeleteResult{Deleted: []string{taskID}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "batch delete without ids",
			method:         http.MethodDelete,
			path:           "/tasks",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  httptypes.ErrorInvalidRequest,
		},
		{
			name:   "check slug",
			method: http.MethodGet,
			path:   "/workspaces/check-slug/design",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().SlugAvailable(gomock.Any(), entities.Workspace, "design").Return(true, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "tasks have no slug",
			method:         http.MethodGet,
			path:           "/tasks/check-slug/design",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockServiceInterface(ctrl)
			tt.setupMocks(service)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newTestRouter(service, user).ServeHTTP(w, req)

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
