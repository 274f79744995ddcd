// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/http/types"
	domain "github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/entity"
)

func TestAPIClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v0/organizations" && r.Method == http.MethodPost:
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			req := new(entity.CreateRequest)
			require.NoError(t, json.NewDecoder(r.Body).Decode(req))

			types.WriteData(w, http.StatusCreated, domain.Entity{ID: "o1", Name: req.Name, Slug: "acme"}, nil)
		case r.URL.Path == "/api/v0/organizations/o1" && r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/v0/organizations/taken":
			types.WriteJSON(w, http.StatusConflict, types.ErrorResponse{Type: types.ErrorSlugExists, Message: "slug already exists"})
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL+"/", "secret")
	ctx := context.Background()

	org := new(domain.Entity)
	require.NoError(t, client.do(ctx, http.MethodPost, "/organizations", entity.CreateRequest{Name: "Acme"}, org))
	assert.Equal(t, "o1", org.ID)
	assert.Equal(t, "Acme", org.Name)

	assert.NoError(t, client.do(ctx, http.MethodDelete, "/organizations/o1", nil, org))

	err := client.do(ctx, http.MethodPatch, "/organizations/taken", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug_exists")

	err = client.do(ctx, http.MethodGet, "/elsewhere", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestNewAPIClient_Endpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api/v0", newAPIClient("localhost:8080", "").endpoint)
	assert.Equal(t, "https://api.example.com/api/v0", newAPIClient("https://api.example.com/", "").endpoint)
}
