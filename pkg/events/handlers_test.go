// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

func newStreamServer(t *testing.T, n *Notifier, user *types.User, ping time.Duration) *httptest.Server {
	t.Helper()

	logger := logging.NewNoopLogger()
	api := NewAPI(n, ping, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(authentication.WithUser(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	api.RegisterEndpoints(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

// readEvent returns the name of the next frame on the stream
func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()

	var name, data string
	for sc.Scan() {
		line := sc.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			return name, data
		}
	}

	t.Fatalf("stream ended: %v", sc.Err())
	return "", ""
}

func TestAPI_Stream(t *testing.T) {
	n := newTestNotifier(4)
	srv := newStreamServer(t, n, &types.User{ID: "u1"}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/me/sse", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)

	name, _ := readEvent(t, sc)
	assert.Equal(t, Connected, name)

	n.Send(context.Background(), "u1", RemoveMembership(entities.Organization), map[string]string{"id": "o1"})

	name, data := readEvent(t, sc)
	assert.Equal(t, "remove_organization_membership", name)
	assert.JSONEq(t, `{"id":"o1"}`, data)

	cancel()

	require.Eventually(t, func() bool {
		return !n.Deliver("u1", Event{Name: Ping})
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAPI_StreamPing(t *testing.T) {
	n := newTestNotifier(4)
	srv := newStreamServer(t, n, &types.User{ID: "u1"}, 20*time.Millisecond)

	resp, err := http.Get(srv.URL + "/me/sse")
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)

	name, _ := readEvent(t, sc)
	assert.Equal(t, Connected, name)

	name, _ = readEvent(t, sc)
	assert.Equal(t, Ping, name)
}

func TestAPI_StreamRequiresUser(t *testing.T) {
	srv := newStreamServer(t, newTestNotifier(1), nil, time.Hour)

	resp, err := http.Get(srv.URL + "/me/sse")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
