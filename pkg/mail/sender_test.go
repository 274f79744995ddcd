// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

func newTestSMTPSender(cfg Config) *SMTPSender {
	logger := logging.NewNoopLogger()
	s := NewSMTPSender(cfg, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return s
}

func TestSMTPSender_Send(t *testing.T) {
	s := newTestSMTPSender(Config{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "no-reply@example.com"})

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotFrom string
		gotTo   []string
		gotMsg  string
	)

	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "ada@example.com", "Welcome", "<p>hi</p>"))

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: ada@example.com\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPSender_SendFailure(t *testing.T) {
	s := newTestSMTPSender(Config{Host: "smtp.example.com", Port: 25, From: "no-reply@example.com"})
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.Error(t, s.Send(context.Background(), "ada@example.com", "Welcome", "<p>hi</p>"))
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(logging.NewNoopLogger()).Send(context.Background(), "ada@example.com", "Welcome", ""))
}

func TestRender(t *testing.T) {
	html, err := Render(TemplateInvitation, TemplateData{
		Link:         "https://app.example.com/invitation/abc",
		Organization: "<Acme>",
		Inviter:      "Ada",
		Role:         "member",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "https://app.example.com/invitation/abc")
	assert.Contains(t, html, "&lt;Acme&gt;")

	_, err = Render("missing.html", TemplateData{})
	assert.Error(t, err)
}
