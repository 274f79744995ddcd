// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var _ SenderInterface = (*LogSender)(nil)

// LogSender only logs outgoing mail, used when no SMTP host is configured
type LogSender struct {
	logger logging.LoggerInterface
}

func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Infow("email not sent, no smtp host configured", "to", to, "subject", subject)
	return nil
}

func NewLogSender(logger logging.LoggerInterface) *LogSender {
	return &LogSender{logger: logger}
}

var _ SenderInterface = (*SMTPSender)(nil)

type SMTPSender struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	_, span := s.tracer.Start(ctx, "mail.SMTPSender.Send")
	defer span.End()

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	msg := buildMessage(s.cfg.From, to, subject, html, s.now())

	if err := s.send(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		s.setAvailability(0)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.setAvailability(1)

	return nil
}

func (s *SMTPSender) setAvailability(v float64) {
	if err := s.monitor.SetDependencyAvailability(map[string]string{"component": "smtp"}, v); err != nil {
		s.logger.Debugf("failed to record smtp availability: %v", err)
	}
}

func buildMessage(from, to, subject, html string, date time.Time) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)

	return b.Bytes()
}

func NewSMTPSender(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *SMTPSender {
	s := new(SMTPSender)

	s.cfg = cfg
	s.send = smtp.SendMail
	s.now = time.Now

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
