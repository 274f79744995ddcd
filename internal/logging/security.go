// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

const appID = "workspace-service"

type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Warn("system startup", zap.String("event", "sys_startup:"+appID), zap.String("appid", appID))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Warn("system shutdown", zap.String("event", "sys_shutdown:"+appID), zap.String("appid", appID))
}

func (s *SecurityLogger) AuthnLoginSuccess(userID string) {
	s.l.Info("user login succeeded", zap.String("event", "authn_login_success:"+userID), zap.String("appid", appID))
}

func (s *SecurityLogger) AuthnLoginFail(email string) {
	s.l.Warn("user login failed", zap.String("event", "authn_login_fail:"+email), zap.String("appid", appID))
}

func (s *SecurityLogger) AuthnTokenInvalid(reason string) {
	s.l.Warn("invalid token presented", zap.String("event", "authn_token_invalid:"+reason), zap.String("appid", appID))
}

func (s *SecurityLogger) AuthzFailure(userID, resource, action string) {
	s.l.Warn(
		"authorization denied",
		zap.String("event", "authz_fail:"+userID+","+resource),
		zap.String("action", action),
		zap.String("appid", appID),
	)
}

func (s *SecurityLogger) AdminAction(userID, action, resource string) {
	s.l.Warn(
		"admin action performed",
		zap.String("event", "authz_admin:"+userID+","+action),
		zap.String("resource", resource),
		zap.String("appid", appID),
	)
}

func newSecurityLogger(l *zap.Logger) *SecurityLogger {
	return &SecurityLogger{l: l}
}
