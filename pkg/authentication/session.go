// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var ErrInvalidSession = errors.New("invalid session")

type SessionConfig struct {
	CookieName string
	Lifetime   time.Duration
	CacheSize  int
	CacheTTL   time.Duration
	Secure     bool
}

type cachedSession struct {
	session *types.Session
	user    *types.User
}

var _ SessionValidatorInterface = (*SessionValidator)(nil)

// SessionValidator backs session cookies with the sessions table. Only the sha256 of the
// cookie value is stored, lookups go through a short lived LRU cache.
type SessionValidator struct {
	cfg     SessionConfig
	storage StorageInterface
	cache   *expirable.LRU[string, cachedSession]
	now     func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func sessionID(cookieValue string) string {
	sum := sha256.Sum256([]byte(cookieValue))
	return hex.EncodeToString(sum[:])
}

func (v *SessionValidator) Validate(ctx context.Context, cookieValue string) (*types.Session, *types.User, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.SessionValidator.Validate")
	defer span.End()

	if cookieValue == "" {
		return nil, nil, ErrInvalidSession
	}

	id := sessionID(cookieValue)

	if c, ok := v.cache.Get(id); ok {
		if v.now().Before(c.session.ExpiresAt) {
			return c.session, c.user, nil
		}
		v.cache.Remove(id)
	}

	session, err := v.storage.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrInvalidSession
	}

	if err != nil {
		return nil, nil, err
	}

	if !v.now().Before(session.ExpiresAt) {
		if err := v.storage.DeleteSession(ctx, id); err != nil {
			v.logger.Errorf("failed to delete expired session: %v", err)
		}
		return nil, nil, ErrInvalidSession
	}

	user, err := v.storage.GetUserByID(ctx, session.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrInvalidSession
	}

	if err != nil {
		return nil, nil, err
	}

	v.cache.Add(id, cachedSession{session: session, user: user})

	return session, user, nil
}

// Create stores a new session and returns the cookie value to hand to the client
func (v *SessionValidator) Create(ctx context.Context, userID string) (string, *types.Session, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.SessionValidator.Create")
	defer span.End()

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	value := base64.RawURLEncoding.EncodeToString(raw)

	session := &types.Session{
		ID:        sessionID(value),
		UserID:    userID,
		ExpiresAt: v.now().Add(v.cfg.Lifetime),
	}

	if err := v.storage.CreateSession(ctx, session); err != nil {
		return "", nil, err
	}

	return value, session, nil
}

func (v *SessionValidator) Invalidate(ctx context.Context, cookieValue string) error {
	ctx, span := v.tracer.Start(ctx, "authentication.SessionValidator.Invalidate")
	defer span.End()

	id := sessionID(cookieValue)
	v.cache.Remove(id)

	return v.storage.DeleteSession(ctx, id)
}

// Cookie builds the session cookie, a zero expiry clears it
func (v *SessionValidator) Cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     v.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   v.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}

	if expires.IsZero() {
		c.MaxAge = -1
	}

	return c
}

func (v *SessionValidator) ReadCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(v.cfg.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	return c.Value, true
}

func NewSessionValidator(cfg SessionConfig, s StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *SessionValidator {
	v := new(SessionValidator)

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 10000
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}

	v.cfg = cfg
	v.storage = s
	v.cache = expirable.NewLRU[string, cachedSession](cfg.CacheSize, nil, cfg.CacheTTL)
	v.now = time.Now

	v.tracer = tracer
	v.monitor = monitor
	v.logger = logger

	return v
}
