// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string  `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string  `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool    `envconfig:"tracing_enabled" default:"true"`
	TracingRatio     float64 `envconfig:"tracing_sample_ratio" default:"1"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	SessionCookieName string        `envconfig:"session_cookie_name" default:"session"`
	SessionLifetime   time.Duration `envconfig:"session_lifetime" default:"720h"`
	SessionCacheSize  int           `envconfig:"session_cache_size" default:"10000"`
	SessionCacheTTL   time.Duration `envconfig:"session_cache_ttl" default:"30s"`
	SecureCookies     bool          `envconfig:"secure_cookies" default:"true"`

	VerificationTokenLifetime time.Duration `envconfig:"verification_token_lifetime" default:"3h"`
	InvitationLifetime        time.Duration `envconfig:"invitation_lifetime" default:"168h"`
	TokenCleanupSchedule      string        `envconfig:"token_cleanup_schedule" default:"@hourly"`

	SSEPingInterval time.Duration `envconfig:"sse_ping_interval" default:"30s"`

	RedisAddr     string `envconfig:"redis_addr"`
	RedisPassword string `envconfig:"redis_password"`
	RedisChannel  string `envconfig:"redis_channel" default:"workspace:events"`

	SMTPHost     string `envconfig:"smtp_host"`
	SMTPPort     int    `envconfig:"smtp_port" default:"587"`
	SMTPUsername string `envconfig:"smtp_username"`
	SMTPPassword string `envconfig:"smtp_password"`
	SMTPFrom     string `envconfig:"smtp_from" default:"no-reply@localhost"`

	PublicURL string `envconfig:"public_url" default:"http://localhost:3000"`

	OIDCIssuer  string `envconfig:"oidc_issuer"`
	OIDCJWKSURL string `envconfig:"oidc_jwks_url"`
	OIDCScope   string `envconfig:"oidc_required_scope"`

	WebhookAPIKey string `envconfig:"webhook_api_key"`

	AuthRateLimit float64 `envconfig:"auth_rate_limit" default:"5"`
	AuthRateBurst int     `envconfig:"auth_rate_burst" default:"10"`

	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins" default:"*"`
}
