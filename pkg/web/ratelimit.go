// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
)

const (
	limiterCacheSize = 10000
	limiterIdleTTL   = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client address, idle buckets are evicted
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *expirable.LRU[string, *rate.Limiter]

	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	if lim, ok := l.buckets.Get(key); ok {
		return lim
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets.Add(key, lim)

	return lim
}

func (l *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.limiter(clientIP(r)).Allow() {
				if err := l.monitor.IncDeniedRequests(map[string]string{"entity": "auth", "action": "rate_limited"}); err != nil {
					l.logger.Debugf("failed to record denied request: %v", err)
				}

				w.Header().Set("Retry-After", "1")
				types.WriteError(w, r, types.NewError(types.ErrorTooManyRequests, ""), l.logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// NewRateLimiter allows perSecond requests per client address with bursts up to burst
func NewRateLimiter(perSecond float64, burst int, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *RateLimiter {
	l := new(RateLimiter)

	l.limit = rate.Limit(perSecond)
	l.burst = burst
	l.buckets = expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL)

	l.monitor = monitor
	l.logger = logger

	return l
}
