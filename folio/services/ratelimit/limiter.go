// Package ratelimit enforces a fixed-window request quota per principal and
// endpoint on top of a shared counter store.
package ratelimit

import (
	"context"
	"time"

	"folio/folio/utils/logging"

	"go.uber.org/zap"
)

const (
	DefaultMax    = 50
	DefaultWindow = time.Hour

	EndpointChat = "chat"
)

// Counter records one hit and reports the count inside the current window
// and whether the hit was accepted. A rejected hit must not change state.
type Counter interface {
	Hit(ctx context.Context, principalID, endpoint string, max int, window time.Duration, now time.Time) (count int, allowed bool, err error)
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
}

type Limiter struct {
	counter Counter
	max     int
	window  time.Duration
	now     func() time.Time
}

func NewLimiter(counter Counter, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{counter: counter, max: max, window: window, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Max() int { return l.max }

// Check counts a request for principalID on endpoint. Store failures fail
// open: the request is allowed and the error is logged.
func (l *Limiter) Check(ctx context.Context, principalID, endpoint string) Decision {
	count, allowed, err := l.counter.Hit(ctx, principalID, endpoint, l.max, l.window, l.now())
	if err != nil {
		logging.ErrorLogger.Error("rate limit store failure, allowing request",
			zap.String("principal", principalID),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return Decision{Allowed: true, Limit: l.max, Remaining: l.max - 1}
	}
	if !allowed {
		return Decision{Allowed: false, Limit: l.max, Remaining: 0}
	}
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: l.max, Remaining: remaining}
}
