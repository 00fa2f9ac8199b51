// Package ratelimit paces calls to a single external provider.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limiter enforces a minimum spacing between successive calls. It keeps no
// burst credit: a caller arriving after a long idle period proceeds at once,
// but two callers never return from Wait closer than the interval.
type Limiter struct {
	name     string
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	lastCall time.Time
	calls    int64
}

// New returns a Limiter allowing callsPerMinute calls per minute.
func New(name string, callsPerMinute int, logger *zap.Logger) *Limiter {
	if callsPerMinute <= 0 {
		callsPerMinute = 1
	}
	return &Limiter{
		name:     name,
		interval: time.Minute / time.Duration(callsPerMinute),
		logger:   logger,
	}
}

// Wait blocks until the caller may issue its call. Concurrent callers queue on
// the mutex. If ctx ends while waiting, Wait returns ctx.Err() and the slot is
// not consumed.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.lastCall.IsZero() {
		elapsed := time.Since(l.lastCall)
		if remaining := l.interval - elapsed; remaining > 0 {
			l.logger.Debug("rate limit delay",
				zap.String("provider", l.name),
				zap.Duration("remaining", remaining),
				zap.Int64("calls", l.calls),
			)
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.lastCall = time.Now()
	l.calls++
	return nil
}

func (l *Limiter) Interval() time.Duration {
	return l.interval
}

func (l *Limiter) Calls() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
