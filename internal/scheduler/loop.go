// Package scheduler runs periodic jobs until a shared context is cancelled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job func(ctx context.Context) error

// Interval returns a schedule firing every d, rounded down to whole seconds.
func Interval(d time.Duration) cron.Schedule {
	return cron.Every(d)
}

// Loop runs its job once on start and then at every schedule tick. Job
// errors and panics are logged and never stop the loop; only cancelling the
// context does, without waiting for the next tick.
type Loop struct {
	name     string
	schedule cron.Schedule
	job      Job
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewLoop(name string, schedule cron.Schedule, job Job, m *metrics.Metrics, logger *zap.Logger) *Loop {
	return &Loop{
		name:     name,
		schedule: schedule,
		job:      job,
		metrics:  m,
		logger:   logger.With(zap.String("loop", name)),
	}
}

func (l *Loop) Name() string {
	return l.name
}

func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("loop started")
	defer l.logger.Info("loop stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		_ = l.runOnce(ctx)

		next := l.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) (err error) {
	logger := l.logger.With(zap.String("run_id", uuid.NewString()))
	start := time.Now()
	outcome := "ok"

	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			err = fmt.Errorf("loop %s panicked: %v", l.name, r)
			logger.Error("loop job panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
		l.metrics.ObserveLoop(l.name, outcome, time.Since(start))
	}()

	logger.Debug("loop run started")
	err = l.job(ctx)
	switch {
	case err == nil:
		logger.Info("loop run complete", zap.Duration("duration", time.Since(start)))
	case errors.Is(err, context.Canceled):
		outcome = "cancelled"
		logger.Info("loop run cancelled", zap.Error(err))
	default:
		outcome = "error"
		logger.Error("loop run failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
	}
	return err
}

// Group runs loops concurrently on one context.
type Group struct {
	loops []*Loop
	wg    sync.WaitGroup
	once  sync.Once
	done  chan struct{}
}

func NewGroup(loops ...*Loop) *Group {
	return &Group{loops: loops, done: make(chan struct{})}
}

// Start launches every loop. Done is closed once all of them have returned.
func (g *Group) Start(ctx context.Context) {
	g.once.Do(func() {
		for _, loop := range g.loops {
			g.wg.Add(1)
			go func(loop *Loop) {
				defer g.wg.Done()
				loop.Run(ctx)
			}(loop)
		}
		go func() {
			g.wg.Wait()
			close(g.done)
		}()
	})
}

func (g *Group) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until every loop has returned or timeout elapses, and reports
// whether all loops stopped in time.
func (g *Group) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-g.done:
		return true
	case <-timer.C:
		return false
	}
}
