// Package scheduler runs background maintenance for the link agent.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/robfig/cron/v3"
)

type pushSweeper interface {
	Sweep(ctx context.Context) (bool, error)
}

// Sweeper retries registration of a stored device token that the backend
// has not accepted yet. It fires on a standard five-field cron expression.
type Sweeper struct {
	push     pushSweeper
	schedule cron.Schedule
	cronExpr string
	logger   *slog.Logger
}

func NewSweeper(push pushSweeper, cronExpr string, logger *slog.Logger) (*Sweeper, error) {
	sched, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", cronExpr, err)
	}
	return &Sweeper{
		push:     push,
		schedule: sched,
		cronExpr: cronExpr,
		logger:   logger.With("component", "push_sweeper"),
	}, nil
}

// Start blocks until ctx is cancelled. A sweep that is still running when
// the next run is due delays that run; runs are never stacked.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("push sweeper started", "cron_expr", s.cronExpr)

	for {
		next := s.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("push sweeper shut down")
			return
		case <-timer.C:
			s.sweep(ctx)
		}
	}
}

// Next returns the first run strictly after now.
func (s *Sweeper) Next(now time.Time) time.Time {
	return s.schedule.Next(now)
}

func (s *Sweeper) sweep(ctx context.Context) {
	registered, err := s.push.Sweep(ctx)
	switch {
	case err != nil:
		metrics.PushSweepsTotal.WithLabelValues("failed").Inc()
		s.logger.ErrorContext(ctx, "push sweep", "error", err)
	case registered:
		metrics.PushSweepsTotal.WithLabelValues("registered").Inc()
		s.logger.InfoContext(ctx, "push sweep registered pending token")
	default:
		metrics.PushSweepsTotal.WithLabelValues("idle").Inc()
	}
}
