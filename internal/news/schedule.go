package news

import (
	"context"
	"fmt"
	"time"

	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

// Schedule runs a job at the times a cron expression names.
type Schedule struct {
	expr *cronexpr.Expression
	raw  string
}

// ParseSchedule parses a standard cron expression ("0 6 * * *") or a
// shorthand such as "@daily".
func ParseSchedule(raw string) (*Schedule, error) {
	expr, err := cronexpr.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", raw, err)
	}
	return &Schedule{expr: expr, raw: raw}, nil
}

// Next returns the first run time after t, or the zero time if none.
func (s *Schedule) Next(t time.Time) time.Time {
	return s.expr.Next(t)
}

// Start runs job at every scheduled time until ctx is done.
func (s *Schedule) Start(ctx context.Context, log *zap.Logger, job func(context.Context)) {
	go func() {
		for {
			next := s.expr.Next(time.Now())
			if next.IsZero() {
				log.Warn("schedule has no future runs", zap.String("schedule", s.raw))
				return
			}
			timer := time.NewTimer(time.Until(next))
			select {
			case <-timer.C:
				job(ctx)
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
}
