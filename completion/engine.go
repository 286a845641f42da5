// Package completion derives per-period completion status, streaks and
// completion rates for habits from their raw log entries.
//
// Log writes feed the materializer, which keeps one completion record per
// (habit, date). Streaks and rates are computed from those records only.
package completion

import (
	"context"
	"time"
)

// Engine ties the stores together. An Engine is cheap to build; create one per
// unit of work with stores bound to the enclosing transaction.
type Engine struct {
	habits      HabitStore
	logs        LogStore
	completions CompletionStore
	agg         *Aggregator
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "now". The clock's location decides which
// calendar date counts as today.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(habits HabitStore, logs LogStore, completions CompletionStore, opts ...Option) *Engine {
	e := &Engine{
		habits:      habits,
		logs:        logs,
		completions: completions,
		agg:         NewAggregator(logs),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) today() time.Time {
	return Day(e.now())
}

// createdDay is the calendar date the habit was created on, in the clock's location.
func (e *Engine) createdDay(h Habit) time.Time {
	return Day(h.CreatedAt.In(e.now().Location()))
}

// totals returns the period total used for the completion check and the
// quantity logged on the day itself.
func (e *Engine) totals(ctx context.Context, h Habit, day time.Time) (period int, daily int, err error) {
	period, err = e.agg.PeriodTotal(ctx, h.ID, Resolve(h.Frequency, day))
	if err != nil {
		return 0, 0, err
	}
	daily, err = e.agg.DailyTotal(ctx, h.ID, day)
	if err != nil {
		return 0, 0, err
	}
	return period, daily, nil
}
