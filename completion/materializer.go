package completion

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UpsertForDate re-evaluates the completion record for the date a log landed on.
// An existing record is judged against its own TargetAtTime; a new record
// snapshots the habit's current target. Exactly one record is written.
func (e *Engine) UpsertForDate(ctx context.Context, habitID string, date time.Time) (Record, error) {
	habit, err := e.habits.GetHabit(ctx, habitID)
	if err != nil {
		return Record{}, err
	}
	return e.upsert(ctx, habit, Day(date))
}

func (e *Engine) upsert(ctx context.Context, habit Habit, day time.Time) (Record, error) {
	periodTotal, dailyQty, err := e.totals(ctx, habit, day)
	if err != nil {
		return Record{}, err
	}

	now := e.now()
	rec, err := e.completions.GetCompletion(ctx, habit.ID, day)
	switch {
	case err == nil:
		rec.IsCompleted = periodTotal >= rec.TargetAtTime
		rec.QuantityAchieved = dailyQty
		rec.UpdatedAt = now
	case errors.Is(err, ErrNotFound):
		rec = Record{
			HabitID:          habit.ID,
			Date:             day,
			IsCompleted:      periodTotal >= habit.Target,
			TargetAtTime:     habit.Target,
			QuantityAchieved: dailyQty,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	default:
		return Record{}, fmt.Errorf("load completion %s: %w", day.Format(time.DateOnly), err)
	}

	if err := e.completions.SaveCompletion(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("save completion %s: %w", day.Format(time.DateOnly), err)
	}
	return rec, nil
}

// RecalculateAll recomputes every completion record of the habit from the
// current logs, keeping each record's stored TargetAtTime. Records whose
// contents do not change are left untouched, so repeated calls are no-ops.
// It returns the number of records examined.
func (e *Engine) RecalculateAll(ctx context.Context, habitID string) (int, error) {
	habit, err := e.habits.GetHabit(ctx, habitID)
	if err != nil {
		return 0, err
	}
	records, err := e.completions.ListCompletions(ctx, habitID, time.Time{}, time.Time{})
	if err != nil {
		return 0, &ReconciliationError{HabitID: habitID, Op: "recalculate", Err: err}
	}

	now := e.now()
	count := 0
	for _, rec := range records {
		periodTotal, dailyQty, err := e.totals(ctx, habit, rec.Date)
		if err != nil {
			return count, &ReconciliationError{HabitID: habitID, Op: "recalculate", Err: err}
		}
		count++

		completed := periodTotal >= rec.TargetAtTime
		if completed == rec.IsCompleted && dailyQty == rec.QuantityAchieved {
			continue
		}
		rec.IsCompleted = completed
		rec.QuantityAchieved = dailyQty
		rec.UpdatedAt = now
		if err := e.completions.SaveCompletion(ctx, rec); err != nil {
			return count, &ReconciliationError{HabitID: habitID, Op: "recalculate", Err: err}
		}
	}
	return count, nil
}

// Rebuild materializes a record for every date that has logs and then
// recalculates the rest, repairing any drift between logs and records.
// It returns the number of log dates materialized.
func (e *Engine) Rebuild(ctx context.Context, habitID string) (int, error) {
	habit, err := e.habits.GetHabit(ctx, habitID)
	if err != nil {
		return 0, err
	}
	dates, err := e.logs.LogDates(ctx, habitID)
	if err != nil {
		return 0, &ReconciliationError{HabitID: habitID, Op: "rebuild", Err: err}
	}
	for i, d := range dates {
		if _, err := e.upsert(ctx, habit, Day(d)); err != nil {
			return i, &ReconciliationError{HabitID: habitID, Op: "rebuild", Err: err}
		}
	}
	if _, err := e.RecalculateAll(ctx, habitID); err != nil {
		return len(dates), err
	}
	return len(dates), nil
}
