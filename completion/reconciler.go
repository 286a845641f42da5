package completion

import (
	"context"
	"time"
)

// OnTargetChanged moves completion records dated today or later onto
// newTarget. Records before today keep their TargetAtTime and status.
//
// Completion is judged on the period total, the same rule UpsertForDate uses,
// so weekly and monthly records do not flip when only one day's quantity is
// compared against a period target.
//
// Failures other than ErrNotFound are returned as *ReconciliationError. Callers
// log them and let the habit update commit.
func (e *Engine) OnTargetChanged(ctx context.Context, habitID string, newTarget int) (int, error) {
	if newTarget <= 0 {
		return 0, ErrInvalidTarget
	}
	habit, err := e.habits.GetHabit(ctx, habitID)
	if err != nil {
		return 0, err
	}

	records, err := e.completions.ListCompletions(ctx, habitID, e.today(), time.Time{})
	if err != nil {
		return 0, &ReconciliationError{HabitID: habitID, Op: "target change", Err: err}
	}

	now := e.now()
	count := 0
	for _, rec := range records {
		periodTotal, dailyQty, err := e.totals(ctx, habit, rec.Date)
		if err != nil {
			return count, &ReconciliationError{HabitID: habitID, Op: "target change", Err: err}
		}
		rec.TargetAtTime = newTarget
		rec.IsCompleted = periodTotal >= newTarget
		rec.QuantityAchieved = dailyQty
		rec.UpdatedAt = now
		if err := e.completions.SaveCompletion(ctx, rec); err != nil {
			return count, &ReconciliationError{HabitID: habitID, Op: "target change", Err: err}
		}
		count++
	}
	return count, nil
}
