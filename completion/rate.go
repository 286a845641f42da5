package completion

import (
	"context"
	"time"
)

// Rate is completed periods over elapsed periods. Percent is not rounded.
type Rate struct {
	Completed int     `json:"completed_periods"`
	Total     int     `json:"total_periods"`
	Percent   float64 `json:"completion_rate"`
}

// CompletionRate computes the rate from habit creation through today. Optional
// start and end narrow the window; they never widen it past those limits.
func (e *Engine) CompletionRate(ctx context.Context, habitID string, start, end *time.Time) (Rate, error) {
	habit, err := e.habits.GetHabit(ctx, habitID)
	if err != nil {
		return Rate{}, err
	}

	from, to := e.createdDay(habit), e.today()
	if start != nil && Day(*start).After(from) {
		from = Day(*start)
	}
	if end != nil && Day(*end).Before(to) {
		to = Day(*end)
	}
	if to.Before(from) {
		return Rate{}, nil
	}

	records, err := e.completions.ListCompletions(ctx, habitID,
		Resolve(habit.Frequency, from).Start, Resolve(habit.Frequency, to).End)
	if err != nil {
		return Rate{}, err
	}
	return RateFor(habit.Frequency, SuccessfulDates(records), from, to), nil
}

// RateFor counts the distinct periods between from and to (inclusive) that
// contain at least one successful date.
func RateFor(freq Frequency, dates []time.Time, from, to time.Time) Rate {
	total := PeriodsBetween(freq, from, to)
	if total == 0 {
		return Rate{}
	}

	first, last := Resolve(freq, from).Start, Resolve(freq, to).Start
	completed := 0
	for _, start := range periodStarts(freq, dates) {
		if start.Before(first) || start.After(last) {
			continue
		}
		completed++
	}
	return Rate{
		Completed: completed,
		Total:     total,
		Percent:   float64(completed) / float64(total) * 100,
	}
}
