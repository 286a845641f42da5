package completion

import (
	"context"
	"sort"
	"time"
)

// Streaks holds consecutive completed periods ending now and the best run ever.
type Streaks struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// ComputeStreaks computes streaks over the habit's completed records.
func (e *Engine) ComputeStreaks(ctx context.Context, habitID string) (Streaks, error) {
	habit, err := e.habits.GetHabit(ctx, habitID)
	if err != nil {
		return Streaks{}, err
	}
	records, err := e.completions.ListCompletions(ctx, habitID, time.Time{}, time.Time{})
	if err != nil {
		return Streaks{}, err
	}
	return StreaksFor(habit.Frequency, SuccessfulDates(records), e.today()), nil
}

// SuccessfulDates returns the dates of completed records.
func SuccessfulDates(records []Record) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		if r.IsCompleted {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// StreaksFor computes streaks from successful dates in any order. Dates are
// grouped into their periods first, so several successes in one week or month
// count once.
//
// Daily streaks may start today or yesterday. Weekly and monthly streaks must
// start at the period containing today.
func StreaksFor(freq Frequency, dates []time.Time, today time.Time) Streaks {
	units := periodStarts(freq, dates)
	if len(units) == 0 {
		return Streaks{}
	}
	return Streaks{
		Current: currentRun(freq, units, today),
		Longest: longestRun(freq, units),
	}
}

// periodStarts returns the distinct period starts of dates, newest first.
func periodStarts(freq Frequency, dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	units := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		start := Resolve(freq, d).Start
		if _, ok := seen[start]; ok {
			continue
		}
		seen[start] = struct{}{}
		units = append(units, start)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].After(units[j]) })
	return units
}

func currentRun(freq Frequency, units []time.Time, today time.Time) int {
	anchor := Resolve(freq, today)

	i := 0
	for i < len(units) && units[i].After(anchor.Start) {
		i++
	}
	if i == len(units) {
		return 0
	}

	switch {
	case units[i].Equal(anchor.Start):
	case anchor.Frequency == Daily && units[i].Equal(anchor.Previous().Start):
	default:
		return 0
	}

	run := 1
	for ; i+1 < len(units); i++ {
		if !adjacent(freq, units[i], units[i+1]) {
			break
		}
		run++
	}
	return run
}

func longestRun(freq Frequency, units []time.Time) int {
	longest, run := 1, 1
	for i := 1; i < len(units); i++ {
		if adjacent(freq, units[i-1], units[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// adjacent reports whether earlier is the period immediately before later.
func adjacent(freq Frequency, later, earlier time.Time) bool {
	return Resolve(freq, later).Previous().Start.Equal(earlier)
}
