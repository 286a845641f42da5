package completion

import (
	"context"
	"time"
)

// Habit is the slice of a habit the engine needs.
type Habit struct {
	ID        string
	UserID    uint
	Frequency Frequency
	Target    int
	CreatedAt time.Time
}

// Record is a materialized completion row, one per (habit, date).
type Record struct {
	HabitID          string
	Date             time.Time
	IsCompleted      bool
	TargetAtTime     int
	QuantityAchieved int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HabitStore loads habits. Missing habits yield ErrNotFound.
type HabitStore interface {
	GetHabit(ctx context.Context, habitID string) (Habit, error)
}

// LogStore answers aggregate queries over log entries. Date bounds are inclusive.
type LogStore interface {
	SumQuantity(ctx context.Context, habitID string, start, end time.Time) (int, error)
	SumQuantityForDate(ctx context.Context, habitID string, date time.Time) (int, error)
	// LogDates returns every distinct date with at least one log, ascending.
	LogDates(ctx context.Context, habitID string) ([]time.Time, error)
}

// CompletionStore persists completion records keyed by (habit, date).
type CompletionStore interface {
	// GetCompletion returns ErrNotFound when no record exists for the date.
	GetCompletion(ctx context.Context, habitID string, date time.Time) (Record, error)
	// SaveCompletion inserts the record or updates the existing one in place.
	SaveCompletion(ctx context.Context, rec Record) error
	// ListCompletions returns records ordered by date ascending. A zero bound is open.
	ListCompletions(ctx context.Context, habitID string, from, to time.Time) ([]Record, error)
}
