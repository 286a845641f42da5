package completion

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a habit or completion record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTargetExceeded is returned when a log would push a day's total over the habit target.
	ErrTargetExceeded = errors.New("quantity would exceed habit target")
	// ErrInvalidTarget is returned for targets that are not positive.
	ErrInvalidTarget = errors.New("target must be positive")
	// ErrInvalidFrequency is returned by ParseFrequency.
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// TargetExceededError carries the numbers behind a rejected log write.
type TargetExceededError struct {
	Target    int
	Current   int
	Requested int
}

func (e *TargetExceededError) Error() string {
	if e.Remaining() <= 0 {
		return fmt.Sprintf("habit target already reached: target %d, current %d", e.Target, e.Current)
	}
	return fmt.Sprintf("quantity would exceed habit target: target %d, current %d, requested %d, remaining %d",
		e.Target, e.Current, e.Requested, e.Remaining())
}

// Remaining is how much can still be logged for the day.
func (e *TargetExceededError) Remaining() int {
	return e.Target - e.Current
}

func (e *TargetExceededError) Is(target error) bool {
	return target == ErrTargetExceeded
}

// ReconciliationError reports a failed bulk update of completion records.
// Callers log it and carry on; RecalculateAll repairs the drift later.
type ReconciliationError struct {
	HabitID string
	Op      string
	Err     error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s for habit %s: %v", e.Op, e.HabitID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
