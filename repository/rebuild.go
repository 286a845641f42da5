package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/habitrack/completion"
)

// Rebuild re-materializes every completion record of the habit from its logs
// in one transaction and returns the number of log dates processed.
func Rebuild(ctx context.Context, db *gorm.DB, now func() time.Time, habitID string) (int, error) {
	var n int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = New(tx).Engine(now).Rebuild(ctx, habitID)
		return err
	})
	return n, err
}

// Repairer returns a function suitable for the completion repair worker.
// Habits deleted since they were queued count as repaired.
func Repairer(db *gorm.DB, now func() time.Time) func(ctx context.Context, habitID string) error {
	return func(ctx context.Context, habitID string) error {
		_, err := Rebuild(ctx, db, now, habitID)
		if errors.Is(err, completion.ErrNotFound) {
			return nil
		}
		return err
	}
}
