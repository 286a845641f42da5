// Package repository implements the completion engine's stores on top of gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cppla/habitrack/completion"
	"github.com/cppla/habitrack/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements completion.HabitStore, completion.LogStore and
// completion.CompletionStore. Bind it to a transaction with WithTx so that log
// writes and record upserts commit together.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store running every query on tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// Engine builds a completion engine over this store.
func (s *Store) Engine(now func() time.Time) *completion.Engine {
	return completion.NewEngine(s, s, s, completion.WithClock(now))
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return completion.ErrNotFound
	}
	return err
}

func (s *Store) GetHabit(ctx context.Context, habitID string) (completion.Habit, error) {
	var habit models.Habit
	if err := s.db.WithContext(ctx).Where("id = ?", habitID).Take(&habit).Error; err != nil {
		return completion.Habit{}, translate(err)
	}
	return habit.Core(), nil
}

func (s *Store) SumQuantity(ctx context.Context, habitID string, start, end time.Time) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.HabitLog{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("habit_id = ? AND date >= ? AND date <= ?", habitID, completion.Day(start), completion.Day(end)).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *Store) SumQuantityForDate(ctx context.Context, habitID string, date time.Time) (int, error) {
	return s.SumQuantity(ctx, habitID, date, date)
}

func (s *Store) LogDates(ctx context.Context, habitID string) ([]time.Time, error) {
	var dates []time.Time
	err := s.db.WithContext(ctx).Model(&models.HabitLog{}).
		Where("habit_id = ?", habitID).
		Order("date ASC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}
	for i := range dates {
		dates[i] = completion.Day(dates[i])
	}
	return dates, nil
}

func (s *Store) GetCompletion(ctx context.Context, habitID string, date time.Time) (completion.Record, error) {
	var row models.HabitCompletion
	err := s.db.WithContext(ctx).
		Where("habit_id = ? AND date = ?", habitID, completion.Day(date)).
		Take(&row).Error
	if err != nil {
		return completion.Record{}, translate(err)
	}
	return row.Record(), nil
}

// SaveCompletion upserts on (habit_id, date); concurrent writers race to the
// same row instead of failing on the unique index.
func (s *Store) SaveCompletion(ctx context.Context, rec completion.Record) error {
	row := models.CompletionFromRecord(rec)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_completed", "target_at_time", "quantity_achieved", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) ListCompletions(ctx context.Context, habitID string, from, to time.Time) ([]completion.Record, error) {
	q := s.db.WithContext(ctx).Where("habit_id = ?", habitID)
	if !from.IsZero() {
		q = q.Where("date >= ?", completion.Day(from))
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", completion.Day(to))
	}
	var rows []models.HabitCompletion
	if err := q.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]completion.Record, len(rows))
	for i := range rows {
		records[i] = rows[i].Record()
	}
	return records, nil
}

// UpsertAdd adds delta to the habit's log row for date, creating it when
// missing, and returns the stored daily total. When limit is positive and the
// total would exceed it, a *completion.TargetExceededError is returned.
//
// The limit is part of the conflict update, so concurrent first writes cannot
// add up past it on postgres and sqlite. MySQL ignores that condition; the
// stored total is re-read and checked instead, which relies on the caller
// rolling back its transaction on error.
func (s *Store) UpsertAdd(ctx context.Context, habitID string, date time.Time, delta, limit int) (int, error) {
	day := completion.Day(date)
	db := s.db.WithContext(ctx)

	exceeded := func(stored int) error {
		return &completion.TargetExceededError{Target: limit, Current: stored, Requested: delta}
	}
	if limit > 0 && delta > limit {
		current, err := s.storedQuantity(ctx, habitID, day)
		if err != nil {
			return 0, err
		}
		return current, exceeded(current)
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "habit_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("habit_logs.quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		}),
	}
	if limit > 0 {
		onConflict.Where = clause.Where{Exprs: []clause.Expression{
			gorm.Expr("habit_logs.quantity + ? <= ?", delta, limit),
		}}
	}
	row := models.HabitLog{HabitID: habitID, Date: day, Quantity: delta}
	res := db.Clauses(onConflict).Create(&row)
	if res.Error != nil {
		return 0, fmt.Errorf("upsert log %s: %w", day.Format(time.DateOnly), res.Error)
	}

	stored, err := s.storedQuantity(ctx, habitID, day)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return stored, exceeded(stored)
	}
	if limit > 0 && stored > limit {
		return stored - delta, exceeded(stored - delta)
	}
	return stored, nil
}

// storedQuantity reads the day's log total, locking the row when one exists.
func (s *Store) storedQuantity(ctx context.Context, habitID string, day time.Time) (int, error) {
	var row models.HabitLog
	err := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("habit_id = ? AND date = ?", habitID, day).
		Take(&row).Error
	switch {
	case err == nil:
		return row.Quantity, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	default:
		return 0, fmt.Errorf("load log %s: %w", day.Format(time.DateOnly), err)
	}
}

// ListLogs returns the log rows of the given habits, newest first. A non-nil
// date restricts the result to that day.
func (s *Store) ListLogs(ctx context.Context, habitIDs []string, date *time.Time) ([]models.HabitLog, error) {
	if len(habitIDs) == 0 {
		return []models.HabitLog{}, nil
	}
	q := s.db.WithContext(ctx).Where("habit_id IN ?", habitIDs)
	if date != nil {
		q = q.Where("date = ?", completion.Day(*date))
	}
	var logs []models.HabitLog
	if err := q.Order("date DESC").Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// DeleteHabit removes the habit with its logs and completion records.
func (s *Store) DeleteHabit(ctx context.Context, habitID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", habitID).Delete(&models.HabitLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("habit_id = ?", habitID).Delete(&models.HabitCompletion{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", habitID).Delete(&models.Habit{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return completion.ErrNotFound
		}
		return nil
	})
}

// HabitIDs lists every habit id, oldest first.
func (s *Store) HabitIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Habit{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}
