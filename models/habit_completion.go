package models

import (
	"time"

	"github.com/cppla/habitrack/completion"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HabitCompletion is the materialized completion status of a habit on a date,
// judged against TargetAtTime.
type HabitCompletion struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	HabitID          string    `gorm:"size:36;not null;uniqueIndex:idx_habit_completion_date,priority:1" json:"habit_id"`
	Date             time.Time `gorm:"type:date;not null;uniqueIndex:idx_habit_completion_date,priority:2" json:"date"`
	IsCompleted      bool      `gorm:"not null;default:false" json:"is_completed"`
	TargetAtTime     int       `gorm:"not null" json:"target_at_time"`
	QuantityAchieved int       `gorm:"not null;default:0" json:"quantity_achieved"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (c *HabitCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Record converts the row into a completion.Record.
func (c *HabitCompletion) Record() completion.Record {
	return completion.Record{
		HabitID:          c.HabitID,
		Date:             completion.Day(c.Date),
		IsCompleted:      c.IsCompleted,
		TargetAtTime:     c.TargetAtTime,
		QuantityAchieved: c.QuantityAchieved,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// CompletionFromRecord builds a row from a completion.Record.
func CompletionFromRecord(r completion.Record) HabitCompletion {
	return HabitCompletion{
		HabitID:          r.HabitID,
		Date:             completion.Day(r.Date),
		IsCompleted:      r.IsCompleted,
		TargetAtTime:     r.TargetAtTime,
		QuantityAchieved: r.QuantityAchieved,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
