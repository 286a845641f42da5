package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HabitLog accumulates the quantity logged for a habit on one calendar date.
// Repeated logs on the same date add into the same row.
type HabitLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	HabitID   string    `gorm:"size:36;not null;uniqueIndex:idx_habit_log_date,priority:1" json:"habit_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_habit_log_date,priority:2" json:"date"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *HabitLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
