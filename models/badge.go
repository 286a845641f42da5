package models

import "time"

// Badge records an achievement earned by a user. Codes are unique per user.
type Badge struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_badge_user_code,priority:1" json:"user_id"`
	Code       string    `gorm:"size:64;not null;uniqueIndex:idx_badge_user_code,priority:2" json:"code"`
	AchievedAt time.Time `gorm:"not null" json:"achieved_at"`
}
