package models

import (
	"time"

	"github.com/cppla/habitrack/completion"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Habit categories accepted by the API.
var Categories = []string{
	"health", "fitness", "productivity", "learning", "mindfulness",
	"social", "creative", "financial", "hobby", "other",
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Habit is a recurring activity with a quantity target per period.
type Habit struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:512" json:"description"`
	Frequency   string    `gorm:"size:16;not null;default:'daily'" json:"frequency"`
	Target      int       `gorm:"not null;default:1" json:"target"`
	Category    string    `gorm:"size:32;not null;default:'other'" json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// Core converts the row into the completion engine's view of a habit.
func (h *Habit) Core() completion.Habit {
	return completion.Habit{
		ID:        h.ID,
		UserID:    h.UserID,
		Frequency: completion.Frequency(h.Frequency),
		Target:    h.Target,
		CreatedAt: h.CreatedAt,
	}
}

// StarterHabits returns the habits a new account starts with.
func StarterHabits(userID uint) []Habit {
	starters := []Habit{
		{Title: "Morning Exercise", Description: "Start your day with 30 minutes of physical activity", Category: "fitness", Frequency: "daily", Target: 1},
		{Title: "Drink Water", Description: "Stay hydrated by drinking 8 glasses of water", Category: "health", Frequency: "daily", Target: 8},
		{Title: "Read Books", Description: "Read for at least 20 minutes to expand your knowledge", Category: "learning", Frequency: "daily", Target: 20},
		{Title: "Meditation", Description: "Practice mindfulness and meditation for inner peace", Category: "mindfulness", Frequency: "daily", Target: 10},
		{Title: "Learn Something New", Description: "Spend time learning a new skill or topic", Category: "learning", Frequency: "weekly", Target: 2},
		{Title: "Cardio Workout", Description: "Get your heart pumping with cardio exercises", Category: "fitness", Frequency: "weekly", Target: 3},
		{Title: "Sleep Early", Description: "Go to bed before 11 PM for better rest", Category: "health", Frequency: "daily", Target: 1},
		{Title: "Practice Gratitude", Description: "Write down 3 things you're grateful for each day", Category: "mindfulness", Frequency: "daily", Target: 3},
	}
	for i := range starters {
		starters[i].UserID = userID
	}
	return starters
}
