// Package badges evaluates achievement rules over facts gathered about a user's habits.
package badges

import (
	"strings"
	"time"

	"github.com/cppla/habitrack/completion"
)

// Status of a badge for one user.
type Status string

const (
	Locked     Status = "locked"
	InProgress Status = "in_progress"
	Earned     Status = "earned"
)

// Category groups badges for display.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

var Categories = []Category{
	{ID: "first_steps", Name: "First Steps", Emoji: "🌱"},
	{ID: "consistency", Name: "Consistency", Emoji: "🔥"},
	{ID: "special_achievements", Name: "Special Achievements", Emoji: "⭐"},
	{ID: "fitness", Name: "Fitness Focus", Emoji: "💪"},
	{ID: "wellness", Name: "Wellness & Mindfulness", Emoji: "🧘"},
}

// Definition describes a badge and how far a user is towards it.
type Definition struct {
	Code         string
	Title        string
	Description  string
	Category     string
	Emoji        string
	Requirements string
	Target       int
	current      func(f Facts) int
}

// Facts is everything the rules look at. Dates are calendar dates (see completion.Day).
type Facts struct {
	Today time.Time
	// Habits owned by the user.
	Habits []HabitFacts
	// PerfectDays are dates on which every daily habit has a completed record.
	PerfectDays []time.Time
	// EarlyLogs and NightLogs count log rows first written before 07:00 or from 22:00 local time.
	EarlyLogs int
	NightLogs int
}

// HabitFacts summarises one habit.
type HabitFacts struct {
	Title     string
	Category  string
	Frequency completion.Frequency
	// TotalQuantity is the sum of every log of the habit.
	TotalQuantity int
	LogCount      int
	LogDates      []time.Time
	// CurrentStreak comes from the habit's completion records.
	CurrentStreak int
}

func (h HabitFacts) titleHas(words ...string) bool {
	title := strings.ToLower(h.Title)
	for _, w := range words {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

func sumQuantity(f Facts, match func(HabitFacts) bool) int {
	total := 0
	for _, h := range f.Habits {
		if match(h) {
			total += h.TotalQuantity
		}
	}
	return total
}

// dailyRun is the number of consecutive days up to today (or yesterday) on
// which any matching habit was logged.
func dailyRun(f Facts, match func(HabitFacts) bool) int {
	var dates []time.Time
	for _, h := range f.Habits {
		if match(h) {
			dates = append(dates, h.LogDates...)
		}
	}
	return completion.StreaksFor(completion.Daily, dates, f.Today).Current
}

func bestDailyStreak(f Facts) int {
	best := 0
	for _, h := range f.Habits {
		if h.Frequency == completion.Daily && h.CurrentStreak > best {
			best = h.CurrentStreak
		}
	}
	return best
}

// Catalog lists every badge in display order.
var Catalog = []Definition{
	{
		Code: "first_habit", Title: "First Habit", Emoji: "🎯", Category: "first_steps", Target: 1,
		Description: "Create your very first habit", Requirements: "Create 1 habit",
		current: func(f Facts) int { return len(f.Habits) },
	},
	{
		Code: "first_log", Title: "First Log", Emoji: "✅", Category: "first_steps", Target: 1,
		Description: "Log progress on a habit for the first time", Requirements: "Log any habit once",
		current: func(f Facts) int {
			n := 0
			for _, h := range f.Habits {
				n += h.LogCount
			}
			return n
		},
	},
	{
		Code: "week_warrior", Title: "Week Warrior", Emoji: "🔥", Category: "consistency", Target: 7,
		Description: "Complete a daily habit 7 days in a row", Requirements: "7 day streak on a daily habit",
		current: bestDailyStreak,
	},
	{
		Code: "streak_master", Title: "Streak Master", Emoji: "🏆", Category: "consistency", Target: 30,
		Description: "Complete a daily habit 30 days in a row", Requirements: "30 day streak on a daily habit",
		current: bestDailyStreak,
	},
	{
		Code: "perfect_week", Title: "Perfect Week", Emoji: "💯", Category: "consistency", Target: 7,
		Description: "Complete every daily habit for 7 days in a row", Requirements: "All daily habits completed 7 days running",
		current: func(f Facts) int {
			return completion.StreaksFor(completion.Daily, f.PerfectDays, f.Today).Current
		},
	},
	{
		Code: "early_bird", Title: "Early Bird", Emoji: "🌅", Category: "special_achievements", Target: 5,
		Description: "Log habits before 7 AM", Requirements: "5 logs before 7 AM",
		current: func(f Facts) int { return f.EarlyLogs },
	},
	{
		Code: "night_owl", Title: "Night Owl", Emoji: "🦉", Category: "special_achievements", Target: 5,
		Description: "Log habits after 10 PM", Requirements: "5 logs after 10 PM",
		current: func(f Facts) int { return f.NightLogs },
	},
	{
		Code: "habit_creator", Title: "Habit Creator", Emoji: "🛠️", Category: "special_achievements", Target: 10,
		Description: "Build a collection of habits", Requirements: "Create 10 habits",
		current: func(f Facts) int { return len(f.Habits) },
	},
	{
		Code: "workout_warrior", Title: "Workout Warrior", Emoji: "💪", Category: "fitness", Target: 50,
		Description: "Log 50 units across fitness habits", Requirements: "50 fitness units logged",
		current: func(f Facts) int {
			return sumQuantity(f, func(h HabitFacts) bool { return h.Category == "fitness" })
		},
	},
	{
		Code: "cardio_king", Title: "Cardio King", Emoji: "🏃", Category: "fitness", Target: 30,
		Description: "Log 30 units of cardio", Requirements: "30 cardio units logged",
		current: func(f Facts) int {
			return sumQuantity(f, func(h HabitFacts) bool { return h.Category == "fitness" && h.titleHas("cardio") })
		},
	},
	{
		Code: "flexibility_master", Title: "Flexibility Master", Emoji: "🤸", Category: "fitness", Target: 20,
		Description: "Log 20 units of stretching or yoga", Requirements: "20 flexibility units logged",
		current: func(f Facts) int {
			return sumQuantity(f, func(h HabitFacts) bool { return h.titleHas("stretch", "yoga", "flexibility") })
		},
	},
	{
		Code: "meditation_master", Title: "Meditation Master", Emoji: "🧘", Category: "wellness", Target: 100,
		Description: "Meditate for 100 minutes in total", Requirements: "100 meditation minutes logged",
		current: func(f Facts) int {
			return sumQuantity(f, func(h HabitFacts) bool { return h.titleHas("meditation", "mindfulness") })
		},
	},
	{
		Code: "hydration_hero", Title: "Hydration Hero", Emoji: "💧", Category: "wellness", Target: 14,
		Description: "Track water intake 14 days in a row", Requirements: "14 consecutive days of hydration logs",
		current: func(f Facts) int {
			return dailyRun(f, func(h HabitFacts) bool { return h.titleHas("water", "hydration") })
		},
	},
	{
		Code: "sleep_champion", Title: "Sleep Champion", Emoji: "😴", Category: "wellness", Target: 21,
		Description: "Track your sleep 21 days in a row", Requirements: "21 consecutive days of sleep logs",
		current: func(f Facts) int {
			return dailyRun(f, func(h HabitFacts) bool { return h.titleHas("sleep", "bedtime") })
		},
	},
}

// Progress towards a badge. Current never exceeds Target.
type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// Result is the evaluated state of one badge.
type Result struct {
	Definition Definition
	Status     Status
	Progress   *Progress
}

// Evaluate applies every rule of the catalog to f. A badge with no progress
// at all is locked and carries no Progress.
func Evaluate(catalog []Definition, f Facts) []Result {
	results := make([]Result, 0, len(catalog))
	for _, def := range catalog {
		current := def.current(f)
		if current <= 0 {
			results = append(results, Result{Definition: def, Status: Locked})
			continue
		}
		if current > def.Target {
			current = def.Target
		}
		status := InProgress
		if current >= def.Target {
			status = Earned
		}
		results = append(results, Result{
			Definition: def,
			Status:     status,
			Progress:   &Progress{Current: current, Target: def.Target},
		})
	}
	return results
}
