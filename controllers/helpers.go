package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/habitrack/completion"
	"github.com/cppla/habitrack/middleware"
	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/utils"
)

const (
	maxTitleRunes       = 255
	maxDescriptionRunes = 512
)

func requireUser(ctx *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return 0, false
	}
	return userID, true
}

// findOwnedHabit loads a habit of the user. Habits of other users are reported
// as missing.
func findOwnedHabit(db *gorm.DB, userID uint, habitID string) (models.Habit, error) {
	var habit models.Habit
	err := db.Where("id = ? AND user_id = ?", habitID, userID).Take(&habit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return habit, completion.ErrNotFound
	}
	return habit, err
}

// loadHabit writes the error response itself and reports whether the caller may continue.
func loadHabit(ctx *gin.Context, db *gorm.DB, userID uint, habitID string) (models.Habit, bool) {
	habit, err := findOwnedHabit(db.WithContext(ctx), userID, strings.TrimSpace(habitID))
	switch {
	case err == nil:
		return habit, true
	case errors.Is(err, completion.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "habit not found")
	default:
		utils.Sugar.Errorw("load habit failed", "habit_id", habitID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load habit")
	}
	return habit, false
}

// userHabitIDs lists the ids of every habit the user owns.
func userHabitIDs(db *gorm.DB, userID uint) ([]string, error) {
	var ids []string
	err := db.Model(&models.Habit{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}

// parseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar date in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return completion.Day(t), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return completion.Day(t.In(loc)), nil
}

// parseDays reads a "days" query value clamped to [1, maxDays].
func parseDays(raw string, def, maxDays int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxDays {
		return maxDays
	}
	return n
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
