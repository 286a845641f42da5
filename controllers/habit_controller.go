package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/habitrack/completion"
	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/repository"
	"github.com/cppla/habitrack/utils"
)

// HabitController manages the user's habits.
type HabitController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewHabitController creates a HabitController.
func NewHabitController(db *gorm.DB) *HabitController {
	return &HabitController{db: db, now: utils.Now}
}

type habitInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	Target      *int    `json:"target"`
	Category    *string `json:"category"`
}

// apply validates the input and copies it onto habit. It returns a message for
// the first invalid field.
func (in habitInput) apply(habit *models.Habit) string {
	if in.Title != nil {
		title := utils.SanitizeText(*in.Title, maxTitleRunes)
		if title == "" {
			return "title cannot be empty"
		}
		habit.Title = title
	}
	if in.Description != nil {
		habit.Description = utils.SanitizeText(*in.Description, maxDescriptionRunes)
	}
	if in.Frequency != nil {
		freq, err := completion.ParseFrequency(strings.ToLower(strings.TrimSpace(*in.Frequency)))
		if err != nil {
			return "frequency must be daily, weekly or monthly"
		}
		habit.Frequency = string(freq)
	}
	if in.Target != nil {
		if *in.Target <= 0 {
			return "target must be positive"
		}
		habit.Target = *in.Target
	}
	if in.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*in.Category))
		if !models.ValidCategory(category) {
			return "invalid category"
		}
		habit.Category = category
	}
	return ""
}

// ListHabits returns the user's habits, newest first.
func (h *HabitController) ListHabits(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var habits []models.Habit
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&habits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list habits")
		return
	}
	utils.Success(ctx, gin.H{"items": habits, "total": len(habits)})
}

// GetHabit returns one habit.
func (h *HabitController) GetHabit(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	habit, ok := loadHabit(ctx, h.db, userID, ctx.Param("id"))
	if !ok {
		return
	}
	utils.Success(ctx, habit)
}

// CreateHabit stores a new habit. Frequency defaults to daily, target to 1 and
// category to other.
func (h *HabitController) CreateHabit(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var in habitInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	if in.Title == nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "title is required")
		return
	}

	habit := models.Habit{
		UserID:    userID,
		Frequency: string(completion.Daily),
		Target:    1,
		Category:  "other",
	}
	if msg := in.apply(&habit); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, msg)
		return
	}
	if err := h.db.WithContext(ctx).Create(&habit).Error; err != nil {
		utils.Sugar.Errorw("create habit failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create habit")
		return
	}
	utils.Success(ctx, habit)
}

// UpdateHabit applies a partial update. A changed frequency re-evaluates every
// record; a changed target moves records from today onward to the new target.
// Both are best effort: failures are logged and queued for repair while the
// habit update itself commits.
func (h *HabitController) UpdateHabit(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var in habitInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	habit, ok := loadHabit(ctx, h.db, userID, ctx.Param("id"))
	if !ok {
		return
	}

	oldTarget, oldFrequency := habit.Target, habit.Frequency
	if msg := in.apply(&habit); msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, msg)
		return
	}

	needsRepair := false
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&habit).Error; err != nil {
			return err
		}
		engine := repository.New(tx).Engine(h.now)
		if habit.Frequency != oldFrequency {
			if !reconcile(ctx, tx, habit.ID, "recalculate", func(c context.Context) error {
				_, err := engine.RecalculateAll(c, habit.ID)
				return err
			}) {
				needsRepair = true
			}
		}
		if habit.Target != oldTarget {
			if !reconcile(ctx, tx, habit.ID, "target change", func(c context.Context) error {
				_, err := engine.OnTargetChanged(c, habit.ID, habit.Target)
				return err
			}) {
				needsRepair = true
			}
		}
		return nil
	})
	if err != nil {
		utils.Sugar.Errorw("update habit failed", "habit_id", habit.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to update habit")
		return
	}
	if needsRepair {
		utils.QueueRepair(habit.ID)
	}
	utils.InvalidateHabitStats(habit.ID)
	utils.Success(ctx, habit)
}

// reconcile runs fn behind a savepoint so a failed bulk update is rolled back
// on its own and the enclosing transaction can still commit.
func reconcile(ctx context.Context, tx *gorm.DB, habitID, op string, fn func(context.Context) error) bool {
	const savepoint = "reconcile"
	if err := tx.SavePoint(savepoint).Error; err != nil {
		utils.Sugar.Warnw("completion reconciliation skipped", "habit_id", habitID, "op", op, "error", err)
		return false
	}
	if err := fn(ctx); err != nil {
		utils.Sugar.Warnw("completion reconciliation failed", "habit_id", habitID, "op", op, "error", err)
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			utils.Sugar.Warnw("rollback to savepoint failed", "habit_id", habitID, "error", rbErr)
		}
		return false
	}
	return true
}

// DeleteHabit removes the habit together with its logs and completion records.
func (h *HabitController) DeleteHabit(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	habit, ok := loadHabit(ctx, h.db, userID, ctx.Param("id"))
	if !ok {
		return
	}
	err := repository.New(h.db).DeleteHabit(ctx, habit.ID)
	if err != nil && !errors.Is(err, completion.ErrNotFound) {
		utils.Sugar.Errorw("delete habit failed", "habit_id", habit.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to delete habit")
		return
	}
	utils.InvalidateHabitStats(habit.ID)
	utils.Success(ctx, gin.H{"message": "habit deleted"})
}
