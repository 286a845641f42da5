package controllers

import (
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

// LogController records progress on habits.
type LogController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLogController creates a LogController.
func NewLogController(db *gorm.DB) *LogController {
	return &LogController{db: db, now: utils.Now}
}

// LogHabit adds quantity to the habit's log for a date (today by default) and
// updates the completion record of that date in the same transaction. A day's
// total may not exceed the habit's current target.
func (l *LogController) LogHabit(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req struct {
		Quantity *int   `json:"quantity"`
		Date     string `json:"date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40021, "quantity must be positive")
		return
	}

	now := l.now()
	today := completion.Day(now)
	date := today
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDate(req.Date, now.Location())
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40022, "date must be YYYY-MM-DD")
			return
		}
		if d.After(today) {
			utils.Error(ctx, http.StatusBadRequest, 40023, "cannot log a future date")
			return
		}
		date = d
	}

	habit, ok := loadHabit(ctx, l.db, userID, ctx.Param("id"))
	if !ok {
		return
	}

	var (
		total  int
		record completion.Record
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := repository.New(tx)
		var err error
		total, err = store.UpsertAdd(ctx, habit.ID, date, quantity, habit.Target)
		if err != nil {
			return err
		}
		record, err = store.Engine(l.now).UpsertForDate(ctx, habit.ID, date)
		return err
	})

	var exceeded *completion.TargetExceededError
	switch {
	case errors.As(err, &exceeded):
		utils.Respond(ctx, http.StatusBadRequest, 40024, exceeded.Error(), gin.H{
			"target":    exceeded.Target,
			"current":   exceeded.Current,
			"remaining": max(exceeded.Remaining(), 0),
		})
		return
	case errors.Is(err, completion.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "habit not found")
		return
	case err != nil:
		utils.Sugar.Errorw("log habit failed", "habit_id", habit.ID, "date", date.Format(time.DateOnly), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to log habit")
		return
	}

	utils.InvalidateHabitStats(habit.ID)
	utils.Success(ctx, gin.H{
		"habit_id":    habit.ID,
		"date":        date.Format(time.DateOnly),
		"quantity":    quantity,
		"daily_total": total,
		"completion":  recordResponse(record),
	})
}

// ListLogs returns the user's log rows, optionally narrowed to one habit and one date.
func (l *LogController) ListLogs(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var habitIDs []string
	if id := strings.TrimSpace(ctx.Query("habit_id")); id != "" {
		habit, ok := loadHabit(ctx, l.db, userID, id)
		if !ok {
			return
		}
		habitIDs = []string{habit.ID}
	} else {
		ids, err := userHabitIDs(l.db.WithContext(ctx), userID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list logs")
			return
		}
		habitIDs = ids
	}

	var date *time.Time
	if raw := strings.TrimSpace(ctx.Query("date")); raw != "" {
		d, err := parseDate(raw, l.now().Location())
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40022, "date must be YYYY-MM-DD")
			return
		}
		date = &d
	}

	logs, err := repository.New(l.db).ListLogs(ctx, habitIDs, date)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list logs")
		return
	}
	utils.Success(ctx, gin.H{"items": logItems(logs), "total": len(logs)})
}

func logItems(logs []models.HabitLog) []gin.H {
	items := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		items = append(items, gin.H{
			"id":         log.ID,
			"habit_id":   log.HabitID,
			"date":       completion.Day(log.Date).Format(time.DateOnly),
			"quantity":   log.Quantity,
			"created_at": log.CreatedAt,
			"updated_at": log.UpdatedAt,
		})
	}
	return items
}

func recordResponse(r completion.Record) gin.H {
	return gin.H{
		"date":              r.Date.Format(time.DateOnly),
		"is_completed":      r.IsCompleted,
		"target_at_time":    r.TargetAtTime,
		"quantity_achieved": r.QuantityAchieved,
	}
}
