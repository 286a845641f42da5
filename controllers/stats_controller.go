package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/habitrack/completion"
	"github.com/cppla/habitrack/config"
	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/repository"
	"github.com/cppla/habitrack/utils"
)

// StatsController serves habit statistics. Per-habit numbers are read from
// completion records only.
type StatsController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db, now: utils.Now}
}

type dateCount struct {
	Date  time.Time
	Count int
}

// countLogsByDate counts log rows per date for the user's habits within [from, to].
func (s *StatsController) countLogsByDate(ctx *gin.Context, userID uint, from, to time.Time) (map[time.Time]int, error) {
	var rows []dateCount
	err := s.db.WithContext(ctx).Model(&models.HabitLog{}).
		Select("habit_logs.date AS date, COUNT(habit_logs.id) AS count").
		Joins("JOIN habits ON habits.id = habit_logs.habit_id").
		Where("habits.user_id = ? AND habit_logs.date >= ? AND habit_logs.date <= ?", userID, from, to).
		Group("habit_logs.date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[time.Time]int, len(rows))
	for _, r := range rows {
		counts[completion.Day(r.Date)] += r.Count
	}
	return counts, nil
}

// Overview returns the number of log rows per day over the last seven days in chart form.
func (s *StatsController) Overview(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	today := completion.Day(s.now())
	start := today.AddDate(0, 0, -6)
	counts, err := s.countLogsByDate(ctx, userID, start, today)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load overview")
		return
	}
	labels := make([]string, 0, 7)
	data := make([]int, 0, 7)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		labels = append(labels, d.Format("Mon"))
		data = append(data, counts[d])
	}
	utils.Success(ctx, gin.H{
		"labels":   labels,
		"datasets": []gin.H{{"label": "Logs", "data": data}},
	})
}

// DailyCounts returns log counts per day for the last `days` days (1..365, default 30).
func (s *StatsController) DailyCounts(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	days := parseDays(ctx.Query("days"), 30, 365)
	today := completion.Day(s.now())
	start := today.AddDate(0, 0, -(days - 1))
	counts, err := s.countLogsByDate(ctx, userID, start, today)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load daily counts")
		return
	}
	items := make([]gin.H, 0, days)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		items = append(items, gin.H{"date": d.Format(time.DateOnly), "count": counts[d]})
	}
	utils.Success(ctx, items)
}

type streakStats struct {
	HabitID        string  `json:"habit_id"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	CompletionRate float64 `json:"completion_rate"`
}

// Streak returns current and longest streaks and the completion rate since creation.
func (s *StatsController) Streak(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	habit, ok := loadHabit(ctx, s.db, userID, ctx.Param("habit_id"))
	if !ok {
		return
	}

	// records do not change between writes, but "today" does
	cacheKey := utils.StatsCacheKey(habit.ID, "streak:"+completion.Day(s.now()).Format(time.DateOnly))
	var cached streakStats
	if utils.CacheGetJSON(cacheKey, &cached) {
		utils.Success(ctx, cached)
		return
	}

	engine := repository.New(s.db).Engine(s.now)
	streaks, err := engine.ComputeStreaks(ctx, habit.ID)
	if err != nil {
		utils.Sugar.Errorw("compute streaks failed", "habit_id", habit.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to compute streaks")
		return
	}
	rate, err := engine.CompletionRate(ctx, habit.ID, nil, nil)
	if err != nil {
		utils.Sugar.Errorw("compute completion rate failed", "habit_id", habit.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to compute completion rate")
		return
	}

	out := streakStats{
		HabitID:        habit.ID,
		CurrentStreak:  streaks.Current,
		LongestStreak:  streaks.Longest,
		CompletionRate: round2(rate.Percent),
	}
	utils.CacheSetJSON(cacheKey, out, time.Duration(config.Get().StatsCacheTTLSec)*time.Second)
	utils.Success(ctx, out)
}

// Completion returns the completion rate over an optional [start, end] window.
func (s *StatsController) Completion(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	habit, ok := loadHabit(ctx, s.db, userID, ctx.Param("habit_id"))
	if !ok {
		return
	}

	loc := s.now().Location()
	var start, end *time.Time
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start", &start}, {"end", &end}} {
		raw := strings.TrimSpace(ctx.Query(p.name))
		if raw == "" {
			continue
		}
		d, err := parseDate(raw, loc)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, p.name+" must be YYYY-MM-DD")
			return
		}
		*p.dst = &d
	}

	rate, err := repository.New(s.db).Engine(s.now).CompletionRate(ctx, habit.ID, start, end)
	if err != nil {
		utils.Sugar.Errorw("compute completion rate failed", "habit_id", habit.ID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to compute completion rate")
		return
	}
	utils.Success(ctx, gin.H{
		"habit_id":          habit.ID,
		"completed_periods": rate.Completed,
		"total_periods":     rate.Total,
		"completion_rate":   round2(rate.Percent),
	})
}

// DailyProgress reports, for each of the last `days` days, the quantity logged
// and whether the day's completion record is complete. effective_target is the
// target stored on the record, null when the day has no record.
func (s *StatsController) DailyProgress(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	habit, ok := loadHabit(ctx, s.db, userID, ctx.Param("habit_id"))
	if !ok {
		return
	}
	days := parseDays(ctx.Query("days"), 7, 365)
	today := completion.Day(s.now())
	start := today.AddDate(0, 0, -(days - 1))

	store := repository.New(s.db)
	records, err := store.ListCompletions(ctx, habit.ID, start, today)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load progress")
		return
	}
	byDate := make(map[time.Time]completion.Record, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}

	items := make([]gin.H, 0, days)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		item := gin.H{
			"date":             d.Format(time.DateOnly),
			"completed":        false,
			"target":           habit.Target,
			"actual":           0,
			"effective_target": nil,
		}
		if r, ok := byDate[d]; ok {
			item["completed"] = r.IsCompleted
			item["actual"] = r.QuantityAchieved
			item["effective_target"] = r.TargetAtTime
		}
		items = append(items, item)
	}
	utils.Success(ctx, items)
}

// TodayLogs lists every habit of the user with today's logged quantity.
func (s *StatsController) TodayLogs(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var habits []models.Habit
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&habits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load habits")
		return
	}
	ids := make([]string, len(habits))
	for i := range habits {
		ids[i] = habits[i].ID
	}
	today := completion.Day(s.now())
	logs, err := repository.New(s.db).ListLogs(ctx, ids, &today)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load logs")
		return
	}
	byHabit := make(map[string]models.HabitLog, len(logs))
	for _, l := range logs {
		byHabit[l.HabitID] = l
	}

	items := make([]gin.H, 0, len(habits))
	for _, h := range habits {
		item := gin.H{
			"habit_id":         h.ID,
			"title":            h.Title,
			"category":         h.Category,
			"frequency":        h.Frequency,
			"target":           h.Target,
			"logged_today":     false,
			"current_progress": 0,
			"log_id":           nil,
			"log_created_at":   nil,
		}
		if l, ok := byHabit[h.ID]; ok {
			item["logged_today"] = l.Quantity > 0
			item["current_progress"] = l.Quantity
			item["log_id"] = l.ID
			item["log_created_at"] = l.CreatedAt
		}
		items = append(items, item)
	}
	utils.Success(ctx, items)
}

// Recalculate re-evaluates every completion record of the habit from its logs.
func (s *StatsController) Recalculate(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	habit, ok := loadHabit(ctx, s.db, userID, ctx.Param("habit_id"))
	if !ok {
		return
	}
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		count, err = repository.New(tx).Engine(s.now).RecalculateAll(ctx, habit.ID)
		return err
	})
	if err != nil {
		utils.Sugar.Warnw("recalculate failed", "habit_id", habit.ID, "error", err)
		utils.QueueRepair(habit.ID)
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to recalculate completions")
		return
	}
	utils.InvalidateHabitStats(habit.ID)
	utils.Success(ctx, gin.H{"habit_id": habit.ID, "records": count})
}
