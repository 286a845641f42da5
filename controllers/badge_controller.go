package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/habitrack/badges"
	"github.com/cppla/habitrack/completion"
	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/repository"
	"github.com/cppla/habitrack/utils"
)

const (
	earlyBirdHour = 7
	nightOwlHour  = 22
)

// BadgeController evaluates and lists achievements.
type BadgeController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBadgeController creates a BadgeController.
func NewBadgeController(db *gorm.DB) *BadgeController {
	return &BadgeController{db: db, now: utils.Now}
}

// ListBadges evaluates every badge for the user, records newly earned ones and
// returns the catalog grouped by category.
func (b *BadgeController) ListBadges(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	facts, err := b.collectFacts(ctx, userID)
	if err != nil {
		utils.Sugar.Errorw("collect badge facts failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to evaluate badges")
		return
	}
	results := badges.Evaluate(badges.Catalog, facts)

	achieved, err := b.recordEarned(ctx, userID, results)
	if err != nil {
		utils.Sugar.Errorw("record badges failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to record badges")
		return
	}

	grouped := make(map[string][]gin.H, len(badges.Categories))
	earned := 0
	for _, r := range results {
		item := gin.H{
			"id":           r.Definition.Code,
			"title":        r.Definition.Title,
			"description":  r.Definition.Description,
			"emoji":        r.Definition.Emoji,
			"requirements": r.Definition.Requirements,
			"status":       r.Status,
			"progress":     r.Progress,
			"earned_at":    nil,
		}
		if r.Status == badges.Earned {
			earned++
			if at, ok := achieved[r.Definition.Code]; ok {
				item["earned_at"] = at
			}
		}
		grouped[r.Definition.Category] = append(grouped[r.Definition.Category], item)
	}

	categories := make([]gin.H, 0, len(badges.Categories))
	for _, c := range badges.Categories {
		items := grouped[c.ID]
		if items == nil {
			items = []gin.H{}
		}
		categories = append(categories, gin.H{"id": c.ID, "name": c.Name, "emoji": c.Emoji, "badges": items})
	}

	percent := 0
	if len(results) > 0 {
		percent = earned * 100 / len(results)
	}
	utils.Success(ctx, gin.H{
		"categories":            categories,
		"total_badges":          len(results),
		"earned_badges":         earned,
		"completion_percentage": percent,
	})
}

// recordEarned stores earned badges once and returns when each stored badge was first achieved.
func (b *BadgeController) recordEarned(ctx context.Context, userID uint, results []badges.Result) (map[string]time.Time, error) {
	db := b.db.WithContext(ctx)
	now := b.now().UTC()
	for _, r := range results {
		if r.Status != badges.Earned {
			continue
		}
		row := models.Badge{UserID: userID, Code: r.Definition.Code, AchievedAt: now}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return nil, err
		}
	}
	var rows []models.Badge
	if err := db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	achieved := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		achieved[row.Code] = row.AchievedAt
	}
	return achieved, nil
}

func (b *BadgeController) collectFacts(ctx context.Context, userID uint) (badges.Facts, error) {
	now := b.now()
	facts := badges.Facts{Today: completion.Day(now)}

	var habits []models.Habit
	if err := b.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&habits).Error; err != nil {
		return facts, err
	}
	if len(habits) == 0 {
		return facts, nil
	}
	ids := make([]string, len(habits))
	for i := range habits {
		ids[i] = habits[i].ID
	}

	store := repository.New(b.db)
	logs, err := store.ListLogs(ctx, ids, nil)
	if err != nil {
		return facts, err
	}
	perHabit := make(map[string]*badges.HabitFacts, len(habits))
	for _, h := range habits {
		perHabit[h.ID] = &badges.HabitFacts{
			Title:     h.Title,
			Category:  h.Category,
			Frequency: completion.Frequency(h.Frequency),
		}
	}
	for _, l := range logs {
		hf := perHabit[l.HabitID]
		hf.TotalQuantity += l.Quantity
		hf.LogCount++
		hf.LogDates = append(hf.LogDates, completion.Day(l.Date))

		switch hour := l.CreatedAt.In(now.Location()).Hour(); {
		case hour < earlyBirdHour:
			facts.EarlyLogs++
		case hour >= nightOwlHour:
			facts.NightLogs++
		}
	}

	// a day is perfect when every daily habit that existed then was completed
	engine := store.Engine(b.now)
	var daily []models.Habit
	completedOn := map[string]map[time.Time]bool{}
	candidates := map[time.Time]bool{}
	for _, h := range habits {
		if completion.Frequency(h.Frequency) != completion.Daily {
			continue
		}
		daily = append(daily, h)
		streaks, err := engine.ComputeStreaks(ctx, h.ID)
		if err != nil {
			return facts, err
		}
		perHabit[h.ID].CurrentStreak = streaks.Current

		records, err := store.ListCompletions(ctx, h.ID, time.Time{}, time.Time{})
		if err != nil {
			return facts, err
		}
		done := map[time.Time]bool{}
		for _, d := range completion.SuccessfulDates(records) {
			done[d] = true
			candidates[d] = true
		}
		completedOn[h.ID] = done
	}
	for d := range candidates {
		perfect := false
		for _, h := range daily {
			if completion.Day(h.CreatedAt.In(now.Location())).After(d) {
				continue
			}
			if !completedOn[h.ID][d] {
				perfect = false
				break
			}
			perfect = true
		}
		if perfect {
			facts.PerfectDays = append(facts.PerfectDays, d)
		}
	}

	for _, h := range habits {
		facts.Habits = append(facts.Habits, *perHabit[h.ID])
	}
	return facts, nil
}
