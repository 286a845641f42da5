package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/utils"
)

func TestCreateHabitDefaultsAndSanitizes(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))

	var habit models.Habit
	env.mustOK(http.MethodPost, "/api/v1/habits", map[string]any{"title": "  <b>Read</b> books "}, &habit)
	if habit.Title != "Read books" {
		t.Errorf("title = %q", habit.Title)
	}
	if habit.Frequency != "daily" || habit.Target != 1 || habit.Category != "other" {
		t.Errorf("defaults = %s/%d/%s", habit.Frequency, habit.Target, habit.Category)
	}
	if habit.ID == "" || habit.UserID != env.user.ID {
		t.Errorf("id %q user %d", habit.ID, habit.UserID)
	}
}

func TestCreateHabitValidation(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"target": 2}},
		{"blank title", map[string]any{"title": "<i></i>"}},
		{"bad frequency", map[string]any{"title": "Run", "frequency": "hourly"}},
		{"zero target", map[string]any{"title": "Run", "target": 0}},
		{"bad category", map[string]any{"title": "Run", "category": "gaming"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, resp := env.request(http.MethodPost, "/api/v1/habits", c.body)
			if w.Code != http.StatusBadRequest || resp.Code != 40011 && resp.Code != 40010 {
				t.Fatalf("status %d code %d", w.Code, resp.Code)
			}
		})
	}
}

func TestHabitsOfOtherUsersAreHidden(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	habit := env.createHabit("daily", 1, date(2024, 1, 1))
	_, otherToken := env.createUser("someone")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w, resp := env.requestAs(otherToken, method, "/api/v1/habits/"+habit.ID, nil)
		if w.Code != http.StatusNotFound || resp.Code != 40401 {
			t.Errorf("%s: status %d code %d", method, w.Code, resp.Code)
		}
	}

	var list struct {
		Items []models.Habit `json:"items"`
		Total int            `json:"total"`
	}
	env.mustOK(http.MethodGet, "/api/v1/habits", nil, &list)
	if list.Total != 1 || list.Items[0].ID != habit.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestUpdateTargetKeepsPastRecords(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	habit := env.createHabit("daily", 3, date(2024, 1, 1))

	env.mustOK(http.MethodPost, "/api/v1/habits/"+habit.ID+"/log", map[string]any{"quantity": 1}, nil)
	env.mustOK(http.MethodPost, "/api/v1/habits/"+habit.ID+"/log", map[string]any{"quantity": 2}, nil)

	env.now = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	var updated models.Habit
	env.mustOK(http.MethodPut, "/api/v1/habits/"+habit.ID, map[string]any{"target": 5}, &updated)
	if updated.Target != 5 {
		t.Fatalf("target = %d", updated.Target)
	}

	rec, ok := env.completion(habit.ID, date(2024, 1, 1))
	if !ok {
		t.Fatal("record for 2024-01-01 missing")
	}
	if rec.TargetAtTime != 3 || !rec.IsCompleted || rec.QuantityAchieved != 3 {
		t.Errorf("record = %+v", rec)
	}
	if _, ok := env.completion(habit.ID, date(2024, 1, 2)); ok {
		t.Error("no record expected for 2024-01-02")
	}
}

func TestUpdateTargetMovesTodaysRecord(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	habit := env.createHabit("daily", 2, date(2024, 1, 1))

	env.mustOK(http.MethodPost, "/api/v1/habits/"+habit.ID+"/log", map[string]any{"quantity": 2}, nil)
	if rec, _ := env.completion(habit.ID, date(2024, 1, 2)); !rec.IsCompleted {
		t.Fatalf("expected completed before target change: %+v", rec)
	}

	env.mustOK(http.MethodPut, "/api/v1/habits/"+habit.ID, map[string]any{"target": 4}, nil)
	rec, ok := env.completion(habit.ID, date(2024, 1, 2))
	if !ok || rec.TargetAtTime != 4 || rec.IsCompleted {
		t.Fatalf("record after change = %+v", rec)
	}
}

func TestUpdateTargetCommitsWhenReconciliationFails(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	habit := env.createHabit("daily", 3, date(2024, 1, 1))
	env.mustOK(http.MethodPost, "/api/v1/habits/"+habit.ID+"/log", map[string]any{"quantity": 2}, nil)

	failCompletions := true
	err := env.db.Callback().Create().Before("gorm:create").Register("test:fail_completions", func(tx *gorm.DB) {
		if failCompletions && tx.Statement.Table == "habit_completions" {
			tx.AddError(errors.New("completion store unavailable"))
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	var updated models.Habit
	env.mustOK(http.MethodPut, "/api/v1/habits/"+habit.ID, map[string]any{"target": 2}, &updated)
	failCompletions = false
	if updated.Target != 2 {
		t.Fatalf("response target = %d", updated.Target)
	}

	var stored models.Habit
	if err := env.db.First(&stored, "id = ?", habit.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Target != 2 {
		t.Fatalf("stored target = %d, want 2", stored.Target)
	}
	rec, ok := env.completion(habit.ID, date(2024, 1, 2))
	if !ok || rec.TargetAtTime != 3 || rec.IsCompleted || rec.QuantityAchieved != 2 {
		t.Fatalf("record should be untouched: %+v", rec)
	}

	queued := map[string]bool{}
	utils.DrainRepairs(context.Background(), func(_ context.Context, id string) error {
		queued[id] = true
		return nil
	})
	if !queued[habit.ID] {
		t.Fatalf("habit %s not queued for repair: %v", habit.ID, queued)
	}
}

func TestUpdateFrequencyRecalculates(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))
	habit := env.createHabit("daily", 3, date(2024, 1, 1))

	// Mon 1st and Tue 2nd: 2 each, neither day reaches 3 on its own
	for _, d := range []string{"2024-01-01", "2024-01-02"} {
		env.mustOK(http.MethodPost, "/api/v1/habits/"+habit.ID+"/log", map[string]any{"quantity": 2, "date": d}, nil)
	}
	if rec, _ := env.completion(habit.ID, date(2024, 1, 2)); rec.IsCompleted {
		t.Fatal("daily record should be incomplete")
	}

	env.mustOK(http.MethodPut, "/api/v1/habits/"+habit.ID, map[string]any{"frequency": "weekly"}, nil)
	for _, d := range []time.Time{date(2024, 1, 1), date(2024, 1, 2)} {
		rec, ok := env.completion(habit.ID, d)
		if !ok || !rec.IsCompleted {
			t.Errorf("%s: weekly total 4 should complete target 3: %+v", d.Format(time.DateOnly), rec)
		}
	}
}

func TestDeleteHabitRemovesLogsAndRecords(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	habit := env.createHabit("daily", 1, date(2024, 1, 1))
	env.mustOK(http.MethodPost, "/api/v1/habits/"+habit.ID+"/log", map[string]any{"quantity": 1}, nil)

	env.mustOK(http.MethodDelete, "/api/v1/habits/"+habit.ID, nil, nil)

	var logs, records int64
	env.db.Model(&models.HabitLog{}).Where("habit_id = ?", habit.ID).Count(&logs)
	env.db.Model(&models.HabitCompletion{}).Where("habit_id = ?", habit.ID).Count(&records)
	if logs != 0 || records != 0 {
		t.Fatalf("logs=%d records=%d left behind", logs, records)
	}
	if w, _ := env.request(http.MethodGet, "/api/v1/habits/"+habit.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("status %d after delete", w.Code)
	}
}
