package badges

import (
	"testing"
	"time"

	"github.com/cppla/habitrack/completion"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBack(today time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

func byCode(results []Result) map[string]Result {
	m := make(map[string]Result, len(results))
	for _, r := range results {
		m[r.Definition.Code] = r
	}
	return m
}

func TestEvaluateNewUserIsAllLocked(t *testing.T) {
	results := Evaluate(Catalog, Facts{Today: date(2024, 3, 10)})
	if len(results) != len(Catalog) {
		t.Fatalf("got %d results, want %d", len(results), len(Catalog))
	}
	for _, r := range results {
		if r.Status != Locked || r.Progress != nil {
			t.Errorf("%s: got %s %+v, want locked without progress", r.Definition.Code, r.Status, r.Progress)
		}
	}
}

func TestEvaluate(t *testing.T) {
	today := date(2024, 3, 10)
	facts := Facts{
		Today: today,
		Habits: []HabitFacts{
			{Title: "Morning Meditation", Category: "mindfulness", Frequency: completion.Daily, TotalQuantity: 120, LogCount: 12, CurrentStreak: 8},
			{Title: "Cardio Workout", Category: "fitness", Frequency: completion.Weekly, TotalQuantity: 12, LogCount: 4, CurrentStreak: 40},
			{Title: "Drink Water", Category: "health", Frequency: completion.Daily, TotalQuantity: 90, LogCount: 5, LogDates: daysBack(today.AddDate(0, 0, -1), 5), CurrentStreak: 5},
		},
		PerfectDays: daysBack(today, 3),
		EarlyLogs:   9,
		NightLogs:   2,
	}
	got := byCode(Evaluate(Catalog, facts))

	cases := []struct {
		code    string
		status  Status
		current int
	}{
		{"first_habit", Earned, 1},
		{"first_log", Earned, 1},
		{"habit_creator", InProgress, 3},
		{"week_warrior", Earned, 7},
		{"streak_master", InProgress, 8},
		{"perfect_week", InProgress, 3},
		{"early_bird", Earned, 5},
		{"night_owl", InProgress, 2},
		{"workout_warrior", InProgress, 12},
		{"cardio_king", InProgress, 12},
		{"meditation_master", Earned, 100},
		{"hydration_hero", InProgress, 5},
		{"flexibility_master", Locked, 0},
		{"sleep_champion", Locked, 0},
	}
	for _, c := range cases {
		r, ok := got[c.code]
		if !ok {
			t.Fatalf("%s missing", c.code)
		}
		if r.Status != c.status {
			t.Errorf("%s: status %s, want %s", c.code, r.Status, c.status)
		}
		if c.status == Locked {
			continue
		}
		if r.Progress == nil || r.Progress.Current != c.current || r.Progress.Target != r.Definition.Target {
			t.Errorf("%s: progress %+v, want current %d", c.code, r.Progress, c.current)
		}
	}
}

func TestHydrationRunBreaksOnGap(t *testing.T) {
	today := date(2024, 3, 10)
	dates := append(daysBack(today, 2), date(2024, 3, 5), date(2024, 3, 4))
	facts := Facts{
		Today:  today,
		Habits: []HabitFacts{{Title: "Hydration", LogDates: dates}},
	}
	r := byCode(Evaluate(Catalog, facts))["hydration_hero"]
	if r.Progress == nil || r.Progress.Current != 2 {
		t.Fatalf("progress %+v, want current 2", r.Progress)
	}
}

func TestCatalogCategoriesExist(t *testing.T) {
	known := map[string]bool{}
	for _, c := range Categories {
		known[c.ID] = true
	}
	seen := map[string]bool{}
	for _, def := range Catalog {
		if !known[def.Category] {
			t.Errorf("%s: unknown category %q", def.Code, def.Category)
		}
		if seen[def.Code] {
			t.Errorf("duplicate code %s", def.Code)
		}
		seen[def.Code] = true
		if def.Target <= 0 {
			t.Errorf("%s: target %d", def.Code, def.Target)
		}
	}
}
