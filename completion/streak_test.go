package completion

import (
	"context"
	"testing"
	"time"
)

func TestStreaksFor(t *testing.T) {
	today := date(2024, 3, 15) // Friday
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }

	tests := []struct {
		name  string
		freq  Frequency
		dates []time.Time
		today time.Time
		want  Streaks
	}{
		{"empty", Daily, nil, today, Streaks{}},
		{"three consecutive days", Daily, []time.Time{day(0), day(-1), day(-2)}, today, Streaks{3, 3}},
		{"gap breaks run", Daily, []time.Time{day(0), day(-1), day(-3), day(-4)}, today, Streaks{2, 2}},
		{"run ending yesterday", Daily, []time.Time{day(-1), day(-2)}, today, Streaks{2, 2}},
		{"run ending two days ago", Daily, []time.Time{day(-2), day(-3), day(-4)}, today, Streaks{0, 3}},
		{"longest in the past", Daily, []time.Time{day(0), day(-5), day(-6), day(-7), day(-8)}, today, Streaks{1, 4}},
		{"unordered with duplicates", Daily, []time.Time{day(-1), day(0), day(-1), day(-2)}, today, Streaks{3, 3}},
		{"future dates ignored for current", Daily, []time.Time{day(2), day(0), day(-1)}, today, Streaks{2, 2}},
		{"weekly grouping", Weekly, []time.Time{date(2024, 3, 11), date(2024, 3, 13), date(2024, 3, 15)}, today, Streaks{1, 1}},
		{"weekly consecutive", Weekly, []time.Time{date(2024, 3, 14), date(2024, 3, 4), date(2024, 2, 29)}, today, Streaks{3, 3}},
		{"weekly missing current week", Weekly, []time.Time{date(2024, 3, 4), date(2024, 2, 26)}, today, Streaks{0, 2}},
		{"weekly across year", Weekly, []time.Time{date(2024, 1, 2), date(2023, 12, 27)}, date(2024, 1, 4), Streaks{2, 2}},
		{"monthly rollover", Monthly, []time.Time{date(2023, 12, 20), date(2024, 1, 5)}, date(2024, 1, 10), Streaks{2, 2}},
		{"monthly gap", Monthly, []time.Time{date(2023, 11, 20), date(2024, 1, 5)}, date(2024, 1, 10), Streaks{1, 1}},
		{"monthly leap february", Monthly, []time.Time{date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 1)}, today, Streaks{3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StreaksFor(tt.freq, tt.dates, tt.today)
			if got != tt.want {
				t.Errorf("StreaksFor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeStreaksIgnoresIncompleteRecords(t *testing.T) {
	store := newMemStore()
	store.habits["h"] = Habit{ID: "h", Frequency: Daily, Target: 1, CreatedAt: date(2024, 1, 1)}
	for i, completed := range []bool{true, false, true, true} {
		d := date(2024, 1, 1).AddDate(0, 0, i)
		store.SaveCompletion(context.Background(), Record{HabitID: "h", Date: d, IsCompleted: completed, TargetAtTime: 1})
	}
	engine, _ := newTestEngine(t, store, date(2024, 1, 4))

	got, err := engine.ComputeStreaks(context.Background(), "h")
	if err != nil {
		t.Fatal(err)
	}
	if got != (Streaks{Current: 2, Longest: 2}) {
		t.Errorf("got %+v", got)
	}
}
