package completion

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestUpsertForDateSnapshotsTarget(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["h1"] = Habit{ID: "h1", Frequency: Daily, Target: 3, CreatedAt: date(2024, 1, 1)}
	engine, _ := newTestEngine(t, store, date(2024, 1, 1).Add(20*time.Hour))

	store.addLog("h1", date(2024, 1, 1), 1)
	rec, err := engine.UpsertForDate(ctx, "h1", date(2024, 1, 1))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.IsCompleted || rec.TargetAtTime != 3 || rec.QuantityAchieved != 1 {
		t.Fatalf("unexpected record after first log: %+v", rec)
	}

	store.addLog("h1", date(2024, 1, 1), 2)
	rec, err = engine.UpsertForDate(ctx, "h1", date(2024, 1, 1))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !rec.IsCompleted || rec.QuantityAchieved != 3 {
		t.Fatalf("expected completed record with quantity 3, got %+v", rec)
	}
	if len(store.completions["h1"]) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(store.completions["h1"]))
	}
}

func TestUpsertForDateKeepsStoredTarget(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["h1"] = Habit{ID: "h1", Frequency: Daily, Target: 2, CreatedAt: date(2024, 1, 1)}
	engine, _ := newTestEngine(t, store, date(2024, 1, 5))

	store.addLog("h1", date(2024, 1, 2), 1)
	if _, err := engine.UpsertForDate(ctx, "h1", date(2024, 1, 2)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// target raised later; a backdated log must still be judged against 2
	h := store.habits["h1"]
	h.Target = 10
	store.habits["h1"] = h

	store.addLog("h1", date(2024, 1, 2), 1)
	rec, err := engine.UpsertForDate(ctx, "h1", date(2024, 1, 2))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !rec.IsCompleted || rec.TargetAtTime != 2 {
		t.Fatalf("expected completion against stored target 2, got %+v", rec)
	}
}

func TestUpsertForDateUnknownHabit(t *testing.T) {
	engine, _ := newTestEngine(t, newMemStore(), date(2024, 1, 1))
	if _, err := engine.UpsertForDate(context.Background(), "missing", date(2024, 1, 1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWeeklyRecordsUsePeriodTotal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["w"] = Habit{ID: "w", Frequency: Weekly, Target: 2, CreatedAt: date(2024, 3, 1)}
	engine, _ := newTestEngine(t, store, date(2024, 3, 15))

	mon, wed := date(2024, 3, 11), date(2024, 3, 13)
	store.addLog("w", mon, 1)
	if _, err := engine.UpsertForDate(ctx, "w", mon); err != nil {
		t.Fatal(err)
	}
	store.addLog("w", wed, 1)
	rec, err := engine.UpsertForDate(ctx, "w", wed)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.IsCompleted || rec.QuantityAchieved != 1 {
		t.Fatalf("expected Wednesday record completed by weekly total, got %+v", rec)
	}
	if store.completions["w"][mon].IsCompleted {
		t.Fatal("Monday record should not change until recalculated")
	}

	if _, err := engine.RecalculateAll(ctx, "w"); err != nil {
		t.Fatal(err)
	}
	if !store.completions["w"][mon].IsCompleted {
		t.Fatal("Monday record should be completed after recalculation")
	}
}

func TestRecalculateAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["h1"] = Habit{ID: "h1", Frequency: Weekly, Target: 3, CreatedAt: date(2024, 1, 1)}
	engine, _ := newTestEngine(t, store, date(2024, 1, 20))

	for _, d := range []time.Time{date(2024, 1, 1), date(2024, 1, 3), date(2024, 1, 5), date(2024, 1, 9)} {
		store.addLog("h1", d, 1)
		if _, err := engine.UpsertForDate(ctx, "h1", d); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := engine.RecalculateAll(ctx, "h1"); err != nil {
		t.Fatal(err)
	}
	first := snapshot(store, "h1")
	saves := store.saves

	n, err := engine.RecalculateAll(ctx, "h1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected 4 records examined, got %d", n)
	}
	if store.saves != saves {
		t.Errorf("second pass wrote %d records, want 0", store.saves-saves)
	}
	if !reflect.DeepEqual(first, snapshot(store, "h1")) {
		t.Error("records changed on second recalculation")
	}
}

func TestRecalculateAllKeepsTargetAtTime(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["h1"] = Habit{ID: "h1", Frequency: Daily, Target: 1, CreatedAt: date(2024, 1, 1)}
	engine, _ := newTestEngine(t, store, date(2024, 1, 3))

	store.addLog("h1", date(2024, 1, 1), 1)
	if _, err := engine.UpsertForDate(ctx, "h1", date(2024, 1, 1)); err != nil {
		t.Fatal(err)
	}
	h := store.habits["h1"]
	h.Target = 4
	store.habits["h1"] = h

	if _, err := engine.RecalculateAll(ctx, "h1"); err != nil {
		t.Fatal(err)
	}
	rec := store.completions["h1"][date(2024, 1, 1)]
	if !rec.IsCompleted || rec.TargetAtTime != 1 {
		t.Fatalf("historical record rewritten: %+v", rec)
	}
}

func TestRebuildMaterializesMissingRecords(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["h1"] = Habit{ID: "h1", Frequency: Daily, Target: 2, CreatedAt: date(2024, 1, 1)}
	engine, _ := newTestEngine(t, store, date(2024, 1, 4))

	store.addLog("h1", date(2024, 1, 1), 2)
	store.addLog("h1", date(2024, 1, 2), 1)
	store.addLog("h1", date(2024, 1, 3), 2)

	n, err := engine.Rebuild(ctx, "h1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 dates rebuilt, got %d", n)
	}
	want := map[time.Time]bool{date(2024, 1, 1): true, date(2024, 1, 2): false, date(2024, 1, 3): true}
	for d, completed := range want {
		rec, ok := store.completions["h1"][d]
		if !ok {
			t.Fatalf("missing record for %s", d.Format(time.DateOnly))
		}
		if rec.IsCompleted != completed {
			t.Errorf("%s: completed = %v, want %v", d.Format(time.DateOnly), rec.IsCompleted, completed)
		}
	}
}

func TestOnTargetChangedOnlyTouchesTodayAndLater(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["h1"] = Habit{ID: "h1", Frequency: Daily, Target: 2, CreatedAt: date(2024, 1, 1)}
	engine, clock := newTestEngine(t, store, date(2024, 1, 1))

	store.addLog("h1", date(2024, 1, 1), 2)
	if _, err := engine.UpsertForDate(ctx, "h1", date(2024, 1, 1)); err != nil {
		t.Fatal(err)
	}
	clock.t = date(2024, 1, 2).Add(9 * time.Hour)
	store.addLog("h1", date(2024, 1, 2), 2)
	if _, err := engine.UpsertForDate(ctx, "h1", date(2024, 1, 2)); err != nil {
		t.Fatal(err)
	}

	h := store.habits["h1"]
	h.Target = 5
	store.habits["h1"] = h
	n, err := engine.OnTargetChanged(ctx, "h1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record updated, got %d", n)
	}

	past := store.completions["h1"][date(2024, 1, 1)]
	if past.TargetAtTime != 2 || !past.IsCompleted {
		t.Errorf("past record changed: %+v", past)
	}
	today := store.completions["h1"][date(2024, 1, 2)]
	if today.TargetAtTime != 5 || today.IsCompleted {
		t.Errorf("today's record not reconciled: %+v", today)
	}
}

func TestOnTargetChangedRejectsInvalidTarget(t *testing.T) {
	store := newMemStore()
	store.habits["h1"] = Habit{ID: "h1", Frequency: Daily, Target: 2, CreatedAt: date(2024, 1, 1)}
	engine, _ := newTestEngine(t, store, date(2024, 1, 1))
	for _, target := range []int{0, -1} {
		if _, err := engine.OnTargetChanged(context.Background(), "h1", target); !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("target %d: expected ErrInvalidTarget, got %v", target, err)
		}
	}
}

func TestTargetChangeScenario(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.habits["h"] = Habit{ID: "h", Frequency: Daily, Target: 3, CreatedAt: date(2024, 1, 1)}
	engine, clock := newTestEngine(t, store, date(2024, 1, 1).Add(8*time.Hour))

	store.addLog("h", date(2024, 1, 1), 1)
	if _, err := engine.UpsertForDate(ctx, "h", date(2024, 1, 1)); err != nil {
		t.Fatal(err)
	}
	store.addLog("h", date(2024, 1, 1), 2)
	if _, err := engine.UpsertForDate(ctx, "h", date(2024, 1, 1)); err != nil {
		t.Fatal(err)
	}
	rec := store.completions["h"][date(2024, 1, 1)]
	if !rec.IsCompleted || rec.TargetAtTime != 3 || rec.QuantityAchieved != 3 {
		t.Fatalf("day one record: %+v", rec)
	}

	clock.t = date(2024, 1, 2).Add(8 * time.Hour)
	h := store.habits["h"]
	h.Target = 5
	store.habits["h"] = h
	if _, err := engine.OnTargetChanged(ctx, "h", 5); err != nil {
		t.Fatal(err)
	}
	rec = store.completions["h"][date(2024, 1, 1)]
	if !rec.IsCompleted || rec.TargetAtTime != 3 {
		t.Fatalf("day one record changed after target change: %+v", rec)
	}

	store.addLog("h", date(2024, 1, 2), 5)
	rec, err := engine.UpsertForDate(ctx, "h", date(2024, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !rec.IsCompleted || rec.TargetAtTime != 5 {
		t.Fatalf("day two record: %+v", rec)
	}

	streaks, err := engine.ComputeStreaks(ctx, "h")
	if err != nil {
		t.Fatal(err)
	}
	if streaks.Current != 2 || streaks.Longest != 2 {
		t.Errorf("streaks = %+v, want current 2 longest 2", streaks)
	}
}

func snapshot(store *memStore, habitID string) map[time.Time]Record {
	out := make(map[time.Time]Record, len(store.completions[habitID]))
	for d, rec := range store.completions[habitID] {
		out[d] = rec
	}
	return out
}
