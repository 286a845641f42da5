package completion

import (
	"context"
	"sort"
	"testing"
	"time"
)

type logEntry struct {
	date time.Time
	qty  int
}

// memStore is an in-memory HabitStore, LogStore and CompletionStore.
type memStore struct {
	habits      map[string]Habit
	logs        map[string][]logEntry
	completions map[string]map[time.Time]Record
	saves       int
}

func newMemStore() *memStore {
	return &memStore{
		habits:      map[string]Habit{},
		logs:        map[string][]logEntry{},
		completions: map[string]map[time.Time]Record{},
	}
}

func (m *memStore) GetHabit(_ context.Context, id string) (Habit, error) {
	h, ok := m.habits[id]
	if !ok {
		return Habit{}, ErrNotFound
	}
	return h, nil
}

func (m *memStore) SumQuantity(_ context.Context, habitID string, start, end time.Time) (int, error) {
	total := 0
	for _, l := range m.logs[habitID] {
		if !l.date.Before(start) && !l.date.After(end) {
			total += l.qty
		}
	}
	return total, nil
}

func (m *memStore) SumQuantityForDate(ctx context.Context, habitID string, date time.Time) (int, error) {
	return m.SumQuantity(ctx, habitID, date, date)
}

func (m *memStore) LogDates(_ context.Context, habitID string) ([]time.Time, error) {
	seen := map[time.Time]bool{}
	var dates []time.Time
	for _, l := range m.logs[habitID] {
		if !seen[l.date] {
			seen[l.date] = true
			dates = append(dates, l.date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (m *memStore) GetCompletion(_ context.Context, habitID string, date time.Time) (Record, error) {
	rec, ok := m.completions[habitID][date]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *memStore) SaveCompletion(_ context.Context, rec Record) error {
	if m.completions[rec.HabitID] == nil {
		m.completions[rec.HabitID] = map[time.Time]Record{}
	}
	m.completions[rec.HabitID][rec.Date] = rec
	m.saves++
	return nil
}

func (m *memStore) ListCompletions(_ context.Context, habitID string, from, to time.Time) ([]Record, error) {
	var out []Record
	for d, rec := range m.completions[habitID] {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStore) addLog(habitID string, date time.Time, qty int) {
	m.logs[habitID] = append(m.logs[habitID], logEntry{date: Day(date), qty: qty})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestEngine(t *testing.T, store *memStore, now time.Time) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{t: now}
	return NewEngine(store, store, store, WithClock(clock.now)), clock
}
