package completion

import (
	"errors"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		freq      Frequency
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"daily", Daily, time.Date(2024, 3, 13, 18, 30, 0, 0, time.UTC), date(2024, 3, 13), date(2024, 3, 13)},
		{"weekly midweek", Weekly, date(2024, 3, 13), date(2024, 3, 11), date(2024, 3, 17)},
		{"weekly monday", Weekly, date(2024, 3, 11), date(2024, 3, 11), date(2024, 3, 17)},
		{"weekly sunday", Weekly, date(2024, 3, 17), date(2024, 3, 11), date(2024, 3, 17)},
		{"weekly across year", Weekly, date(2025, 1, 1), date(2024, 12, 30), date(2025, 1, 5)},
		{"monthly", Monthly, date(2024, 2, 14), date(2024, 2, 1), date(2024, 2, 29)},
		{"monthly december", Monthly, date(2023, 12, 31), date(2023, 12, 1), date(2023, 12, 31)},
		{"unknown falls back to daily", Frequency("hourly"), date(2024, 3, 13), date(2024, 3, 13), date(2024, 3, 13)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.freq, tt.ref)
			if !p.Start.Equal(tt.wantStart) || !p.End.Equal(tt.wantEnd) {
				t.Errorf("Resolve(%s, %s) = [%s, %s], want [%s, %s]", tt.freq, tt.ref.Format(time.DateOnly),
					p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly),
					tt.wantStart.Format(time.DateOnly), tt.wantEnd.Format(time.DateOnly))
			}
		})
	}
}

func TestResolveUsesLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ref := time.Date(2024, 3, 14, 1, 0, 0, 0, loc) // 2024-03-13 16:00 UTC
	if got := Resolve(Daily, ref).Start; !got.Equal(date(2024, 3, 14)) {
		t.Errorf("expected local date 2024-03-14, got %s", got.Format(time.DateOnly))
	}
}

func TestPeriodPreviousAndContains(t *testing.T) {
	p := Resolve(Monthly, date(2024, 1, 20))
	prev := p.Previous()
	if !prev.Start.Equal(date(2023, 12, 1)) || !prev.End.Equal(date(2023, 12, 31)) {
		t.Errorf("unexpected previous month %v", prev)
	}
	if !p.Contains(date(2024, 1, 31)) || p.Contains(date(2024, 2, 1)) {
		t.Error("contains mismatch at month boundary")
	}

	w := Resolve(Weekly, date(2024, 1, 3))
	if !w.Previous().Start.Equal(date(2023, 12, 25)) {
		t.Errorf("unexpected previous week start %s", w.Previous().Start.Format(time.DateOnly))
	}
}

func TestPeriodsBetween(t *testing.T) {
	tests := []struct {
		freq     Frequency
		from, to time.Time
		want     int
	}{
		{Daily, date(2024, 1, 1), date(2024, 1, 1), 1},
		{Daily, date(2024, 1, 1), date(2024, 1, 31), 31},
		{Daily, date(2024, 1, 2), date(2024, 1, 1), 0},
		{Weekly, date(2024, 1, 7), date(2024, 1, 8), 2},
		{Weekly, date(2024, 1, 1), date(2024, 1, 7), 1},
		{Monthly, date(2023, 11, 30), date(2024, 2, 1), 4},
	}
	for _, tt := range tests {
		if got := PeriodsBetween(tt.freq, tt.from, tt.to); got != tt.want {
			t.Errorf("PeriodsBetween(%s, %s, %s) = %d, want %d", tt.freq,
				tt.from.Format(time.DateOnly), tt.to.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly"} {
		if _, err := ParseFrequency(s); err != nil {
			t.Errorf("ParseFrequency(%q): %v", s, err)
		}
	}
	if _, err := ParseFrequency("yearly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("expected ErrInvalidFrequency, got %v", err)
	}
}
