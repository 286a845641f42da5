package completion

import (
	"fmt"
	"time"
)

// Frequency is how often a habit's target is evaluated.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// ParseFrequency validates user input. Stored values that are not recognised are
// still accepted by Resolve, which treats them as daily.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case Daily, Weekly, Monthly:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// Period is the closed range of calendar dates a target is evaluated against.
type Period struct {
	Start     time.Time
	End       time.Time
	Frequency Frequency
}

// Day returns the calendar date of t (in t's own location) as midnight UTC.
// All dates handed to stores are normalised through Day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the calendar week containing d.
func WeekStart(d time.Time) time.Time {
	d = Day(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of the calendar month containing d.
func MonthStart(d time.Time) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Resolve returns the period of the given frequency that contains ref.
// Weeks are absolute Monday-anchored calendar weeks, never counted from habit creation.
func Resolve(freq Frequency, ref time.Time) Period {
	switch freq {
	case Weekly:
		start := WeekStart(ref)
		return Period{Start: start, End: start.AddDate(0, 0, 6), Frequency: Weekly}
	case Monthly:
		start := MonthStart(ref)
		return Period{Start: start, End: start.AddDate(0, 1, -1), Frequency: Monthly}
	default:
		d := Day(ref)
		return Period{Start: d, End: d, Frequency: Daily}
	}
}

// Contains reports whether the calendar date of t lies inside p.
func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Previous returns the period immediately before p.
func (p Period) Previous() Period {
	return Resolve(p.Frequency, p.Start.AddDate(0, 0, -1))
}

// PeriodsBetween counts periods from the one containing from through the one
// containing to, inclusive. It returns 0 when to precedes from.
func PeriodsBetween(freq Frequency, from, to time.Time) int {
	a := Resolve(freq, from)
	b := Resolve(freq, to)
	if b.Start.Before(a.Start) {
		return 0
	}
	switch a.Frequency {
	case Weekly:
		return daysBetween(a.Start, b.Start)/7 + 1
	case Monthly:
		return (b.Start.Year()-a.Start.Year())*12 + int(b.Start.Month()-a.Start.Month()) + 1
	default:
		return daysBetween(a.Start, b.Start) + 1
	}
}

func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
