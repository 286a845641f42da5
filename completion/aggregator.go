package completion

import (
	"context"
	"fmt"
	"time"
)

// Aggregator sums logged quantities for a habit.
type Aggregator struct {
	logs LogStore
}

func NewAggregator(logs LogStore) *Aggregator {
	return &Aggregator{logs: logs}
}

// PeriodTotal sums every log of the habit dated inside p.
func (a *Aggregator) PeriodTotal(ctx context.Context, habitID string, p Period) (int, error) {
	total, err := a.logs.SumQuantity(ctx, habitID, p.Start, p.End)
	if err != nil {
		return 0, fmt.Errorf("sum period %s..%s: %w", p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly), err)
	}
	return total, nil
}

// DailyTotal sums the logs of exactly one calendar date.
func (a *Aggregator) DailyTotal(ctx context.Context, habitID string, date time.Time) (int, error) {
	total, err := a.logs.SumQuantityForDate(ctx, habitID, Day(date))
	if err != nil {
		return 0, fmt.Errorf("sum day %s: %w", Day(date).Format(time.DateOnly), err)
	}
	return total, nil
}
