package utils

import (
	"context"
	"sync"
	"time"
)

const repairQueueKey = "completion:repair"

var (
	pendingRepairs   = map[string]struct{}{}
	pendingRepairsMu sync.Mutex
)

// RepairFunc recomputes the completion records of one habit.
type RepairFunc func(ctx context.Context, habitID string) error

// QueueRepair marks a habit whose completion records may have drifted from its
// logs. Duplicates collapse into one entry.
func QueueRepair(habitID string) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		if err := rc.SAdd(ctx, repairQueueKey, habitID).Err(); err == nil {
			return
		}
	}
	pendingRepairsMu.Lock()
	pendingRepairs[habitID] = struct{}{}
	pendingRepairsMu.Unlock()
}

func popRepair() (string, bool) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		if id, err := rc.SPop(ctx, repairQueueKey).Result(); err == nil && id != "" {
			return id, true
		}
	}
	pendingRepairsMu.Lock()
	defer pendingRepairsMu.Unlock()
	for id := range pendingRepairs {
		delete(pendingRepairs, id)
		return id, true
	}
	return "", false
}

// DrainRepairs runs fn for every queued habit and returns how many were
// repaired. Failed habits are queued again for the next pass.
func DrainRepairs(ctx context.Context, fn RepairFunc) int {
	var failed []string
	repaired := 0
	for ctx.Err() == nil {
		id, ok := popRepair()
		if !ok {
			break
		}
		if err := fn(ctx, id); err != nil {
			Sugar.Warnw("completion repair failed", "habit_id", id, "error", err)
			failed = append(failed, id)
			continue
		}
		repaired++
	}
	for _, id := range failed {
		QueueRepair(id)
	}
	return repaired
}

// StartCompletionRepair drains the repair queue every interval until ctx is
// cancelled. It is best-effort and logs failures.
func StartCompletionRepair(ctx context.Context, interval time.Duration, fn RepairFunc) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := DrainRepairs(ctx, fn); n > 0 {
					Sugar.Infof("repaired completion records for %d habits", n)
				}
			}
		}
	}()
}
