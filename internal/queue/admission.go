package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/chain"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

// errorTTL is the TTL on a synthetic error record written when a task
// cannot be admitted (unknown blueprint, restricted task kind).
const errorTTL = 3600 * time.Second

// runningChain pairs an admitted chain with the goroutine driving it.
// The worker's exit is observed via done, closed when Run returns.
type runningChain struct {
	chain chain.TaskChain
	done  chan struct{}
}

// admit attempts to bring the tracked set up to MaxChains, one pop at
// a time. It never blocks waiting on an admitted chain; each admitted
// chain runs on its own goroutine.
func (q *Queue) admit(ctx context.Context) {
	for q.liveCount() < q.cfg.MaxChains {
		task, ok := q.pop(ctx)
		if !ok {
			return
		}

		if q.isRestricted(task.Name) {
			q.writeErrorRecord(ctx, task.ID, fmt.Sprintf("task kind %q is restricted on this node", task.Name))
			continue
		}

		desc, found := q.registry.Find(task.Category, task.Name)
		if !found {
			q.writeErrorRecord(ctx, task.ID, fmt.Sprintf("no blueprint registered for %s/%s", task.Category, task.Name))
			continue
		}

		config := mergeConfig(desc.Config, task.Config)
		c, err := desc.Factory(config)
		if err != nil {
			q.writeErrorRecord(ctx, task.ID, fmt.Sprintf("failed to instantiate chain: %v", err))
			continue
		}

		c.SetID(task.ID)
		c.SetParent(task.Parent)
		c.SetResultsSilo(silo.TaskResults)

		if err := q.tasksStore.HSet(ctx, c.RedisName(), "status", "initialized"); err != nil {
			q.logger.Error().Err(err).Str("redis_name", c.RedisName()).Msg("failed to mark task initialized")
		}

		rc := &runningChain{chain: c, done: make(chan struct{})}
		q.registerChain(c.RedisName(), rc)

		go func() {
			defer close(rc.done)
			c.Run()
		}()

		if err := q.tasksStore.HSet(ctx, c.RedisName(), "status", string(chain.StatusRunning)); err != nil {
			q.logger.Error().Err(err).Str("redis_name", c.RedisName()).Msg("failed to mark task running")
		}

		q.metrics.OnAdmitted()
	}
}

func (q *Queue) isRestricted(taskName string) bool {
	for _, restricted := range q.cfg.ChainTaskRestrictions {
		if restricted == taskName {
			return true
		}
	}
	return false
}

// writeErrorRecord is the synthetic-error path shared by
// blueprint-not-found and restricted-task-kind admission failures. The
// record carries id, end, message, status, and updated so the
// coordinator can render the failure without a chain ever existing.
func (q *Queue) writeErrorRecord(ctx context.Context, taskID, message string) {
	now := time.Now().UTC().Format(time.RFC3339)
	record := map[string]any{
		"id":      taskID,
		"end":     now,
		"message": message,
		"status":  "error",
		"updated": now,
	}

	if err := q.tasksStore.HSetAll(ctx, taskID, silo.Encode(record)); err != nil {
		q.logger.Error().Err(err).Str("task_id", taskID).Msg("failed to write synthetic error record")
		return
	}
	if _, err := q.tasksStore.Expire(ctx, taskID, errorTTL); err != nil {
		q.logger.Error().Err(err).Str("task_id", taskID).Msg("failed to set error record TTL")
	}

	q.logger.Warn().Str("task_id", taskID).Str("message", message).Msg("task admission rejected")
}

// mergeConfig overlays a task's own config on top of the blueprint's
// defaults; the task's fields win.
func mergeConfig(defaults, override map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(override))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
