package queue

import (
	"context"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

// pop implements the priority-biased admission pop: for each priority
// in AcceptedChainPriorities, in order, drain "queue::{p}" until a live
// enqueued task is found or the level is confirmed empty. A level
// returning nothing never falls through until it is drained for this
// call.
func (q *Queue) pop(ctx context.Context) (Task, bool) {
	for _, priority := range q.cfg.AcceptedChainPriorities {
		key := silo.QueueKey(priority)

		for {
			n, err := q.queueStore.LLen(ctx, key)
			if err != nil {
				q.logger.Error().Err(err).Str("key", key).Msg("failed to check queue length")
				break
			}
			if n <= 0 {
				break
			}

			name, err := q.queueStore.RPop(ctx, key)
			if err != nil {
				if err == silo.ErrNotFound {
					break
				}
				q.logger.Error().Err(err).Str("key", key).Msg("failed to pop from queue")
				break
			}

			status, err := q.tasksStore.HGet(ctx, name, "status")
			if err != nil {
				// Hash expired between rpop and hget; skip silently and
				// keep draining this priority level.
				continue
			}
			if TaskStatus(status) != TaskEnqueued {
				continue
			}

			fields, err := q.tasksStore.HGetAll(ctx, name)
			if err != nil || len(fields) == 0 {
				continue
			}

			decoded := silo.Decode(fields)
			task := FromFields(decoded)
			task.ID = name
			return task, true
		}
	}

	return Task{}, false
}
