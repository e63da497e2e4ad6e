package queue

import "context"

// reap removes finished chains: any chain whose worker goroutine has
// exited gets its final status written and is dropped from the
// tracked set.
func (q *Queue) reap(ctx context.Context) {
	for redisName, rc := range q.snapshotChains() {
		select {
		case <-rc.done:
		default:
			continue
		}

		if err := q.tasksStore.HSet(ctx, redisName, "status", string(rc.chain.Status())); err != nil {
			q.logger.Error().Err(err).Str("redis_name", redisName).Msg("failed to write final chain status")
		}

		q.mu.Lock()
		delete(q.chains, redisName)
		q.mu.Unlock()

		q.metrics.OnReaped()
		q.logger.Info().Str("redis_name", redisName).Str("status", string(rc.chain.Status())).Msg("chain reaped")
	}
}
