package queue

import (
	"context"
	"time"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

// report runs the cycle's first phase: for each tracked chain,
// escalate to terminating if it has exceeded ChainTimeoutSeconds, then
// write a progress snapshot. Failures are logged and never abort the
// cycle.
func (q *Queue) report(ctx context.Context) {
	for redisName, rc := range q.snapshotChains() {
		start := rc.chain.Start()
		end := rc.chain.End()

		if !start.IsZero() && end.IsZero() {
			elapsed := time.Since(start).Seconds()
			if elapsed > float64(q.cfg.ChainTimeoutSeconds) {
				rc.chain.Terminate()
			}
		}

		record := rc.chain.RedisStruct()
		record["node"] = q.nodeName

		if err := q.tasksStore.HSetAll(ctx, redisName, silo.Encode(record)); err != nil {
			q.logger.Error().Err(err).Str("redis_name", redisName).Msg("failed to write progress snapshot")
			q.metrics.OnReportFailure()
		}
	}
}
