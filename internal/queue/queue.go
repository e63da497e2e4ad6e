// Package queue implements the Task Chain Queue: priority polling,
// admission control, thread-per-chain execution, timeout enforcement,
// reaping, and progress reporting against the shared store.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/chain"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/registry"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

// Status is the queue-level state machine's current state.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusStopping    Status = "stopping"
	StatusStopped     Status = "stopped"
	StatusTerminating Status = "terminating"
	StatusError       Status = "error"
)

// Config is the Job Queue's admission and lifecycle configuration.
type Config struct {
	AcceptedChainPriorities   []int
	ChainTaskRestrictions     []string
	ChainTimeoutSeconds       int
	QueueCheckIntervalSeconds int
	MaxChains                 int
}

// Metrics is the side channel the Queue reports to alongside its
// shared-store writes. A nil Metrics is a safe no-op. Exported so
// implementations can live outside this package (internal/metrics).
type Metrics interface {
	OnAdmitted()
	OnReaped()
	OnReportFailure()
}

type noopMetrics struct{}

func (noopMetrics) OnAdmitted()      {}
func (noopMetrics) OnReaped()        {}
func (noopMetrics) OnReportFailure() {}

// Queue is the per-node Job Queue. The zero value is not usable; build
// one with New.
type Queue struct {
	cfg      Config
	nodeName string
	registry *registry.Registry
	logger   zerolog.Logger
	metrics  Metrics

	queueStore silo.Store
	tasksStore silo.Store

	mu              sync.RWMutex
	status          Status
	startTime       time.Time
	stopTime        time.Time
	taskChainsTotal int
	chains          map[string]*runningChain

	stopCh  chan struct{}
	cycleWG sync.WaitGroup
}

// New builds a Queue. queueStore backs the priority lists
// (harvest-task-queue); tasksStore backs per-task hashes
// (harvest-tasks).
func New(cfg Config, nodeName string, reg *registry.Registry, queueStore, tasksStore silo.Store, logger zerolog.Logger, metrics Metrics) *Queue {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Queue{
		cfg:        cfg,
		nodeName:   nodeName,
		registry:   reg,
		logger:     logger,
		metrics:    metrics,
		queueStore: queueStore,
		tasksStore: tasksStore,
		status:     StatusInitialized,
		chains:     make(map[string]*runningChain),
	}
}

// Start transitions the queue to running and launches the worker
// cycle on its own goroutine. Calling Start more than once is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.status == StatusRunning {
		q.mu.Unlock()
		return
	}
	q.status = StatusRunning
	q.startTime = time.Now()
	q.stopCh = make(chan struct{})
	q.mu.Unlock()

	q.cycleWG.Add(1)
	go q.run()
}

func (q *Queue) run() {
	defer q.cycleWG.Done()

	interval := time.Duration(q.cfg.QueueCheckIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		q.cycle()

		select {
		case <-ticker.C:
		case <-q.stopCh:
			return
		}
	}
}

// cycle runs the three phases in order: report, admit, reap. Each
// phase completes fully before the next begins, but the whole cycle is
// itself non-blocking with respect to running chains (they execute on
// their own goroutines).
func (q *Queue) cycle() {
	ctx := context.Background()

	q.report(ctx)

	if q.Status() == StatusRunning {
		q.admit(ctx)
	}

	q.reap(ctx)
}

func (q *Queue) Status() Status {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.status
}

func (q *Queue) setStatus(s Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.status = s
}

// TaskChainsProcessed returns the total number of chains admitted over
// the queue's lifetime.
func (q *Queue) TaskChainsProcessed() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.taskChainsTotal
}

func (q *Queue) liveCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.chains)
}

func (q *Queue) registerChain(redisName string, rc *runningChain) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.chains[redisName] = rc
	q.taskChainsTotal++
}

// snapshotChains returns a copy of the currently tracked chains, safe
// to range over without holding q.mu.
func (q *Queue) snapshotChains() map[string]*runningChain {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make(map[string]*runningChain, len(q.chains))
	for k, v := range q.chains {
		out[k] = v
	}
	return out
}

// TerminateChain requests the named chain terminate, per the Control
// Surface's /tasks/shutdown/<id>. Returns false if no chain with that
// redis name is currently tracked.
func (q *Queue) TerminateChain(redisName string) bool {
	q.mu.RLock()
	rc, ok := q.chains[redisName]
	q.mu.RUnlock()
	if !ok {
		return false
	}
	rc.chain.Terminate()
	return true
}

// DetailedStatus returns a structured snapshot of the queue's state.
// Copy-on-read: safe to call from the Heartbeat goroutine.
func (q *Queue) DetailedStatus() map[string]any {
	q.mu.RLock()
	status := q.status
	start := q.startTime
	stop := q.stopTime
	maxChains := q.cfg.MaxChains
	total := len(q.chains)
	q.mu.RUnlock()

	// Every status code appears in the histogram, zero or not, so
	// consumers see a stable key set.
	histogram := map[string]int{
		string(chain.StatusInitialized): 0,
		string(chain.StatusRunning):     0,
		string(chain.StatusComplete):    0,
		string(chain.StatusError):       0,
		string(chain.StatusTerminating): 0,
	}
	for _, rc := range q.snapshotChains() {
		histogram[string(rc.chain.Status())]++
	}

	duration := 0.0
	if !start.IsZero() {
		end := time.Now()
		if status == StatusStopped && !stop.IsZero() {
			end = stop
		}
		duration = end.Sub(start).Seconds()
	}

	return map[string]any{
		"chain_status":          histogram,
		"duration":              duration,
		"max_chains":            maxChains,
		"start_time":            formatOptionalTime(start),
		"status":                string(status),
		"stop_time":             formatOptionalTime(stop),
		"total_chains_in_queue": total,
	}
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Stop winds the queue down: admissions cease, live chains either
// drain naturally or are terminated, and the result reports whether
// the drain finished within timeout. Calling Stop while already
// stopped is a no-op.
func (q *Queue) Stop(ctx context.Context, finishRunningJobs bool, timeout time.Duration) (bool, string) {
	q.mu.Lock()
	if q.status == StatusStopped {
		q.mu.Unlock()
		return true, "already stopped"
	}

	if finishRunningJobs {
		q.status = StatusStopping
	} else {
		q.status = StatusTerminating
	}
	chains := make([]*runningChain, 0, len(q.chains))
	for _, rc := range q.chains {
		chains = append(chains, rc)
	}
	q.mu.Unlock()

	if !finishRunningJobs {
		for _, rc := range chains {
			rc.chain.Terminate()
			if err := q.tasksStore.HSet(ctx, rc.chain.RedisName(), "status", "terminating"); err != nil {
				q.logger.Error().Err(err).Str("redis_name", rc.chain.RedisName()).Msg("failed to mark chain terminating")
			}
		}
	}

	deadline := time.Now().Add(timeout)
	success := true
	for {
		if q.liveCount() == 0 {
			break
		}
		if !time.Now().Before(deadline) {
			success = false
			break
		}
		time.Sleep(time.Second)
		q.reap(ctx)
	}

	q.mu.Lock()
	if q.stopCh != nil {
		select {
		case <-q.stopCh:
		default:
			close(q.stopCh)
		}
	}
	q.mu.Unlock()
	q.cycleWG.Wait()

	q.mu.Lock()
	q.status = StatusStopped
	q.stopTime = time.Now()
	q.mu.Unlock()

	if !success {
		// The drain deadline passed with chains still live. They keep
		// running to completion regardless (Run was never told to
		// abort unless finishRunningJobs was false); reap them in the
		// background so their final status is still eventually
		// written.
		go q.drainRemaining()
	}

	if success {
		return true, "queue stopped"
	}
	return false, "timed out waiting for chains to drain"
}

// drainRemaining reaps chains still live after Stop's deadline passed,
// until none remain.
func (q *Queue) drainRemaining() {
	ctx := context.Background()
	for q.liveCount() > 0 {
		time.Sleep(100 * time.Millisecond)
		q.reap(ctx)
	}
}
