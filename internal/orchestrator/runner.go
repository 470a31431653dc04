// Package orchestrator drives a dependency graph to completion by repeatedly
// dispatching conflict-free batches of ready tasks to a caller-supplied
// function.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/batchplan/internal/batch"
	"github.com/aristath/batchplan/internal/events"
	"github.com/aristath/batchplan/internal/scheduler"
)

// ErrNoDispatch is returned by Run when the runner has no dispatch function.
var ErrNoDispatch = errors.New("no dispatch function configured")

// TaskResult represents the outcome of one task in a run.
type TaskResult struct {
	TaskID   string
	Batch    int // Index of the batch the task ran in, -1 if it never ran
	Success  bool
	Skipped  bool // Failed because a dependency failed
	Duration time.Duration
	Error    error
}

// DispatchFunc executes a single task. A non-nil error marks the task failed.
type DispatchFunc func(ctx context.Context, task *scheduler.Task) error

// RunnerConfig configures the runner.
type RunnerConfig struct {
	ConcurrencyLimit int                   // Max tasks per batch, 0 means unlimited
	Dispatch         DispatchFunc          // Executes a task
	EventBus         *events.EventBus      // Optional (nil disables events)
	Locks            *scheduler.WriteLocks // Optional, shared between runners writing the same tree
}

// Runner executes the tasks of a DAG batch by batch.
type Runner struct {
	config  RunnerConfig
	dag     *scheduler.DAG
	locks   *scheduler.WriteLocks
	runID   string
	results []TaskResult
}

// NewRunner creates a runner for dag.
func NewRunner(cfg RunnerConfig, dag *scheduler.DAG) *Runner {
	if cfg.ConcurrencyLimit < 0 {
		cfg.ConcurrencyLimit = 0
	}
	locks := cfg.Locks
	if locks == nil {
		locks = scheduler.NewWriteLocks()
	}

	return &Runner{
		config: cfg,
		dag:    dag,
		locks:  locks,
		runID:  uuid.NewString(),
	}
}

// RunID identifies this run on published events.
func (r *Runner) RunID() string {
	return r.runID
}

// Run dispatches ready tasks until none remain. Each iteration partitions the
// ready set by write conflicts, runs the first batch concurrently and waits
// for all of it before settling statuses. Task failures are reported in the
// results, not as an error; Run only errors on cancellation or a graph that
// rejects a transition.
func (r *Runner) Run(ctx context.Context) ([]TaskResult, scheduler.Progress, error) {
	if r.config.Dispatch == nil {
		return nil, r.dag.Counts(), ErrNoDispatch
	}

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return r.results, r.dag.Counts(), err
		}

		current, deferred := nextBatch(r.dag, r.config.ConcurrencyLimit)
		if len(current) == 0 {
			break
		}

		r.publish(events.BatchPlannedEvent{
			RunID:     r.runID,
			Index:     index,
			TaskIDs:   current.IDs(),
			Deferred:  len(deferred),
			Timestamp: time.Now(),
		})

		if err := r.runBatch(ctx, index, current); err != nil {
			return r.results, r.dag.Counts(), err
		}

		p := r.dag.Counts()
		r.publish(events.DAGProgressEvent{
			RunID:     r.runID,
			Total:     p.Total,
			Pending:   p.Pending,
			Ready:     p.Ready,
			Running:   p.Running,
			Done:      p.Done,
			Failed:    p.Failed,
			Timestamp: time.Now(),
		})
	}

	return r.results, r.dag.Counts(), nil
}

type outcome struct {
	err      error
	duration time.Duration
}

// runBatch moves every member to running, dispatches them concurrently and
// settles them in batch order once all have returned.
func (r *Runner) runBatch(ctx context.Context, index int, current batch.Batch) error {
	for _, t := range current {
		if err := r.dag.MarkReady(t.ID); err != nil {
			return fmt.Errorf("batch %d: %w", index, err)
		}
		if err := r.dag.MarkRunning(t.ID); err != nil {
			return fmt.Errorf("batch %d: %w", index, err)
		}
	}

	outcomes := make([]outcome, len(current))

	g, gctx := errgroup.WithContext(ctx)
	if r.config.ConcurrencyLimit > 0 {
		g.SetLimit(r.config.ConcurrencyLimit)
	}
	for i, task := range current {
		g.Go(func() error {
			outcomes[i] = r.dispatch(gctx, index, task)
			return nil // Task errors are tracked in the DAG, not returned here
		})
	}
	_ = g.Wait()

	for i, task := range current {
		o := outcomes[i]
		if o.err == nil {
			if err := r.dag.MarkDone(task.ID); err != nil {
				return fmt.Errorf("batch %d: %w", index, err)
			}
			r.results = append(r.results, TaskResult{
				TaskID:   task.ID,
				Batch:    index,
				Success:  true,
				Duration: o.duration,
			})
			r.publish(events.TaskCompletedEvent{
				RunID:     r.runID,
				ID:        task.ID,
				Duration:  o.duration,
				Timestamp: time.Now(),
			})
			continue
		}

		propagated, err := r.dag.MarkFailed(task.ID)
		if err != nil {
			return fmt.Errorf("batch %d: %w", index, err)
		}
		log.Printf("ERROR: task %q failed: %v", task.ID, o.err)

		r.results = append(r.results, TaskResult{
			TaskID:   task.ID,
			Batch:    index,
			Duration: o.duration,
			Error:    o.err,
		})
		for _, id := range propagated {
			r.results = append(r.results, TaskResult{
				TaskID:  id,
				Batch:   -1,
				Skipped: true,
				Error:   fmt.Errorf("dependency %q failed", task.ID),
			})
		}
		r.publish(events.TaskFailedEvent{
			RunID:      r.runID,
			ID:         task.ID,
			Err:        o.err,
			Propagated: propagated,
			Duration:   o.duration,
			Timestamp:  time.Now(),
		})
	}

	return nil
}

// dispatch runs one task with its write set locked.
func (r *Runner) dispatch(ctx context.Context, index int, task *scheduler.Task) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{err: fmt.Errorf("context cancelled before execution: %w", err)}
	}

	r.publish(events.TaskStartedEvent{
		RunID:     r.runID,
		ID:        task.ID,
		Name:      task.Name,
		Batch:     index,
		Timestamp: time.Now(),
	})

	release := r.locks.LockAll(task.Writes)
	defer release()

	start := time.Now()
	err := r.config.Dispatch(ctx, task)
	return outcome{err: err, duration: time.Since(start)}
}

func (r *Runner) publish(ev events.Event) {
	if r.config.EventBus != nil {
		r.config.EventBus.Emit(ev)
	}
}

// nextBatch partitions the graph's ready set and returns the first batch
// together with the IDs of the ready tasks left for later.
func nextBatch(dag *scheduler.DAG, limit int) (batch.Batch, []string) {
	ready := dag.ReadyTasks()
	if len(ready) == 0 {
		return nil, nil
	}

	batches := batch.PartitionWithLimit(ready, limit)
	var deferred []string
	for _, b := range batches[1:] {
		deferred = append(deferred, b.IDs()...)
	}
	return batches[0], deferred
}
