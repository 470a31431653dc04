package orchestrator

import (
	"fmt"

	"github.com/aristath/batchplan/internal/batch"
	"github.com/aristath/batchplan/internal/scheduler"
)

// Wave is one dispatch step of a simulated run.
type Wave struct {
	Index    int
	Batch    batch.Batch
	Deferred []string // Ready tasks pushed to a later wave by conflicts or the limit
}

// Plan is the full dispatch sequence of a run in which every task succeeds.
type Plan struct {
	Waves []Wave
	Order []string // Topological order of the same graph
}

// Len returns the number of tasks across all waves.
func (p *Plan) Len() int {
	n := 0
	for _, w := range p.Waves {
		n += len(w.Batch)
	}
	return n
}

// Simulate builds a graph from tasks and plays the runner protocol against it
// without executing anything, marking every dispatched task done.
func Simulate(tasks []*scheduler.Task, limit int) (*Plan, error) {
	dag, err := scheduler.Build(tasks)
	if err != nil {
		return nil, err
	}
	return SimulateDAG(dag, limit)
}

// SimulateDAG is Simulate over an existing graph. The graph is cloned, so its
// statuses are left untouched.
func SimulateDAG(dag *scheduler.DAG, limit int) (*Plan, error) {
	sim := dag.Clone()
	plan := &Plan{Order: sim.TopologicalOrder()}

	for index := 0; ; index++ {
		current, deferred := nextBatch(sim, limit)
		if len(current) == 0 {
			break
		}
		for _, t := range current {
			if err := complete(sim, t.ID); err != nil {
				return nil, fmt.Errorf("wave %d: %w", index, err)
			}
		}
		plan.Waves = append(plan.Waves, Wave{Index: index, Batch: current, Deferred: deferred})
	}

	return plan, nil
}

func complete(dag *scheduler.DAG, id string) error {
	if err := dag.MarkReady(id); err != nil {
		return err
	}
	if err := dag.MarkRunning(id); err != nil {
		return err
	}
	return dag.MarkDone(id)
}
