package scheduler

import (
	"container/heap"
	"sync"
)

// DAG represents a validated directed acyclic graph of tasks for one run.
// Status transitions are the only mutation after Build.
type DAG struct {
	mu         sync.RWMutex
	order      []string            // Task IDs in input order
	index      map[string]int      // Task ID -> input position
	tasks      map[string]*Task    // All tasks indexed by ID
	dependents map[string][]string // Maps taskID -> tasks that depend on it, in input order
}

// Progress summarizes task statuses across the graph.
type Progress struct {
	Total   int
	Pending int
	Ready   int
	Running int
	Done    int
	Failed  int
}

// Build validates the tasks and returns a graph with every task pending.
// Missing dependencies are reported before cycles, since cycle detection
// assumes every edge resolves.
func Build(tasks []*Task) (*DAG, error) {
	d := &DAG{
		order:      make([]string, 0, len(tasks)),
		index:      make(map[string]int, len(tasks)),
		tasks:      make(map[string]*Task, len(tasks)),
		dependents: make(map[string][]string),
	}

	for i, t := range tasks {
		if t == nil {
			return nil, &NilTaskError{Index: i}
		}
		if t.ID == "" {
			return nil, &DuplicateTaskError{}
		}
		if _, exists := d.tasks[t.ID]; exists {
			return nil, &DuplicateTaskError{TaskID: t.ID}
		}

		cp := t.Clone()
		cp.DependsOn = uniqueIDs(cp.DependsOn)
		cp.Status = TaskPending

		d.index[cp.ID] = len(d.order)
		d.order = append(d.order, cp.ID)
		d.tasks[cp.ID] = cp
	}

	for _, id := range d.order {
		for _, depID := range d.tasks[id].DependsOn {
			if _, exists := d.tasks[depID]; !exists {
				return nil, &MissingDependencyError{TaskID: id, MissingID: depID}
			}
		}
	}

	if cycle := d.findCycle(); cycle != nil {
		return nil, &CycleError{IDs: cycle}
	}

	// Build dependents map for downstream lookup
	for _, id := range d.order {
		for _, depID := range d.tasks[id].DependsOn {
			d.dependents[depID] = append(d.dependents[depID], id)
		}
	}

	return d, nil
}

// findCycle walks dependency edges depth-first in input order and returns the
// members of the first cycle found, or nil. Colouring lives in locals so the
// graph stays reusable between calls.
func (d *DAG) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.order))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		stack = append(stack, id)

		for _, depID := range d.tasks[id].DependsOn {
			switch color[depID] {
			case gray:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == depID {
						return append([]string(nil), stack[i:]...)
					}
				}
			case white:
				if cycle := visit(depID); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range d.order {
		if color[id] == white {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// ReadyTasks returns pending tasks whose dependencies are all done, in input
// order. It does not change any status.
func (d *DAG) ReadyTasks() []*Task {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ready := []*Task{}
	for _, id := range d.order {
		task := d.tasks[id]
		if task.Status == TaskPending && d.dependenciesDone(task) {
			ready = append(ready, task.Clone())
		}
	}
	return ready
}

func (d *DAG) dependenciesDone(task *Task) bool {
	for _, depID := range task.DependsOn {
		if d.tasks[depID].Status != TaskDone {
			return false
		}
	}
	return true
}

// MarkReady moves a pending task whose dependencies are done to ready.
func (d *DAG) MarkReady(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.lookup(taskID)
	if err != nil {
		return err
	}
	if task.Status != TaskPending {
		return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: TaskReady}
	}
	if !d.dependenciesDone(task) {
		return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: TaskReady, Reason: "dependencies not done"}
	}

	task.Status = TaskReady
	return nil
}

// MarkRunning moves a ready task to running.
func (d *DAG) MarkRunning(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.lookup(taskID)
	if err != nil {
		return err
	}
	if task.Status != TaskReady {
		return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: TaskRunning}
	}

	task.Status = TaskRunning
	return nil
}

// MarkDone records successful completion of a ready or running task.
func (d *DAG) MarkDone(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.lookup(taskID)
	if err != nil {
		return err
	}
	if task.Status != TaskReady && task.Status != TaskRunning {
		return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: TaskDone}
	}

	task.Status = TaskDone
	return nil
}

// MarkFailed records failure of a ready or running task and fails every
// transitive dependent that has not started. The propagated IDs are returned
// in input order.
func (d *DAG) MarkFailed(taskID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.lookup(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != TaskReady && task.Status != TaskRunning {
		return nil, &InvalidTransitionError{TaskID: taskID, From: task.Status, To: TaskFailed}
	}

	task.Status = TaskFailed

	visited := map[string]bool{taskID: true}
	queue := append([]string(nil), d.dependents[taskID]...)
	affected := &intMinHeap{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		dep := d.tasks[id]
		if dep.Status == TaskPending || dep.Status == TaskReady {
			dep.Status = TaskFailed
			heap.Push(affected, d.index[id])
		}
		queue = append(queue, d.dependents[id]...)
	}

	propagated := make([]string, 0, affected.Len())
	for affected.Len() > 0 {
		propagated = append(propagated, d.order[heap.Pop(affected).(int)])
	}
	return propagated, nil
}

func (d *DAG) lookup(taskID string) (*Task, error) {
	task, exists := d.tasks[taskID]
	if !exists {
		return nil, &UnknownTaskError{TaskID: taskID}
	}
	return task, nil
}

// TopologicalOrder returns every task ID in an order consistent with all
// dependency edges. Among tasks with no relative constraint, the one that came
// first in the input comes first.
func (d *DAG) TopologicalOrder() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	indeg := make([]int, len(d.order))
	ready := &intMinHeap{}
	for i, id := range d.order {
		indeg[i] = len(d.tasks[id].DependsOn)
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]string, 0, len(d.order))
	for ready.Len() > 0 {
		id := d.order[heap.Pop(ready).(int)]
		out = append(out, id)
		for _, next := range d.dependents[id] {
			n := d.index[next]
			indeg[n]--
			if indeg[n] == 0 {
				heap.Push(ready, n)
			}
		}
	}
	return out
}

// Get returns a copy of the task with the given ID.
func (d *DAG) Get(taskID string) (*Task, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	task, exists := d.tasks[taskID]
	if !exists {
		return nil, false
	}
	return task.Clone(), true
}

// Status returns the current status of a task.
func (d *DAG) Status(taskID string) (TaskStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	task, err := d.lookup(taskID)
	if err != nil {
		return 0, err
	}
	return task.Status, nil
}

// Tasks returns copies of all tasks in input order.
func (d *DAG) Tasks() []*Task {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tasks := make([]*Task, 0, len(d.order))
	for _, id := range d.order {
		tasks = append(tasks, d.tasks[id].Clone())
	}
	return tasks
}

// Len returns the number of tasks in the graph.
func (d *DAG) Len() int {
	return len(d.order)
}

// Dependents returns the IDs of tasks that directly depend on taskID.
func (d *DAG) Dependents(taskID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]string(nil), d.dependents[taskID]...)
}

// Counts returns a status summary.
func (d *DAG) Counts() Progress {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p := Progress{Total: len(d.order)}
	for _, task := range d.tasks {
		switch task.Status {
		case TaskPending:
			p.Pending++
		case TaskReady:
			p.Ready++
		case TaskRunning:
			p.Running++
		case TaskDone:
			p.Done++
		case TaskFailed:
			p.Failed++
		}
	}
	return p
}

// Finished reports whether every task is done or failed.
func (d *DAG) Finished() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, t := range d.tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the graph including task statuses.
func (d *DAG) Clone() *DAG {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cp := &DAG{
		order:      append([]string(nil), d.order...),
		index:      make(map[string]int, len(d.index)),
		tasks:      make(map[string]*Task, len(d.tasks)),
		dependents: make(map[string][]string, len(d.dependents)),
	}
	for id, i := range d.index {
		cp.index[id] = i
	}
	for id, task := range d.tasks {
		cp.tasks[id] = task.Clone()
	}
	for id, deps := range d.dependents {
		cp.dependents[id] = append([]string(nil), deps...)
	}
	return cp
}

// uniqueIDs drops repeated IDs, keeping the first occurrence.
func uniqueIDs(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// intMinHeap orders input positions so ties break by insertion order.
type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
