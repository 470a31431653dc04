package scheduler

// Scheduler produces linear plans from a DAG, for callers that need a strict
// serial order rather than batches.
type Scheduler struct {
	dag *DAG
}

// NewScheduler creates a Scheduler over dag.
func NewScheduler(dag *DAG) *Scheduler {
	return &Scheduler{dag: dag}
}

// Order returns the topologically sorted task IDs.
func (s *Scheduler) Order() []string {
	return s.dag.TopologicalOrder()
}

// Plan returns copies of all tasks in topological order.
func (s *Scheduler) Plan() []*Task {
	order := s.Order()
	plan := make([]*Task, 0, len(order))
	for _, id := range order {
		if task, ok := s.dag.Get(id); ok {
			plan = append(plan, task)
		}
	}
	return plan
}

// Levels groups task IDs by dependency depth: level 0 holds tasks without
// dependencies, level n tasks whose deepest dependency sits on level n-1.
// Each level keeps input order.
func (s *Scheduler) Levels() [][]string {
	order := s.Order()
	depth := make(map[string]int, len(order))
	maxDepth := -1

	for _, id := range order {
		task, _ := s.dag.Get(id)
		level := 0
		for _, depID := range task.DependsOn {
			if depth[depID]+1 > level {
				level = depth[depID] + 1
			}
		}
		depth[id] = level
		if level > maxDepth {
			maxDepth = level
		}
	}

	levels := make([][]string, maxDepth+1)
	for _, task := range s.dag.Tasks() {
		level := depth[task.ID]
		levels[level] = append(levels[level], task.ID)
	}
	return levels
}
