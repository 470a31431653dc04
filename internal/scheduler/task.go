package scheduler

// TaskStatus represents the current state of a task.
type TaskStatus int

const (
	TaskPending TaskStatus = iota // Waiting for dependencies
	TaskReady                     // All dependencies done, selected for dispatch
	TaskRunning                   // Currently executing
	TaskDone                      // Finished successfully
	TaskFailed                    // Finished with error, or an ancestor failed
)

var statusNames = [...]string{
	TaskPending: "pending",
	TaskReady:   "ready",
	TaskRunning: "running",
	TaskDone:    "done",
	TaskFailed:  "failed",
}

func (s TaskStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Terminal reports whether no further transition is possible from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskDone || s == TaskFailed
}

// Task represents a unit of declared work.
type Task struct {
	ID          string   // Unique identifier within a run
	Name        string   // Human-readable description
	DependsOn   []string // Task IDs this task depends on
	Writes      []string // Files this task will write
	Reads       []string // Files this task will read
	TestCommand string   // Verification command declared with the task
	Backend     string   // Executor backend chosen by routing, if any
	Type        string   // Task type chosen by routing, if any
	Status      TaskStatus
}

// HasFileManifest reports whether the task declares any reads or writes.
// Tasks without a manifest have an unknown footprint.
func (t *Task) HasFileManifest() bool {
	return len(t.Writes) > 0 || len(t.Reads) > 0
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	cp := *t
	if t.DependsOn != nil {
		cp.DependsOn = append([]string(nil), t.DependsOn...)
	}
	if t.Writes != nil {
		cp.Writes = append([]string(nil), t.Writes...)
	}
	if t.Reads != nil {
		cp.Reads = append([]string(nil), t.Reads...)
	}
	return &cp
}
