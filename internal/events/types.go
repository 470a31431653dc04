package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask = "task"
	TopicDAG  = "dag"
)

// Event type constants
const (
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskFailed    = "task.failed"
	EventTypeBatchPlanned  = "dag.batch"
	EventTypeDAGProgress   = "dag.progress"
)

// TaskStartedEvent is published when a task is dispatched.
type TaskStartedEvent struct {
	RunID     string
	ID        string
	Name      string
	Batch     int // Index of the batch the task was dispatched in
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a task is marked done.
type TaskCompletedEvent struct {
	RunID     string
	ID        string
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a task fails. Propagated lists the
// dependents that failed with it without running.
type TaskFailedEvent struct {
	RunID      string
	ID         string
	Err        error
	Propagated []string
	Duration   time.Duration
	Timestamp  time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }

// BatchPlannedEvent is published when a batch is chosen for dispatch.
type BatchPlannedEvent struct {
	RunID     string
	Index     int
	TaskIDs   []string
	Deferred  int // Ready tasks left for a later batch
	Timestamp time.Time
}

func (e BatchPlannedEvent) EventType() string { return EventTypeBatchPlanned }
func (e BatchPlannedEvent) TaskID() string    { return "" }

// DAGProgressEvent is published after each batch settles.
type DAGProgressEvent struct {
	RunID     string
	Total     int
	Pending   int
	Ready     int
	Running   int
	Done      int
	Failed    int
	Timestamp time.Time
}

func (e DAGProgressEvent) EventType() string { return EventTypeDAGProgress }
func (e DAGProgressEvent) TaskID() string    { return "" }
