package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrCycle             = errors.New("dependency cycle")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateTask     = errors.New("duplicate task")
	ErrUnknownTask       = errors.New("unknown task")
	ErrInvalidTask       = errors.New("invalid task")
)

// MissingDependencyError reports a dependency id that names no task in the set.
type MissingDependencyError struct {
	TaskID    string // Task declaring the dependency
	MissingID string // Dependency that could not be resolved
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on non-existent task %q", e.TaskID, e.MissingID)
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// CycleError lists the tasks participating in a dependency cycle, in
// traversal order.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	if len(e.IDs) == 0 {
		return ErrCycle.Error()
	}
	path := append(append([]string(nil), e.IDs...), e.IDs[0])
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// InvalidTransitionError is returned when a caller attempts a status change
// the state machine does not allow.
type InvalidTransitionError struct {
	TaskID string
	From   TaskStatus
	To     TaskStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("task %q: cannot move from %s to %s", e.TaskID, e.From, e.To)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// DuplicateTaskError is returned when two tasks share an id, or an id is empty.
type DuplicateTaskError struct {
	TaskID string
}

func (e *DuplicateTaskError) Error() string {
	if e.TaskID == "" {
		return "task with empty ID"
	}
	return fmt.Sprintf("task with ID %q already exists", e.TaskID)
}

func (e *DuplicateTaskError) Unwrap() error { return ErrDuplicateTask }

// NilTaskError reports a nil entry in a task list.
type NilTaskError struct {
	Index int
}

func (e *NilTaskError) Error() string {
	return fmt.Sprintf("nil task at position %d", e.Index)
}

func (e *NilTaskError) Unwrap() error { return ErrInvalidTask }

// UnknownTaskError is returned for lookups of ids outside the graph.
type UnknownTaskError struct {
	TaskID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("task %q not found", e.TaskID)
}

func (e *UnknownTaskError) Unwrap() error { return ErrUnknownTask }
