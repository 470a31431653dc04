// Package routing assigns a task type and an executor backend to each task
// from substring patterns over its description and files.
package routing

import (
	"slices"
	"strings"

	"github.com/aristath/batchplan/internal/config"
	"github.com/aristath/batchplan/internal/scheduler"
)

// Router applies the task type rules of a configuration.
type Router struct {
	types       []config.TaskTypeConfig
	defaultType string
	allowed     []string
	fallback    []string
}

// New creates a router from cfg. The task types are checked in order.
func New(cfg *config.Config) *Router {
	r := &Router{
		types:       cfg.TaskTypes,
		defaultType: cfg.DefaultType,
		allowed:     cfg.Backends,
		fallback:    cfg.Fallback,
	}
	if r.defaultType == "" {
		r.defaultType = "default"
	}
	return r
}

// DetectTaskType returns the first task type with a pattern found in the
// lowercased description and written files, or the default type. Reads do
// not count: reading a stylesheet does not make a task UI work.
func (r *Router) DetectTaskType(t *scheduler.Task) string {
	text := strings.ToLower(t.Name + " " + strings.Join(t.Writes, " "))

	for _, tt := range r.types {
		for _, pattern := range tt.Patterns {
			if pattern != "" && strings.Contains(text, strings.ToLower(pattern)) {
				return tt.Name
			}
		}
	}
	return r.defaultType
}

// SelectBackend returns the preferred backend for taskType when allowed,
// else the first allowed backend in fallback order. When nothing is allowed
// the first fallback entry is returned.
func (r *Router) SelectBackend(taskType string) string {
	preferred := ""
	for _, tt := range r.types {
		if tt.Name == taskType {
			preferred = tt.Backend
			break
		}
	}

	if preferred != "" && r.isAllowed(preferred) {
		return preferred
	}
	for _, b := range r.fallback {
		if r.isAllowed(b) {
			return b
		}
	}
	if len(r.fallback) > 0 {
		return r.fallback[0]
	}
	return preferred
}

func (r *Router) isAllowed(backend string) bool {
	return slices.Contains(r.allowed, backend)
}

// Route fills in Type and Backend on every task that does not set them
// already.
func (r *Router) Route(tasks []*scheduler.Task) {
	for _, t := range tasks {
		if t.Type == "" {
			t.Type = r.DetectTaskType(t)
		}
		if t.Backend == "" {
			t.Backend = r.SelectBackend(t.Type)
		}
	}
}
