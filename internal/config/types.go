package config

// TaskTypeConfig routes one task type to a preferred backend. A task matches
// the type when any pattern is a substring of its lowercased description or
// file list.
type TaskTypeConfig struct {
	Name     string   `json:"name"`               // Task type, e.g. "ui", "quick-fix"
	Patterns []string `json:"patterns,omitempty"` // Empty for the catch-all type
	Backend  string   `json:"backend"`            // Preferred backend for this type
}

// Config is the top-level configuration.
type Config struct {
	// Backends lists the backends a task may be routed to.
	Backends []string `json:"backends,omitempty"`

	// TaskTypes are checked in order; the first matching type wins.
	TaskTypes []TaskTypeConfig `json:"task_types,omitempty"`

	// DefaultType is the type given to tasks that match no patterns.
	DefaultType string `json:"default_type,omitempty"`

	// Fallback is tried in order when a preferred backend is not allowed.
	Fallback []string `json:"fallback,omitempty"`

	// Concurrency caps batch size and parallel dispatch. 0 means unlimited.
	Concurrency int `json:"concurrency"`

	TestCommand  string `json:"test_command,omitempty"`
	Deliverables string `json:"deliverables,omitempty"`

	// StorePath is the SQLite task catalog file.
	StorePath string `json:"store_path,omitempty"`
}

// TaskType returns the configuration for the named task type.
func (c *Config) TaskType(name string) (TaskTypeConfig, bool) {
	for _, tt := range c.TaskTypes {
		if tt.Name == name {
			return tt, true
		}
	}
	return TaskTypeConfig{}, false
}
