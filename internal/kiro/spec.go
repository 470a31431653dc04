package kiro

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/batchplan/internal/scheduler"
)

// Spec directory documents.
const (
	RequirementsFile = "requirements.md"
	DesignFile       = "design.md"
	TasksFile        = "tasks.md"
)

var specFiles = []string{RequirementsFile, DesignFile, TasksFile}

// ValidationResult reports which spec documents are present in a directory.
type ValidationResult struct {
	Dir     string
	Present []string
	Missing []string
}

// Valid reports whether every spec document was found.
func (r ValidationResult) Valid() bool {
	return len(r.Missing) == 0
}

// Error describes the missing documents, or returns "" when valid.
func (r ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	return fmt.Sprintf("spec %s is missing %s", r.Dir, strings.Join(r.Missing, ", "))
}

// ValidateSpecDir checks dir for the spec documents.
func ValidateSpecDir(dir string) ValidationResult {
	result := ValidationResult{Dir: dir}
	for _, name := range specFiles {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			result.Missing = append(result.Missing, name)
			continue
		}
		result.Present = append(result.Present, name)
	}
	return result
}

// Spec is a loaded spec directory.
type Spec struct {
	Dir   string
	Name  string // Directory base name, e.g. "user-auth"
	Tasks []*scheduler.Task
}

// DesignRef returns the design document reference handed to executors.
func (s *Spec) DesignRef() string {
	return filepath.ToSlash(filepath.Join(s.Dir, DesignFile))
}

// LoadSpec validates dir and parses its tasks document.
func LoadSpec(dir string) (*Spec, error) {
	if result := ValidateSpecDir(dir); !result.Valid() {
		return nil, errors.New(result.Error())
	}
	return LoadTasksFile(filepath.Join(dir, TasksFile))
}

// LoadTasksFile parses a single tasks document. The spec directory is the
// file's parent directory.
func LoadTasksFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	tasks, err := ParseTasks(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	return &Spec{
		Dir:   dir,
		Name:  filepath.Base(dir),
		Tasks: tasks,
	}, nil
}
