// Package taskfile reads and writes task sets as YAML. JSON input works too,
// since JSON is a subset of YAML.
package taskfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/batchplan/internal/scheduler"
)

// Entry is one task as written in a task file.
type Entry struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Writes       []string `yaml:"writes,omitempty"`
	Reads        []string `yaml:"reads,omitempty"`
	Test         string   `yaml:"test,omitempty"`
	Backend      string   `yaml:"backend,omitempty"`
	Type         string   `yaml:"type,omitempty"`
}

// File is the mapping form of a task file. A bare top-level list of entries
// is accepted as well.
type File struct {
	Tasks []Entry `yaml:"tasks"`
}

// Parse decodes a task file payload into tasks in file order. Graph validity
// is not checked here; scheduler.Build does that.
func Parse(data []byte) ([]*scheduler.Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("taskfile: payload is empty")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("taskfile: decode: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("taskfile: payload is empty")
	}

	var entries []Entry
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("taskfile: decode tasks: %w", err)
		}
	case yaml.MappingNode:
		var f File
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("taskfile: decode tasks: %w", err)
		}
		entries = f.Tasks
	default:
		return nil, fmt.Errorf("taskfile: expected a list of tasks or a mapping with a tasks key")
	}

	tasks := make([]*scheduler.Task, 0, len(entries))
	for i, e := range entries {
		task, err := e.Task()
		if err != nil {
			return nil, fmt.Errorf("taskfile: entry %d: %w", i+1, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Task converts the entry into a pending scheduler task.
func (e Entry) Task() (*scheduler.Task, error) {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	return &scheduler.Task{
		ID:          id,
		Name:        strings.TrimSpace(e.Name),
		DependsOn:   trimAll(e.Dependencies),
		Writes:      trimAll(e.Writes),
		Reads:       trimAll(e.Reads),
		TestCommand: strings.TrimSpace(e.Test),
		Backend:     strings.TrimSpace(e.Backend),
		Type:        strings.TrimSpace(e.Type),
	}, nil
}

// FromTask builds the file entry for a task. Status is not part of a file.
func FromTask(t *scheduler.Task) Entry {
	return Entry{
		ID:           t.ID,
		Name:         t.Name,
		Dependencies: t.DependsOn,
		Writes:       t.Writes,
		Reads:        t.Reads,
		Test:         t.TestCommand,
		Backend:      t.Backend,
		Type:         t.Type,
	}
}

// LoadFile reads and parses the task file at path.
func LoadFile(path string) ([]*scheduler.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taskfile: read %s: %w", path, err)
	}
	tasks, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// Marshal encodes tasks in the mapping form accepted by Parse.
func Marshal(tasks []*scheduler.Task) ([]byte, error) {
	f := File{Tasks: make([]Entry, 0, len(tasks))}
	for _, t := range tasks {
		f.Tasks = append(f.Tasks, FromTask(t))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("taskfile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("taskfile: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// trimAll trims every value and drops blanks. It returns nil when nothing
// is left.
func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
