// Package kiro reads Kiro-style spec directories: requirements.md, design.md
// and a tasks.md listing the work as "## Task N: description" sections.
package kiro

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aristath/batchplan/internal/scheduler"
)

// ErrNoTasks is returned when a tasks document declares no tasks.
var ErrNoTasks = errors.New("no tasks found")

var (
	headerRe = regexp.MustCompile(`(?i)^#{2,3}\s*Task\s*(\d+):\s*(.+)$`)
	filesRe  = regexp.MustCompile(`(?i)^-?\s*Files?:\s*(.+)$`)
	writesRe = regexp.MustCompile(`(?i)^-?\s*Writes?:\s*(.+)$`)
	readsRe  = regexp.MustCompile(`(?i)^-?\s*Reads?:\s*(.+)$`)
	depsRe   = regexp.MustCompile(`(?i)^-?\s*Dependenc(?:y|ies):\s*(.*)$`)
	testRe   = regexp.MustCompile(`(?i)^-?\s*Test(?:\s*Command)?:\s*(.+)$`)
	scopeRe  = regexp.MustCompile(`(?i)^-?\s*Scope:\s*(.+)$`)
)

// TaskID returns the task ID used for task number n.
func TaskID(n string) string {
	return "task-" + n
}

// ParseTasks parses a tasks.md document into tasks in document order.
// Lines before the first task header and unrecognized lines are ignored.
// A Scope line supplies the write set only for a task without a Files line.
func ParseTasks(content string) ([]*scheduler.Task, error) {
	var (
		tasks   []*scheduler.Task
		current *scheduler.Task
		scope   string
		byFiles bool
	)

	flush := func() {
		if current == nil {
			return
		}
		if !byFiles && scope != "" {
			current.Writes = []string{scope}
		}
		tasks = append(tasks, current)
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &scheduler.Task{
				ID:   TaskID(m[1]),
				Name: strings.TrimSpace(m[2]),
			}
			scope, byFiles = "", false
			continue
		}
		if current == nil {
			continue
		}

		if m := filesRe.FindStringSubmatch(line); m != nil {
			current.Writes = splitList(m[1])
			byFiles = true
			continue
		}
		if m := writesRe.FindStringSubmatch(line); m != nil {
			current.Writes = append(current.Writes, splitList(m[1])...)
			byFiles = true
			continue
		}
		if m := readsRe.FindStringSubmatch(line); m != nil {
			current.Reads = append(current.Reads, splitList(m[1])...)
			continue
		}
		if m := depsRe.FindStringSubmatch(line); m != nil {
			if deps := parseDependencies(m[1]); deps != nil {
				current.DependsOn = deps
			}
			continue
		}
		if m := testRe.FindStringSubmatch(line); m != nil {
			current.TestCommand = strings.TrimSpace(m[1])
			continue
		}
		if m := scopeRe.FindStringSubmatch(line); m != nil && scope == "" {
			scope = strings.TrimSpace(m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}
	flush()

	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

// parseDependencies accepts "Task 1", "task-2" and bare "3". "none", "n/a"
// and "-" mean no dependencies; unrecognized entries are dropped.
func parseDependencies(v string) []string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "none", "n/a", "-":
		return nil
	}

	deps := []string{}
	for _, dep := range strings.Split(v, ",") {
		dep = strings.TrimSpace(dep)
		switch {
		case strings.HasPrefix(dep, "task "):
			deps = append(deps, TaskID(strings.TrimSpace(strings.TrimPrefix(dep, "task "))))
		case strings.HasPrefix(dep, "task-"):
			deps = append(deps, dep)
		case isDigits(dep):
			deps = append(deps, TaskID(dep))
		}
	}
	return deps
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
