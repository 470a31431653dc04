package kiro

import (
	"errors"
	"reflect"
	"testing"

	"github.com/aristath/batchplan/internal/scheduler"
)

const sampleTasks = `# Implementation Plan

Intro text that is not a task.

## Task 1: Add auth API
- Files: src/api/auth.ts, src/api/types.ts
- Dependencies: none
- Test: npm test -- auth

### Task 2: Build login form component
- Files: src/components/Login.tsx
- Reads: src/api/types.ts
- Dependencies: Task 1
- Test Command: npm test -- login

## task 3: Wire session handling
- Scope: src/session/**
- Dependencies: task-1, 2

## Task 4: Docs
- Scope: docs/**
- Files: README.md
- Dependencies: n/a
`

func TestParseTasks(t *testing.T) {
	got, err := ParseTasks(sampleTasks)
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}

	want := []*scheduler.Task{
		{
			ID:          "task-1",
			Name:        "Add auth API",
			Writes:      []string{"src/api/auth.ts", "src/api/types.ts"},
			TestCommand: "npm test -- auth",
		},
		{
			ID:          "task-2",
			Name:        "Build login form component",
			DependsOn:   []string{"task-1"},
			Writes:      []string{"src/components/Login.tsx"},
			Reads:       []string{"src/api/types.ts"},
			TestCommand: "npm test -- login",
		},
		{
			ID:        "task-3",
			Name:      "Wire session handling",
			DependsOn: []string{"task-1", "task-2"},
			Writes:    []string{"src/session/**"},
		},
		{
			ID:     "task-4",
			Name:   "Docs",
			Writes: []string{"README.md"},
		},
	}

	if len(got) != len(want) {
		t.Fatalf("ParseTasks() returned %d tasks, want %d", len(got), len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("task %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// The parsed set forms a valid graph.
	if _, err := scheduler.Build(got); err != nil {
		t.Errorf("Build() error = %v", err)
	}
}

func TestParseTasksNoTasks(t *testing.T) {
	for _, content := range []string{"", "# Plan\n\n- Files: a.go\n", "#### Task 1: too deep"} {
		if _, err := ParseTasks(content); !errors.Is(err, ErrNoTasks) {
			t.Errorf("ParseTasks(%q) error = %v, want ErrNoTasks", content, err)
		}
	}
}

func TestParseDependencies(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Task 1, Task 2", []string{"task-1", "task-2"}},
		{"task-3", []string{"task-3"}},
		{"4, 5", []string{"task-4", "task-5"}},
		{"None", nil},
		{"N/A", nil},
		{"-", nil},
		{"", nil},
		{"the api task", []string{}},
	}
	for _, tt := range tests {
		if got := parseDependencies(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseDependencies(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestParseTasksWritesAndFilesCombine(t *testing.T) {
	tasks, err := ParseTasks("## Task 1: x\n- Writes: a.go\n- Write: b.go\n- Scope: ignored/**\n")
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}
	if want := []string{"a.go", "b.go"}; !reflect.DeepEqual(tasks[0].Writes, want) {
		t.Errorf("Writes = %v, want %v", tasks[0].Writes, want)
	}
}

func TestParseTasksFirstScopeWins(t *testing.T) {
	got, err := ParseTasks("## Task 1: x\n- Scope: src/a/**\n- Scope: src/b/**\n")
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}
	if want := []string{"src/a/**"}; !reflect.DeepEqual(got[0].Writes, want) {
		t.Errorf("Writes = %v, want %v", got[0].Writes, want)
	}
}
