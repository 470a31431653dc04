// Package emit writes task sets in the plain-text format consumed by
// parallel executor wrappers: one ---TASK--- header block and one
// ---CONTENT--- body per task.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aristath/batchplan/internal/scheduler"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultTestCommand  = "npm test -- --coverage"
	DefaultDeliverables = "code + unit tests + coverage ≥90% + coverage summary"
	DefaultWorkdir      = "."
)

// Options controls the emitted text.
type Options struct {
	SpecDir      string // Directory holding design.md
	Workdir      string
	TestCommand  string // Used for tasks without their own test command
	Deliverables string
}

func (o Options) withDefaults() Options {
	if o.SpecDir == "" {
		o.SpecDir = "."
	}
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}
	if o.TestCommand == "" {
		o.TestCommand = DefaultTestCommand
	}
	if o.Deliverables == "" {
		o.Deliverables = DefaultDeliverables
	}
	return o
}

// WriteParallelConfig writes one block per task in the given order. Tasks
// should already be routed; an empty backend is written as is.
func WriteParallelConfig(w io.Writer, tasks []*scheduler.Task, opts Options) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)

	for _, t := range tasks {
		scope := "TBD"
		if len(t.Writes) > 0 {
			scope = strings.Join(t.Writes, ", ")
		}
		test := t.TestCommand
		if test == "" {
			test = opts.TestCommand
		}

		fmt.Fprintln(bw, "---TASK---")
		fmt.Fprintf(bw, "id: %s\n", t.ID)
		fmt.Fprintf(bw, "backend: %s\n", t.Backend)
		fmt.Fprintf(bw, "workdir: %s\n", opts.Workdir)
		if len(t.DependsOn) > 0 {
			fmt.Fprintf(bw, "dependencies: %s\n", strings.Join(t.DependsOn, ", "))
		}
		fmt.Fprintln(bw, "---CONTENT---")
		fmt.Fprintf(bw, "Task: %s\n", t.Name)
		fmt.Fprintf(bw, "Reference: @%s/design.md\n", strings.TrimSuffix(opts.SpecDir, "/"))
		fmt.Fprintf(bw, "Scope: %s\n", scope)
		fmt.Fprintf(bw, "Test: %s\n", test)
		fmt.Fprintf(bw, "Deliverables: %s\n", opts.Deliverables)
		fmt.Fprintln(bw)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing parallel config: %w", err)
	}
	return nil
}
