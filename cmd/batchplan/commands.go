package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/batchplan/internal/batch"
	"github.com/aristath/batchplan/internal/emit"
	"github.com/aristath/batchplan/internal/events"
	"github.com/aristath/batchplan/internal/orchestrator"
	"github.com/aristath/batchplan/internal/render"
	"github.com/aristath/batchplan/internal/scheduler"
)

func orderCmd(opts *options) *cobra.Command {
	var flagLevels bool

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the tasks in dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, dag, err := prepare(cmd, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := scheduler.NewScheduler(dag)
			if flagLevels {
				for i, level := range s.Levels() {
					fmt.Fprintf(out, "%d: %s\n", i, strings.Join(level, ", "))
				}
				return nil
			}
			for _, id := range s.Order() {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagLevels, "levels", false, "Group tasks by dependency depth")
	return cmd
}

func batchesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "batches",
		Short: "Partition the currently ready tasks into conflict-free batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, dag, err := prepare(cmd, opts)
			if err != nil {
				return err
			}
			batches := batch.PartitionWithLimit(dag.ReadyTasks(), cfg.Concurrency)
			fmt.Fprint(cmd.OutOrStdout(), render.Batches(batches))
			return nil
		},
	}
}

func planCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show every dispatch wave of a run in which all tasks succeed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, dag, err := prepare(cmd, opts)
			if err != nil {
				return err
			}
			plan, err := orchestrator.SimulateDAG(dag, cfg.Concurrency)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Plan(plan))
			return nil
		},
	}
}

func dryRunCmd(opts *options) *cobra.Command {
	var flagFail []string

	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Drive the runner with a no-op dispatcher and print its events",
		Long: `dry-run drives the batch runner exactly as a real executor would, but
every dispatch returns immediately. Tasks named with --fail report failure so
the effect on their dependents can be previewed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, dag, err := prepare(cmd, opts)
			if err != nil {
				return err
			}

			failing := make(map[string]bool, len(flagFail))
			for _, id := range flagFail {
				if _, ok := dag.Get(id); !ok {
					return &scheduler.UnknownTaskError{TaskID: id}
				}
				failing[id] = true
			}

			bus := events.NewEventBus()
			all := bus.SubscribeAll(0)
			dagEvents := bus.Subscribe(events.TopicDAG, 0)

			out := cmd.OutOrStdout()
			logged := make(chan struct{})
			go func() {
				defer close(logged)
				for ev := range all {
					fmt.Fprintln(out, render.EventLine(ev))
				}
			}()

			// The footer shows the last progress snapshot the bus delivered.
			var last *events.DAGProgressEvent
			tracked := make(chan struct{})
			go func() {
				defer close(tracked)
				for ev := range dagEvents {
					if p, ok := ev.(events.DAGProgressEvent); ok {
						last = &p
					}
				}
			}()

			runner := orchestrator.NewRunner(orchestrator.RunnerConfig{
				ConcurrencyLimit: cfg.Concurrency,
				EventBus:         bus,
				Dispatch: func(ctx context.Context, task *scheduler.Task) error {
					if failing[task.ID] {
						return errors.New("marked to fail")
					}
					return ctx.Err()
				},
			}, dag)

			_, progress, runErr := runner.Run(cmd.Context())
			bus.Close()
			<-logged
			<-tracked

			if n := bus.Dropped(); n > 0 {
				log.Printf("WARNING: %d events were not displayed", n)
			}
			if last != nil {
				progress = scheduler.Progress{
					Total:   last.Total,
					Pending: last.Pending,
					Ready:   last.Ready,
					Running: last.Running,
					Done:    last.Done,
					Failed:  last.Failed,
				}
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, render.Progress(progress, 60))
			return runErr
		},
	}

	cmd.Flags().StringSliceVar(&flagFail, "fail", nil, "Task IDs whose dispatch should fail")
	return cmd
}

func conflictsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List every pair of tasks that write the same file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, src, _, err := prepare(cmd, opts)
			if err != nil {
				return err
			}
			conflicts := batch.DetectFileConflicts(src.tasks)
			fmt.Fprint(cmd.OutOrStdout(), render.Conflicts(conflicts))

			for _, t := range src.tasks {
				if !batch.HasFileManifest(t) {
					log.Printf("WARNING: task %q declares no files and will always run alone", t.ID)
				}
			}
			return nil
		},
	}
}

func emitCmd(opts *options) *cobra.Command {
	var flagOutput string

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write the tasks in parallel executor config format",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, src, _, err := prepare(cmd, opts)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			fmt.Fprintf(stderr, "# Parsed %d tasks from %s\n", len(src.tasks), src.name)
			for _, t := range src.tasks {
				fmt.Fprintf(stderr, "#   %s: %s -> %s\n", t.ID, truncate(t.Name, 50), t.Backend)
			}

			emitOpts := emit.Options{
				SpecDir:      src.specDir,
				TestCommand:  cfg.TestCommand,
				Deliverables: cfg.Deliverables,
			}

			if flagOutput == "" {
				return emit.WriteParallelConfig(cmd.OutOrStdout(), src.tasks, emitOpts)
			}

			f, err := os.Create(flagOutput)
			if err != nil {
				return fmt.Errorf("create %s: %w", flagOutput, err)
			}
			if err := emit.WriteParallelConfig(f, src.tasks, emitOpts); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
