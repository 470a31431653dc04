package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/batchplan/internal/config"
	"github.com/aristath/batchplan/internal/kiro"
	"github.com/aristath/batchplan/internal/persistence"
	"github.com/aristath/batchplan/internal/routing"
	"github.com/aristath/batchplan/internal/scheduler"
	"github.com/aristath/batchplan/internal/taskfile"
)

// options holds the flags shared by every command.
type options struct {
	source      string
	catalog     string
	backends    string
	concurrency int
	store       string
}

// source is a loaded task set together with where it came from.
type source struct {
	tasks   []*scheduler.Task
	specDir string
	name    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "batchplan",
		Short: "Order declared tasks and group them into conflict-free parallel batches",
		Long: `batchplan reads a task set (a Kiro spec directory, a tasks.md file or a
YAML/JSON task file), checks its dependency graph, and computes the order and
the write-conflict-free batches in which the tasks can be dispatched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.source, "source", "s", "", "Spec directory, tasks.md, or YAML/JSON task file")
	flags.StringVar(&opts.catalog, "catalog", "", "Load tasks from the named catalog entry instead of --source")
	flags.StringVar(&opts.backends, "backends", "", "Comma separated list of allowed backends")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Max tasks per batch (0 = unlimited)")
	flags.StringVar(&opts.store, "store", "", "Task catalog database path")

	rootCmd.AddCommand(orderCmd(opts))
	rootCmd.AddCommand(batchesCmd(opts))
	rootCmd.AddCommand(planCmd(opts))
	rootCmd.AddCommand(dryRunCmd(opts))
	rootCmd.AddCommand(conflictsCmd(opts))
	rootCmd.AddCommand(emitCmd(opts))
	rootCmd.AddCommand(catalogCmd(opts))
	rootCmd.AddCommand(configCmd(opts))

	return rootCmd
}

// loadConfig layers flags over environment over config files.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("backends") {
		cfg.Backends = config.SplitList(opts.backends)
	}
	if flags.Changed("concurrency") {
		if opts.concurrency < 0 {
			return nil, fmt.Errorf("--concurrency must not be negative")
		}
		cfg.Concurrency = opts.concurrency
	}
	if flags.Changed("store") {
		cfg.StorePath = opts.store
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*persistence.SQLiteStore, error) {
	store, err := persistence.NewSQLiteStore(ctx, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", cfg.StorePath, err)
	}
	return store, nil
}

// loadSource reads tasks from --catalog or --source.
func loadSource(ctx context.Context, cfg *config.Config, opts *options) (*source, error) {
	if opts.catalog != "" {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		tasks, err := store.LoadSpec(ctx, opts.catalog)
		if err != nil {
			return nil, err
		}
		return &source{tasks: tasks, specDir: ".", name: opts.catalog}, nil
	}

	if opts.source == "" {
		return nil, fmt.Errorf("no task source: pass --source or --catalog")
	}
	return readSource(opts.source)
}

func readSource(path string) (*source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("task source: %w", err)
	}

	if info.IsDir() {
		spec, err := kiro.LoadSpec(path)
		if err != nil {
			return nil, err
		}
		return &source{tasks: spec.Tasks, specDir: spec.Dir, name: spec.Name}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		spec, err := kiro.LoadTasksFile(path)
		if err != nil {
			return nil, err
		}
		return &source{tasks: spec.Tasks, specDir: spec.Dir, name: spec.Name}, nil
	case ".yaml", ".yml", ".json":
		tasks, err := taskfile.LoadFile(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return &source{tasks: tasks, specDir: filepath.Dir(path), name: name}, nil
	default:
		return nil, fmt.Errorf("task source %s: unsupported file type", path)
	}
}

// prepare loads config and tasks, routes the tasks and builds the graph.
func prepare(cmd *cobra.Command, opts *options) (*config.Config, *source, *scheduler.DAG, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	src, err := loadSource(cmd.Context(), cfg, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	routing.New(cfg).Route(src.tasks)

	dag, err := scheduler.Build(src.tasks)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, src, dag, nil
}
