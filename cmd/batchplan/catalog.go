package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/batchplan/internal/scheduler"
	"github.com/aristath/batchplan/internal/taskfile"
)

func catalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage saved task sets",
	}

	cmd.AddCommand(catalogSaveCmd(opts))
	cmd.AddCommand(catalogListCmd(opts))
	cmd.AddCommand(catalogShowCmd(opts))
	cmd.AddCommand(catalogDeleteCmd(opts))
	return cmd
}

func catalogSaveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "save [name]",
		Short: "Save the --source task set to the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if opts.source == "" {
				return fmt.Errorf("catalog save needs --source")
			}
			src, err := readSource(opts.source)
			if err != nil {
				return err
			}
			name := src.name
			if len(args) == 1 {
				name = args[0]
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveSpec(cmd.Context(), name, src.tasks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d tasks as %q\n", len(src.tasks), name)
			return nil
		},
	}
}

func catalogListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved task sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			specs, err := store.ListSpecs(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTASKS\tUPDATED")
			for _, s := range specs {
				fmt.Fprintf(w, "%s\t%d\t%s\n", s.Name, s.Tasks, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func catalogShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved task set as a YAML task file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadCatalogEntry(cmd, opts, args[0])
			if err != nil {
				return err
			}
			data, err := taskfile.Marshal(tasks)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func catalogDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a saved task set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteSpec(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", args[0])
			return nil
		},
	}
}

func loadCatalogEntry(cmd *cobra.Command, opts *options, name string) ([]*scheduler.Task, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.LoadSpec(cmd.Context(), name)
}
