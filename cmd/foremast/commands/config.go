package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/foremast/foremast/pkg/frozen"
	"github.com/foremast/foremast/pkg/node"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Long: `Inspect the configuration Foremast runs with: the built-in defaults
merged with the configuration source that was found.`,
	}

	cmd.AddCommand(newConfigShowCommand(a))
	cmd.AddCommand(newConfigSourcesCommand(a))

	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Print the configuration as YAML",
		Long: `Print the effective configuration, or one top-level key of it, as YAML.

Lists are printed the way the rest of Foremast reads them: sorted and
without duplicates. Use --raw to print the merge result before that
conversion.`,
		Example: `  # Print everything
  foremast config show

  # Print the base section
  foremast config show base

  # Keep list order and duplicates
  foremast config show --raw base`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out node.Node

			if raw {
				merged, err := a.facade.Merged(cmd.Context())
				if err != nil {
					return err
				}
				out = merged
				if len(args) > 0 {
					v, ok := merged.Lookup(args[0])
					if !ok {
						return fmt.Errorf("configuration key %q not found", args[0])
					}
					out = v
				}
			} else {
				cfg, err := a.facade.Load(cmd.Context())
				if err != nil {
					return err
				}
				out = frozen.Snapshot(cfg)
				if len(args) > 0 {
					v, err := cfg.Get(args[0])
					if err != nil {
						return err
					}
					out = frozen.Snapshot(v)
				}
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the merge result before lists are frozen")

	return cmd
}

func newConfigSourcesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Show where configuration was looked for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.facade.Source(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if res.Found {
				fmt.Fprintf(w, "Source: %s\n", res.Kind)
				for _, p := range res.Paths {
					fmt.Fprintf(w, "  read  %s\n", p)
				}
			} else {
				fmt.Fprintln(w, "Source: none (using defaults)")
			}

			fmt.Fprintln(w, "Looked in:")
			for _, p := range res.Tried {
				fmt.Fprintf(w, "  %s\n", p)
			}
			return nil
		},
	}

	return cmd
}
