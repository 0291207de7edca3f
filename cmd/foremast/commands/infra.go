package commands

import (
	"github.com/spf13/cobra"
)

func newInfraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infra",
		Short: "Infrastructure subcommands",
		Long: `Manage application infrastructure.

No infrastructure subcommands are available yet; this prints help.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	return cmd
}
