package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"userfront %s\ncommit: %s\nbuilt: %s\n",
				info.Version,
				info.Commit,
				info.BuildDate,
			)
			return err
		},
	}
}
