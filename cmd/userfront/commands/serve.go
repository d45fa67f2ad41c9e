package commands

import (
	"github.com/spf13/cobra"

	"github.com/patric-chuzhbe/userfront/internal/config"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run the local HTTP facade",
		Long: `Run the local HTTP facade in front of the remote user API.

The user list is fetched once on start and kept in memory; writes go to the
remote API first and are then applied to the local cache.

Examples:
  # Serve on the default address
  userfront serve

  # Serve on a specific address against a specific API
  userfront serve --addr :9090 --api-base http://localhost:8000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("addr") {
					cfg.RunAddr = addr
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address and port to run the facade on")

	return cmd
}
