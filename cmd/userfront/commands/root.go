// Package commands holds the cobra commands of the userfront binary.
package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/patric-chuzhbe/userfront/internal/app"
	"github.com/patric-chuzhbe/userfront/internal/config"
)

// BuildInfo is stamped into the binary by build flags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	apiBase    string
	timeout    time.Duration
	logLevel   string
}

// NewRootCommand creates the userfront root command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "userfront",
		Short: "Client and local facade for the remote user API",
		Long: `userfront keeps a local cache of the users exposed by the remote user API.

It can run as a local HTTP facade (serve) or drive the API directly
with the list, create, update and delete commands.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Configuration file path (JSON or YAML)")
	flags.StringVar(&opts.apiBase, "api-base", "", "Base URL of the remote user API")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Timeout of a single upstream request")
	flags.StringVar(&opts.logLevel, "log-level", "", "Logger level")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newListCommand(opts),
		newCreateCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
		newVersionCommand(info),
	)

	return rootCmd
}

// loadConfig builds the configuration; flags given on the command line win
// over every other source.
func (opts *globalOptions) loadConfig(cmd *cobra.Command, extra ...func(*config.Config)) (*config.Config, error) {
	flags := cmd.Flags()

	initOptions := []config.InitOption{
		config.WithDisableFlagsParsing(true),
		config.WithOverrides(func(cfg *config.Config) {
			if flags.Changed("api-base") {
				cfg.APIBaseURL = opts.apiBase
			}
			if flags.Changed("timeout") {
				cfg.RequestTimeout = opts.timeout
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
		}),
	}
	if opts.configFile != "" {
		initOptions = append(initOptions, config.WithConfigFile(opts.configFile))
	}
	for _, override := range extra {
		initOptions = append(initOptions, config.WithOverrides(override))
	}

	return config.New(initOptions...)
}

func (opts *globalOptions) newApp(cmd *cobra.Command, extra ...func(*config.Config)) (*app.App, error) {
	cfg, err := opts.loadConfig(cmd, extra...)
	if err != nil {
		return nil, err
	}

	return app.New(cfg)
}

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
