// Package main is the userfront command: it serves the local user facade and
// offers one-shot commands that drive the user store from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/patric-chuzhbe/userfront/cmd/userfront/commands"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	rootCmd := commands.NewRootCommand(commands.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
