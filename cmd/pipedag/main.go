// Package main provides the entry point for the pipedag CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipedag-dev/pipedag/cmd/pipedag/commands"
	"github.com/pipedag-dev/pipedag/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "pipedag",
		Short: "pipedag - inspect and load sharded pipeline run folders",
		Long: `pipedag is the companion CLI for the pipedag engine.

Commands:
  inspect   Show a run folder's manifest and per-output cell completion
  load      Print one or more outputs of a completed run as JSON
  config    Load and validate pipedag configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewLoadCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "pipedag %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
