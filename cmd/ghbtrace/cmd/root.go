// Package cmd provides the command-line interface for ghbtrace.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ghbtrace",
	Short: "ghbtrace replays memory access traces through the GHB prefetcher.",
	Long: `ghbtrace replays memory access traces through the GHB correlation ` +
		`prefetcher and reports its prediction accuracy. Use "ghbtrace replay" ` +
		`to feed a trace file through the dispatcher.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
