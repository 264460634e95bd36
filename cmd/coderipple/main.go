// Package main provides the entry point for the coderipple CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/robertoallende/coderipple-sub001/cmd/coderipple/commands"
	"github.com/robertoallende/coderipple-sub001/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	// Local runs keep collaborator credentials in a .env file; absence
	// is fine, the environment wins either way.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "coderipple",
		Short: "CodeRipple - change analysis and documentation routing",
		Long: `CodeRipple turns raw change events into documentation work.

Commands:
  analyze   Parse a change event and print the routing decision
  route     Analyze a change event and dispatch documentation specialists`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewRouteCommand())
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
			fmt.Fprintf(os.Stdout, "coderipple %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
