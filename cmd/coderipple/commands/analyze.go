package commands

import (
	"github.com/spf13/cobra"

	"github.com/robertoallende/coderipple-sub001/pkg/config"
	"github.com/robertoallende/coderipple-sub001/pkg/engine"
)

const analyzeArgCount = 2

// NewAnalyzeCommand creates the analyze subcommand. It runs the full
// analysis pipeline and prints the routing decision without invoking any
// collaborator.
func NewAnalyzeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "analyze <metadata.json> <diff-file>",
		Short: "Parse a change event and print the routing decision",
		Args:  cobra.ExactArgs(analyzeArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], args[1], configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: config.yaml in . or ./config)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, metadataPath, diffPath, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	event, err := loadEvent(metadataPath, diffPath)
	if err != nil {
		return err
	}

	eng := engine.New(cfg.Analysis.RuleSet(), cfg.Analysis.Policy())

	analysis, err := eng.Analyze(event)
	if err != nil {
		return err
	}

	renderAnalysis(cmd.OutOrStdout(), event, analysis)

	return nil
}
