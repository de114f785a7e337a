package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/impactscore/rse-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rse-cli",
	Short: "CSR scoring and ranking for French companies",
	Long:  "Aggregates CSR indicator data from public sources (INSEE, Portail RSE, ADEME, data.gouv.fr), derives category and global scores with letter ratings, and serves ranked views.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if c.Scoring.RulesFile != "" {
			rules, err := config.LoadScoringRules(c.Scoring.RulesFile, c.Scoring)
			if err != nil {
				return fmt.Errorf("load scoring rules: %w", err)
			}
			c.Scoring = rules
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
