package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/impactscore/rse-cli/internal/scoring"
	"github.com/impactscore/rse-cli/internal/sources"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch indicator data and recompute scores",
	Long: `Fetch raw CSR indicators from the external sources, recompute the
category and global scores, and persist the result.

Examples:
  refresh --siren 552032534
  refresh --all --concurrency 10
  refresh --siren 552032534 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		siren, _ := cmd.Flags().GetString("siren")
		all, _ := cmd.Flags().GetBool("all")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if siren == "" && !all {
			return eris.New("refresh: either --siren or --all is required")
		}
		if siren != "" && all {
			return eris.New("refresh: --siren and --all are mutually exclusive")
		}
		if concurrency == 0 {
			concurrency = cfg.Refresh.Concurrency
		}

		if dryRun {
			if all {
				return eris.New("refresh: --dry-run requires --siren")
			}
			client := sources.NewClient(cfg.Sources)
			result := scoring.Calculate(client.FetchAll(ctx, siren), cfg.Scoring)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		refresher := newRefresher(st)

		if siren != "" {
			score, err := refresher.RefreshOne(ctx, siren)
			if err != nil {
				return err
			}
			fmt.Printf("%s: global %.2f, rating %s (%d%% data quality)\n",
				siren, score.GlobalScore, score.RatingLetter, score.QualityScore)
			return nil
		}

		batch, err := refresher.RefreshAll(ctx, concurrency)
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d/%d companies\n", batch.Succeeded, batch.Total)
		for _, failed := range batch.Failed {
			fmt.Printf("  failed: %s\n", failed)
		}
		return nil
	},
}

func init() {
	f := refreshCmd.Flags()
	f.String("siren", "", "refresh a single company by SIREN")
	f.Bool("all", false, "refresh every stored company")
	f.Int("concurrency", 0, "max concurrent refreshes (default from config)")
	f.Bool("dry-run", false, "fetch and score without persisting")

	rootCmd.AddCommand(refreshCmd)
}
