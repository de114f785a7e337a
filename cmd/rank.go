package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Show the global company ranking",
	Long: `List scored companies ordered by global score. Ranks are computed
over the whole scored population; ties keep storage order.

Examples:
  rank
  rank --limit 10
  rank --format csv --output ranking.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scored, err := loadRanked(ctx, st)
		if err != nil {
			return err
		}
		if limit > 0 && len(scored) > limit {
			scored = scored[:limit]
		}

		w, closeFn, err := openOutput(output)
		if err != nil {
			return err
		}
		if err := writeRanked(w, format, scored); err != nil {
			closeFn()
			return err
		}
		return closeFn()
	},
}

func init() {
	f := rankCmd.Flags()
	f.Int("limit", 0, "maximum number of companies (0 = all)")
	f.String("format", "table", "output format: table or csv")
	f.String("output", "", "output file path (default: stdout)")

	rootCmd.AddCommand(rankCmd)
}
