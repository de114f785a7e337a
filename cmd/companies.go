package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/impactscore/rse-cli/internal/query"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List scored companies with filters",
	Long: `Filtered, sorted, paginated view of scored companies. Ranks always
reflect the whole scored population, not the filtered subset.

Examples:
  companies --query danone
  companies --sector Energie --sort global_score --order desc
  companies --min-score 60 --max-score 90 --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := query.Options{PerPage: cfg.Query.PageSize}
		opts.Search, _ = cmd.Flags().GetString("query")
		opts.Sector, _ = cmd.Flags().GetString("sector")
		opts.SortBy, _ = cmd.Flags().GetString("sort")
		opts.Order, _ = cmd.Flags().GetString("order")
		opts.Page, _ = cmd.Flags().GetInt("page")

		if cmd.Flags().Changed("min-score") {
			v, _ := cmd.Flags().GetFloat64("min-score")
			opts.MinScore = &v
		}
		if cmd.Flags().Changed("max-score") {
			v, _ := cmd.Flags().GetFloat64("max-score")
			opts.MaxScore = &v
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scored, err := loadRanked(ctx, st)
		if err != nil {
			return err
		}

		page := query.Run(scored, opts)
		if err := writeRankedTable(os.Stdout, page.Companies); err != nil {
			return err
		}
		fmt.Printf("\nPage %d/%d (%d companies)\n", page.Page, max(page.TotalPages, 1), page.Total)
		return nil
	},
}

func init() {
	f := companiesCmd.Flags()
	f.String("query", "", "match against company name or SIREN")
	f.String("sector", "", "exact sector filter")
	f.Float64("min-score", 0, "minimum global score (inclusive)")
	f.Float64("max-score", 0, "maximum global score (inclusive)")
	f.String("sort", "", "sort field: name, sector, global_score, rating_letter, rank")
	f.String("order", "", "sort order: asc or desc")
	f.Int("page", 1, "page number (page size from config, default 20)")

	rootCmd.AddCommand(companiesCmd)
}
