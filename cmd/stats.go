package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/impactscore/rse-cli/internal/ranking"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show score statistics",
	Long: `Display aggregate statistics over scored companies: the dashboard
overview, the score distribution, and per-sector averages. With --sector,
show the detailed per-category statistics for that sector.

Examples:
  stats
  stats --sector Energie
  stats --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sector, _ := cmd.Flags().GetString("sector")
		format, _ := cmd.Flags().GetString("format")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scored, err := st.ListScored(ctx)
		if err != nil {
			return err
		}

		if sector != "" {
			stats := ranking.SectorStatistics(scored, sector)
			if stats == nil {
				return eris.Errorf("no scored companies in sector %q", sector)
			}
			if format == "json" {
				return printJSON(stats)
			}
			printSectorStats(stats)
			return nil
		}

		total, err := st.CountCompanies(ctx)
		if err != nil {
			return err
		}

		overview := ranking.BuildOverview(total, scored)
		dist := ranking.Distribution(scored)
		sectors := ranking.BySector(scored)

		if format == "json" {
			return printJSON(map[string]any{
				"overview":           overview,
				"distribution":       dist,
				"sector_performance": sectors,
			})
		}

		fmt.Printf("Companies: %d (%d scored)\n", overview.TotalCompanies, overview.ScoredCompanies)
		fmt.Printf("Average global score: %.2f\n", overview.AverageGlobal)
		fmt.Printf("Top performers (>= 80): %d\n", overview.TopPerformers)
		fmt.Printf("Need improvement (< 60): %d\n\n", overview.NeedImprovement)

		fmt.Println("Distribution:")
		for _, bucket := range []string{
			ranking.BucketExcellent, ranking.BucketGood,
			ranking.BucketAverage, ranking.BucketWeak,
		} {
			fmt.Printf("  %-20s %d\n", bucket, dist[bucket])
		}

		if len(sectors) > 0 {
			fmt.Println("\nSectors:")
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  SECTOR\tAVG\tCOMPANIES")
			for _, sp := range sectors {
				fmt.Fprintf(tw, "  %s\t%.2f\t%d\n", sp.Sector, sp.AverageScore, sp.CompanyCount)
			}
			tw.Flush()
		}
		return nil
	},
}

func printSectorStats(stats *ranking.SectorStats) {
	fmt.Printf("Sector: %s (%d companies)\n\n", stats.Sector, stats.CompanyCount)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tAVG\tMEDIAN\tP75\tCOUNT")
	printCategoryStats(tw, "Global", stats.Global)
	printCategoryStats(tw, "Environnement", stats.Environmental)
	printCategoryStats(tw, "Social", stats.Social)
	printCategoryStats(tw, "Gouvernance", stats.Governance)
	printCategoryStats(tw, "Éthique", stats.Ethics)
	tw.Flush()
}

func printCategoryStats(tw *tabwriter.Writer, name string, cs *ranking.CategoryStats) {
	if cs == nil {
		fmt.Fprintf(tw, "%s\t-\t-\t-\t0\n", name)
		return
	}
	fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\n", name, cs.Average, cs.Median, cs.P75, cs.Count)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := statsCmd.Flags()
	f.String("sector", "", "show detailed statistics for one sector")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(statsCmd)
}
