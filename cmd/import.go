package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/impactscore/rse-cli/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import companies from a registry file or the built-in seed data",
	Long: `Import company records into the store.

Supported inputs:
  - CSV files (comma or semicolon delimited, optional ISO 8859-1 encoding)
  - XLSX workbooks (first sheet)
  - ftp:// URLs (SIRENE bulk mirrors; downloaded before parsing)
  - the built-in seed dataset of well-known French companies (--seed)

Examples:
  import --seed
  import --file sirene.csv --latin1
  import --file registry.xlsx
  import --file ftp://mirror.example.fr/sirene/StockUniteLegale.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		latin1, _ := cmd.Flags().GetBool("latin1")
		seed, _ := cmd.Flags().GetBool("seed")

		if !seed && file == "" {
			return eris.New("import: either --file or --seed is required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		im := importer.New(st)

		if seed {
			n, err := im.Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d companies with scores\n", n)
			return nil
		}

		n, err := im.Import(ctx, file, importer.Options{Format: format, Latin1: latin1})
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d companies\n", n)
		return nil
	},
}

func init() {
	f := importCmd.Flags()
	f.String("file", "", "path or ftp:// URL of the registry file")
	f.String("format", "", "file format: csv or xlsx (default: by extension)")
	f.Bool("latin1", false, "decode CSV as ISO 8859-1")
	f.Bool("seed", false, "load the built-in seed dataset instead of a file")

	rootCmd.AddCommand(importCmd)
}
