package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/impactscore/rse-cli/internal/model"
)

// openOutput returns stdout or the given file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output %s", path)
	}
	return f, f.Close, nil
}

func formatCategory(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func writeRankedTable(w io.Writer, scored []model.ScoredCompany) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSIREN\tNAME\tSECTOR\tGLOBAL\tRATING\tENV\tSOC\tGOV\tETH\tQUALITY")
	for _, sc := range scored {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\t%d%%\n",
			sc.Rank, sc.Company.SIREN, sc.Company.Name, sc.Company.Sector,
			sc.Score.GlobalScore, sc.Score.RatingLetter,
			formatCategory(sc.Score.Environmental),
			formatCategory(sc.Score.Social),
			formatCategory(sc.Score.Governance),
			formatCategory(sc.Score.Ethics),
			sc.Score.QualityScore,
		)
	}
	return tw.Flush()
}

func writeRankedCSV(w io.Writer, scored []model.ScoredCompany) error {
	cw := csv.NewWriter(w)
	header := []string{"rank", "siren", "name", "sector", "global_score", "rating_letter",
		"environmental", "social", "governance", "ethics", "data_quality_score"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "write csv header")
	}
	for _, sc := range scored {
		row := []string{
			strconv.Itoa(sc.Rank),
			sc.Company.SIREN,
			sc.Company.Name,
			sc.Company.Sector,
			strconv.FormatFloat(sc.Score.GlobalScore, 'f', 2, 64),
			string(sc.Score.RatingLetter),
			formatCategory(sc.Score.Environmental),
			formatCategory(sc.Score.Social),
			formatCategory(sc.Score.Governance),
			formatCategory(sc.Score.Ethics),
			strconv.Itoa(sc.Score.QualityScore),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "flush csv")
}

func writeRanked(w io.Writer, format string, scored []model.ScoredCompany) error {
	switch format {
	case "table":
		return writeRankedTable(w, scored)
	case "csv":
		return writeRankedCSV(w, scored)
	default:
		return eris.Errorf("unknown format %q (want table or csv)", format)
	}
}
