package ranking

import (
	"math"
	"sort"

	"github.com/impactscore/rse-cli/internal/model"
)

// CategoryStats holds the order statistics for one score category within a
// sector. Count is the number of companies that actually carried a value for
// the category.
type CategoryStats struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	P75     float64 `json:"p75"`
	Count   int     `json:"count"`
}

// SectorStats aggregates one sector. Category pointers are nil when no
// company in the sector carried a value for that category.
type SectorStats struct {
	Sector        string         `json:"sector"`
	CompanyCount  int            `json:"company_count"`
	Global        *CategoryStats `json:"global"`
	Environmental *CategoryStats `json:"environmental"`
	Social        *CategoryStats `json:"social"`
	Governance    *CategoryStats `json:"governance"`
	Ethics        *CategoryStats `json:"ethics"`
}

// SectorStatistics computes per-category statistics for one sector. Returns
// nil when the sector has no scored companies.
func SectorStatistics(scored []model.ScoredCompany, sector string) *SectorStats {
	var members []model.ScoredCompany
	for _, sc := range scored {
		if sc.Company.Sector == sector {
			members = append(members, sc)
		}
	}
	if len(members) == 0 {
		return nil
	}

	stats := &SectorStats{Sector: sector, CompanyCount: len(members)}

	var global []float64
	var env, social, gov, ethics []float64
	for _, m := range members {
		global = append(global, m.Score.GlobalScore)
		env = appendIfSet(env, m.Score.Environmental)
		social = appendIfSet(social, m.Score.Social)
		gov = appendIfSet(gov, m.Score.Governance)
		ethics = appendIfSet(ethics, m.Score.Ethics)
	}

	stats.Global = summarize(global)
	stats.Environmental = summarize(env)
	stats.Social = summarize(social)
	stats.Governance = summarize(gov)
	stats.Ethics = summarize(ethics)
	return stats
}

func appendIfSet(dst []float64, v *float64) []float64 {
	if v == nil {
		return dst
	}
	return append(dst, *v)
}

func summarize(values []float64) *CategoryStats {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return &CategoryStats{
		Average: round2(sum / float64(len(sorted))),
		Median:  round2(median(sorted)),
		P75:     round2(percentile(sorted, 0.75)),
		Count:   len(sorted),
	}
}

// median of an already sorted slice. Even-length input averages the two
// middle order statistics.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile linearly interpolates between adjacent order statistics of an
// already sorted slice. p is a fraction in [0,1].
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if frac == 0 || lo+1 >= n {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
