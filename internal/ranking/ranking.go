// Package ranking computes global ranks and sector-relative statistics over
// the scored population. Every function here is a pure function of its
// input snapshot: recomputing over unchanged scores yields identical output.
package ranking

import (
	"sort"

	"github.com/impactscore/rse-cli/internal/model"
)

// BuildRankMap returns company-id → 1-based rank, ordered by global score
// descending. The sort is stable: companies with equal scores keep their
// input order. Rank always covers the entire scored population, independent
// of any later filtering.
func BuildRankMap(scored []model.ScoredCompany) map[int64]int {
	ordered := make([]model.ScoredCompany, len(scored))
	copy(ordered, scored)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score.GlobalScore > ordered[j].Score.GlobalScore
	})

	ranks := make(map[int64]int, len(ordered))
	for i, sc := range ordered {
		ranks[sc.Company.ID] = i + 1
	}
	return ranks
}

// Attach copies ranks from the rank map onto the joined records. Companies
// missing from the map keep a zero rank.
func Attach(scored []model.ScoredCompany, ranks map[int64]int) {
	for i := range scored {
		scored[i].Rank = ranks[scored[i].Company.ID]
	}
}

// Distribution buckets used by the overview endpoint.
const (
	BucketExcellent = "Excellent (80-100)"
	BucketGood      = "Bon (60-79)"
	BucketAverage   = "Moyen (40-59)"
	BucketWeak      = "Faible (0-39)"
)

// Distribution counts scored companies per global-score bucket.
func Distribution(scored []model.ScoredCompany) map[string]int {
	dist := map[string]int{
		BucketExcellent: 0,
		BucketGood:      0,
		BucketAverage:   0,
		BucketWeak:      0,
	}
	for _, sc := range scored {
		switch g := sc.Score.GlobalScore; {
		case g >= 80:
			dist[BucketExcellent]++
		case g >= 60:
			dist[BucketGood]++
		case g >= 40:
			dist[BucketAverage]++
		default:
			dist[BucketWeak]++
		}
	}
	return dist
}

// Overview summarises the whole scored population for the dashboard.
type Overview struct {
	TotalCompanies  int     `json:"total_companies"`
	ScoredCompanies int     `json:"scored_companies"`
	AverageGlobal   float64 `json:"avg_global_score"`
	TopPerformers   int     `json:"top_performers"`   // global >= 80
	NeedImprovement int     `json:"need_improvement"` // global < 60
}

// BuildOverview computes the dashboard headline numbers. totalCompanies
// counts every company in storage, scored or not.
func BuildOverview(totalCompanies int, scored []model.ScoredCompany) Overview {
	o := Overview{
		TotalCompanies:  totalCompanies,
		ScoredCompanies: len(scored),
	}
	if len(scored) == 0 {
		return o
	}

	var sum float64
	for _, sc := range scored {
		g := sc.Score.GlobalScore
		sum += g
		if g >= 80 {
			o.TopPerformers++
		}
		if g < 60 {
			o.NeedImprovement++
		}
	}
	o.AverageGlobal = round2(sum / float64(len(scored)))
	return o
}

// SectorPerformance is the per-sector average used on the dashboard.
type SectorPerformance struct {
	Sector       string  `json:"sector"`
	AverageScore float64 `json:"avg_score"`
	CompanyCount int     `json:"company_count"`
}

// BySector groups scored companies by sector and averages their global
// scores, ordered by average descending.
func BySector(scored []model.ScoredCompany) []SectorPerformance {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, sc := range scored {
		sums[sc.Company.Sector] += sc.Score.GlobalScore
		counts[sc.Company.Sector]++
	}

	out := make([]SectorPerformance, 0, len(sums))
	for sector, sum := range sums {
		out = append(out, SectorPerformance{
			Sector:       sector,
			AverageScore: round2(sum / float64(counts[sector])),
			CompanyCount: counts[sector],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore > out[j].AverageScore
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}
