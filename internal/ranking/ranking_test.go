package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactscore/rse-cli/internal/model"
)

func scoredWith(id int64, sector string, global float64) model.ScoredCompany {
	return model.ScoredCompany{
		Company: model.Company{ID: id, Sector: sector},
		Score:   model.Score{CompanyID: id, GlobalScore: global},
	}
}

func TestBuildRankMapOrdersByGlobalDescending(t *testing.T) {
	scored := []model.ScoredCompany{
		scoredWith(1, "Energie", 50),
		scoredWith(2, "Energie", 91),
		scoredWith(3, "Transport", 80),
		scoredWith(4, "Transport", 91),
	}

	ranks := BuildRankMap(scored)

	assert.Equal(t, 1, ranks[2])
	assert.Equal(t, 2, ranks[4]) // tie with company 2, input order preserved
	assert.Equal(t, 3, ranks[3])
	assert.Equal(t, 4, ranks[1])
}

func TestBuildRankMapStableTies(t *testing.T) {
	scored := []model.ScoredCompany{
		scoredWith(10, "A", 75),
		scoredWith(20, "A", 75),
		scoredWith(30, "A", 75),
	}

	ranks := BuildRankMap(scored)

	assert.Equal(t, 1, ranks[10])
	assert.Equal(t, 2, ranks[20])
	assert.Equal(t, 3, ranks[30])
}

func TestBuildRankMapIdempotent(t *testing.T) {
	scored := []model.ScoredCompany{
		scoredWith(1, "A", 42.5),
		scoredWith(2, "B", 88),
		scoredWith(3, "C", 61.2),
	}

	first := BuildRankMap(scored)
	second := BuildRankMap(scored)
	assert.Equal(t, first, second)
}

func TestBuildRankMapEmpty(t *testing.T) {
	ranks := BuildRankMap(nil)
	assert.Empty(t, ranks)
}

func TestAttach(t *testing.T) {
	scored := []model.ScoredCompany{
		scoredWith(1, "A", 30),
		scoredWith(2, "A", 90),
	}
	Attach(scored, BuildRankMap(scored))

	assert.Equal(t, 2, scored[0].Rank)
	assert.Equal(t, 1, scored[1].Rank)
}

func TestDistribution(t *testing.T) {
	scored := []model.ScoredCompany{
		scoredWith(1, "A", 95),
		scoredWith(2, "A", 80),
		scoredWith(3, "A", 79.99),
		scoredWith(4, "A", 60),
		scoredWith(5, "A", 59.5),
		scoredWith(6, "A", 40),
		scoredWith(7, "A", 39.99),
		scoredWith(8, "A", 0),
	}

	dist := Distribution(scored)

	assert.Equal(t, 2, dist[BucketExcellent])
	assert.Equal(t, 2, dist[BucketGood])
	assert.Equal(t, 2, dist[BucketAverage])
	assert.Equal(t, 2, dist[BucketWeak])
}

func TestDistributionEmptyHasAllBuckets(t *testing.T) {
	dist := Distribution(nil)
	require.Len(t, dist, 4)
	for _, bucket := range []string{BucketExcellent, BucketGood, BucketAverage, BucketWeak} {
		assert.Zero(t, dist[bucket])
	}
}

func TestBuildOverview(t *testing.T) {
	scored := []model.ScoredCompany{
		scoredWith(1, "A", 90),
		scoredWith(2, "A", 80),
		scoredWith(3, "B", 55),
		scoredWith(4, "B", 45),
	}

	o := BuildOverview(10, scored)

	assert.Equal(t, 10, o.TotalCompanies)
	assert.Equal(t, 4, o.ScoredCompanies)
	assert.InDelta(t, 67.5, o.AverageGlobal, 1e-9)
	assert.Equal(t, 2, o.TopPerformers)
	assert.Equal(t, 2, o.NeedImprovement)
}

func TestBuildOverviewNoScores(t *testing.T) {
	o := BuildOverview(3, nil)

	assert.Equal(t, 3, o.TotalCompanies)
	assert.Zero(t, o.ScoredCompanies)
	assert.Zero(t, o.AverageGlobal)
}

func TestBySector(t *testing.T) {
	scored := []model.ScoredCompany{
		scoredWith(1, "Energie", 90),
		scoredWith(2, "Energie", 70),
		scoredWith(3, "Transport", 85),
	}

	perf := BySector(scored)

	require.Len(t, perf, 2)
	assert.Equal(t, "Transport", perf[0].Sector)
	assert.InDelta(t, 85, perf[0].AverageScore, 1e-9)
	assert.Equal(t, 1, perf[0].CompanyCount)
	assert.Equal(t, "Energie", perf[1].Sector)
	assert.InDelta(t, 80, perf[1].AverageScore, 1e-9)
	assert.Equal(t, 2, perf[1].CompanyCount)
}
