package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactscore/rse-cli/internal/config"
	"github.com/impactscore/rse-cli/internal/importer"
	"github.com/impactscore/rse-cli/internal/refresh"
	"github.com/impactscore/rse-cli/internal/sources"
	"github.com/impactscore/rse-cli/internal/store"
)

type stubFetcher struct{}

func (stubFetcher) FetchAll(context.Context, string) sources.RawData {
	yes := true
	return sources.RawData{
		RSE: &sources.RSEInfo{EthicsCode: &yes},
	}
}

func testRules() config.ScoringConfig {
	return config.ScoringConfig{
		BaseScore: 50, MaxScore: 100,
		CarbonReportBonus: 20, ISO14001Bonus: 15,
		RenewableBonus: 15, RenewableThresholdPc: 50,
		EqualityIndexBonus: 20, EqualityIndexThreshold: 75,
		TrainingBonus: 15, DiversityBonus: 15,
		AccountsPublicationBonus: 20, CertificationBonus: 15,
		EthicsCodeBonus: 25, AntiCorruptionBonus: 25,
	}
}

// newTestAPI stands up the mux over a seeded sqlite store.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	_, err = importer.New(st).Seed(context.Background())
	require.NoError(t, err)

	refresher := refresh.New(stubFetcher{}, st, testRules())
	srv := httptest.NewServer(apiMux(st, refresher, 0))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestAPIHealth(t *testing.T) {
	srv := newTestAPI(t)

	var body map[string]string
	code := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAPIOverview(t *testing.T) {
	srv := newTestAPI(t)

	var body struct {
		Overview struct {
			TotalCompanies  int     `json:"total_companies"`
			ScoredCompanies int     `json:"scored_companies"`
			AverageGlobal   float64 `json:"avg_global_score"`
		} `json:"overview"`
		Distribution      map[string]int   `json:"distribution"`
		SectorPerformance []map[string]any `json:"sector_performance"`
	}
	code := getJSON(t, srv.URL+"/api/overview", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 13, body.Overview.TotalCompanies)
	assert.Equal(t, 13, body.Overview.ScoredCompanies)
	assert.Positive(t, body.Overview.AverageGlobal)
	assert.Len(t, body.Distribution, 4)
	assert.NotEmpty(t, body.SectorPerformance)
}

func TestAPICompaniesFiltered(t *testing.T) {
	srv := newTestAPI(t)

	var page struct {
		Companies []struct {
			Company struct {
				Name string `json:"name"`
			} `json:"company"`
			Rank int `json:"rank"`
		} `json:"companies"`
		Total int `json:"total"`
	}
	code := getJSON(t, srv.URL+"/api/companies?q=danone", &page)
	assert.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Danone", page.Companies[0].Company.Name)
	assert.Positive(t, page.Companies[0].Rank) // global rank survives filtering
}

func TestAPICompaniesSectorAndSort(t *testing.T) {
	srv := newTestAPI(t)

	var page struct {
		Companies []struct {
			Company struct {
				Sector string `json:"sector"`
			} `json:"company"`
			Score struct {
				GlobalScore float64 `json:"global_score"`
			} `json:"score"`
		} `json:"companies"`
	}
	code := getJSON(t, srv.URL+"/api/companies?sector=Automobile&sort=global_score&order=asc", &page)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, page.Companies, 2)
	assert.Equal(t, "Automobile", page.Companies[0].Company.Sector)
	assert.LessOrEqual(t, page.Companies[0].Score.GlobalScore, page.Companies[1].Score.GlobalScore)
}

func TestAPICompanyDetail(t *testing.T) {
	srv := newTestAPI(t)

	var body struct {
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
		Score struct {
			RatingLetter string `json:"rating_letter"`
		} `json:"score"`
		SizeLabel   string           `json:"size_label"`
		RatingColor string           `json:"rating_color"`
		Rank        int              `json:"rank"`
		Similar     []map[string]any `json:"similar"`
	}
	code := getJSON(t, srv.URL+"/api/companies/775671191", &body) // Renault
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Renault", body.Company.Name)
	assert.Equal(t, "Grande entreprise", body.SizeLabel)
	assert.NotEmpty(t, body.Score.RatingLetter)
	assert.NotEmpty(t, body.RatingColor)
	assert.Positive(t, body.Rank)
	assert.Len(t, body.Similar, 1) // Michelin shares the Automobile sector
}

func TestAPICompanyDetailNotFound(t *testing.T) {
	srv := newTestAPI(t)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/companies/000000000", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "not found")
}

func TestAPICompare(t *testing.T) {
	srv := newTestAPI(t)

	var body struct {
		Companies []struct {
			Company struct {
				SIREN string `json:"siren"`
			} `json:"company"`
			Score struct {
				GlobalScore float64 `json:"global_score"`
			} `json:"score"`
			Rank int `json:"rank"`
		} `json:"companies"`
	}
	// Danone, Michelin, plus one unknown SIREN that must be dropped
	code := getJSON(t, srv.URL+"/api/compare?sirens=552120222,552081317,000000000", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, body.Companies, 2)
	for _, c := range body.Companies {
		assert.Contains(t, []string{"552120222", "552081317"}, c.Company.SIREN)
		assert.Positive(t, c.Score.GlobalScore)
		assert.Positive(t, c.Rank)
	}
}

func TestAPICompareMissingParam(t *testing.T) {
	srv := newTestAPI(t)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/compare", &body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "sirens")
}

func TestAPISectorStats(t *testing.T) {
	srv := newTestAPI(t)

	var body struct {
		Sector       string `json:"sector"`
		CompanyCount int    `json:"company_count"`
		Global       *struct {
			Average float64 `json:"average"`
			P75     float64 `json:"p75"`
		} `json:"global"`
	}
	code := getJSON(t, srv.URL+"/api/sectors/Automobile/stats", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Automobile", body.Sector)
	assert.Equal(t, 2, body.CompanyCount)
	require.NotNil(t, body.Global)
	assert.Positive(t, body.Global.Average)
}

func TestAPISectorStatsUnknown(t *testing.T) {
	srv := newTestAPI(t)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/sectors/Spatial/stats", &body)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPIRefresh(t *testing.T) {
	srv := newTestAPI(t)

	resp, err := http.Post(srv.URL+"/api/companies/552120222/refresh", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Score   map[string]any `json:"score"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Score)
}

func TestAPIRefreshUnknownCompany(t *testing.T) {
	srv := newTestAPI(t)

	resp, err := http.Post(srv.URL+"/api/companies/000000000/refresh", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, body.Success)
}
