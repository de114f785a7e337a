package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactscore/rse-cli/internal/config"
)

func testSourcesConfig(base string) config.SourcesConfig {
	return config.SourcesConfig{
		InseeURL:      base + "/insee",
		PortailRseURL: base + "/portail",
		AdemeURL:      base + "/ademe",
		DataGouvURL:   base + "/datagouv",
		TimeoutSecs:   5,
		MaxRetries:    1,
		RatePerSec:    100,
		RateBurst:     100,
	}
}

func TestFetchAllAllSourcesRespond(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/insee/etablissements/552120222":
			w.Write([]byte(`{"denomination":"Danone","employee_count":95000,"publication_comptes":true}`))
		case r.URL.Path == "/portail/entreprises/552120222":
			w.Write([]byte(`{"index_egalite":88,"formation_continue":true,"certifications":["ISO 14001"],"code_ethique":true}`))
		case r.URL.Path == "/ademe/bilans-carbone":
			w.Write([]byte(`{"bilan_carbone":true,"energie_renouvelable":62.5,"co2_emissions":1520.4}`))
		case r.URL.Path == "/datagouv/organizations/":
			w.Write([]byte(`{"organization_id":"danone","datasets":["bilan-ges-2024"]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(testSourcesConfig(srv.URL))
	raw := c.FetchAll(context.Background(), "552120222")

	require.NotNil(t, raw.Basic)
	require.NotNil(t, raw.RSE)
	require.NotNil(t, raw.Environmental)
	require.NotNil(t, raw.OpenData)

	assert.Equal(t, "Danone", raw.Basic.LegalName)
	require.NotNil(t, raw.Basic.EmployeeCount)
	assert.Equal(t, 95000, *raw.Basic.EmployeeCount)
	require.NotNil(t, raw.RSE.EqualityIndex)
	assert.InDelta(t, 88, *raw.RSE.EqualityIndex, 0.001)
	assert.Equal(t, []string{"ISO 14001"}, raw.RSE.Certifications)
	require.NotNil(t, raw.Environmental.RenewablePct)
	assert.InDelta(t, 62.5, *raw.Environmental.RenewablePct, 0.001)

	assert.Equal(t, 4, raw.SourceCount())
	assert.Equal(t, []string{SourceInsee, SourcePortailRSE, SourceAdeme, SourceDataGouv}, raw.Sources())
}

func TestFetchAllOmitsFailedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/insee/etablissements/123456789":
			w.Write([]byte(`{"denomination":"Acme"}`))
		case r.URL.Path == "/portail/entreprises/123456789":
			http.NotFound(w, r)
		default:
			http.Error(w, "down", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c := NewClient(testSourcesConfig(srv.URL))
	raw := c.FetchAll(context.Background(), "123456789")

	assert.NotNil(t, raw.Basic)
	assert.Nil(t, raw.RSE)
	assert.Nil(t, raw.Environmental)
	assert.Nil(t, raw.OpenData)
	assert.Equal(t, []string{SourceInsee}, raw.Sources())
}

func TestFetchAllAllSourcesDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testSourcesConfig(srv.URL))
	raw := c.FetchAll(context.Background(), "000000000")

	assert.True(t, raw.Empty())
	assert.Zero(t, raw.SourceCount())
}

func TestFetchBasicInfoRetriesTransient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"denomination":"Acme"}`))
	}))
	defer srv.Close()

	cfg := testSourcesConfig(srv.URL)
	cfg.MaxRetries = 3
	c := NewClient(cfg)

	info, err := c.FetchBasicInfo(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, "Acme", info.LegalName)
	assert.Equal(t, 2, calls)
}

func TestFetchBasicInfoDoesNotRetryNotFound(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := testSourcesConfig(srv.URL)
	cfg.MaxRetries = 3
	c := NewClient(cfg)

	_, err := c.FetchBasicInfo(context.Background(), "123456789")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRawDataHas(t *testing.T) {
	raw := RawData{RSE: &RSEInfo{}}
	assert.True(t, raw.Has(SourcePortailRSE))
	assert.False(t, raw.Has(SourceInsee))
	assert.False(t, raw.Has("unknown"))
}
