package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactscore/rse-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCompanyBySIREN_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, siren, name, sector, size, country, description, website, contact_info, created_at, updated_at`).
		WithArgs("000000000").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetCompanyBySIREN(context.Background(), "000000000")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO companies`).
		WithArgs("552032534", "TotalEnergies", "Energie", "large", "France", "", "",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	c := &model.Company{
		SIREN:   "552032534",
		Name:    "TotalEnergies",
		Sector:  "Energie",
		Size:    model.SizeLarge,
		Country: "France",
	}
	require.NoError(t, s.UpsertCompany(context.Background(), c))
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, now, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scores`).
		WithArgs(pgxmock.AnyArg(), int64(7), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), 81.25, "A", pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), 50, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sc := &model.Score{
		CompanyID:    7,
		GlobalScore:  81.25,
		RatingLetter: model.RatingA,
		DataSources:  []string{"insee"},
		LastUpdated:  time.Now().UTC(),
		QualityScore: 50,
	}
	require.NoError(t, s.UpsertScore(context.Background(), sc))
	assert.NotEmpty(t, sc.ID) // generated on first upsert
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCurrentScore_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, company_id, environmental, social, governance, ethics`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetCurrentScore(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCurrentScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	env := 85.0
	rows := pgxmock.NewRows([]string{
		"id", "company_id", "environmental", "social", "governance", "ethics",
		"global_score", "rating_letter", "detailed_metrics", "data_sources",
		"last_updated", "data_quality_score", "created_at", "updated_at",
	}).AddRow(
		"score-1", int64(7), &env, (*float64)(nil), (*float64)(nil), (*float64)(nil),
		85.0, "A", []byte(`{"certifications":["ISO 14001"]}`), []byte(`["ademe"]`),
		now, 25, now, now,
	)

	mock.ExpectQuery(`SELECT id, company_id, environmental, social, governance, ethics`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	got, err := s.GetCurrentScore(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "score-1", got.ID)
	require.NotNil(t, got.Environmental)
	assert.InDelta(t, 85, *got.Environmental, 1e-9)
	assert.Nil(t, got.Social)
	assert.Equal(t, model.RatingA, got.RatingLetter)
	assert.Equal(t, []string{"ademe"}, got.DataSources)
	assert.Equal(t, []string{"ISO 14001"}, got.Metrics.Certifications)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM companies`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	count, err := s.CountCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BulkImportCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE _import_companies`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_import_companies"},
		[]string{"siren", "name", "sector", "size", "country", "description", "website"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO companies`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback() // deferred rollback after commit is a no-op

	companies := []model.Company{
		{SIREN: "552032534", Name: "TotalEnergies", Sector: "Energie", Size: model.SizeLarge, Country: "France"},
		{SIREN: "552081317", Name: "Danone", Sector: "Agroalimentaire", Size: model.SizeLarge, Country: "France"},
	}
	n, err := s.BulkImportCompanies(context.Background(), companies)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BulkImportCompanies_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	n, err := s.BulkImportCompanies(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
