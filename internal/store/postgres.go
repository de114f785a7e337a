package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/impactscore/rse-cli/internal/db"
	"github.com/impactscore/rse-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"get_company":   `SELECT id, siren, name, sector, size, country, description, website, contact_info, created_at, updated_at FROM companies WHERE siren = $1`,
	"get_score":     `SELECT id, company_id, environmental, social, governance, ethics, global_score, rating_letter, detailed_metrics, data_sources, last_updated, data_quality_score, created_at, updated_at FROM scores WHERE company_id = $1`,
	"count_company": `SELECT COUNT(*) FROM companies`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	siren        TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	sector       TEXT NOT NULL DEFAULT '',
	size         TEXT NOT NULL DEFAULT '',
	country      TEXT NOT NULL DEFAULT 'France',
	description  TEXT NOT NULL DEFAULT '',
	website      TEXT NOT NULL DEFAULT '',
	contact_info JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scores (
	id                 TEXT PRIMARY KEY,
	company_id         BIGINT NOT NULL UNIQUE REFERENCES companies(id),
	environmental      DOUBLE PRECISION,
	social             DOUBLE PRECISION,
	governance         DOUBLE PRECISION,
	ethics             DOUBLE PRECISION,
	global_score       DOUBLE PRECISION NOT NULL,
	rating_letter      TEXT NOT NULL,
	detailed_metrics   JSONB NOT NULL DEFAULT '{}',
	data_sources       JSONB NOT NULL DEFAULT '[]',
	last_updated       TIMESTAMPTZ NOT NULL,
	data_quality_score INTEGER NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_sector ON companies(sector);
CREATE INDEX IF NOT EXISTS idx_scores_company_id ON scores(company_id);
CREATE INDEX IF NOT EXISTS idx_scores_global ON scores(global_score DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, c *model.Company) error {
	now := time.Now().UTC()

	contactJSON, err := json.Marshal(c.ContactInfo)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal contact info")
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO companies (siren, name, sector, size, country, description, website, contact_info, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (siren) DO UPDATE SET
		   name = excluded.name, sector = excluded.sector, size = excluded.size,
		   country = excluded.country, description = excluded.description,
		   website = excluded.website, contact_info = excluded.contact_info,
		   updated_at = excluded.updated_at
		 RETURNING id, created_at`,
		c.SIREN, c.Name, c.Sector, string(c.Size), c.Country, c.Description,
		c.Website, contactJSON, now, now,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert company %s", c.SIREN)
	}
	c.UpdatedAt = now
	return nil
}

func (s *PostgresStore) GetCompanyBySIREN(ctx context.Context, siren string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, siren, name, sector, size, country, description, website, contact_info, created_at, updated_at
		 FROM companies WHERE siren = $1`,
		siren,
	)
	c, err := scanPgCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", siren)
	}
	return c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, siren, name, sector, size, country, description, website, contact_info, created_at, updated_at
		 FROM companies ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanPgCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) CountCompanies(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count)
	return count, eris.Wrap(err, "postgres: count companies")
}

func (s *PostgresStore) ListSectors(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT sector FROM companies WHERE sector != '' ORDER BY sector`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sectors")
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var sector string
		if err := rows.Scan(&sector); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sector")
		}
		sectors = append(sectors, sector)
	}
	return sectors, eris.Wrap(rows.Err(), "postgres: list sectors iterate")
}

func (s *PostgresStore) UpsertScore(ctx context.Context, sc *model.Score) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	metricsJSON, err := json.Marshal(sc.Metrics)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metrics")
	}
	sourcesJSON, err := json.Marshal(sc.DataSources)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal sources")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scores
		   (id, company_id, environmental, social, governance, ethics,
		    global_score, rating_letter, detailed_metrics, data_sources,
		    last_updated, data_quality_score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (company_id) DO UPDATE SET
		   environmental = excluded.environmental, social = excluded.social,
		   governance = excluded.governance, ethics = excluded.ethics,
		   global_score = excluded.global_score, rating_letter = excluded.rating_letter,
		   detailed_metrics = excluded.detailed_metrics, data_sources = excluded.data_sources,
		   last_updated = excluded.last_updated, data_quality_score = excluded.data_quality_score,
		   updated_at = excluded.updated_at`,
		sc.ID, sc.CompanyID, sc.Environmental, sc.Social, sc.Governance, sc.Ethics,
		sc.GlobalScore, string(sc.RatingLetter), metricsJSON, sourcesJSON,
		sc.LastUpdated.UTC(), sc.QualityScore, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert score for company %d", sc.CompanyID)
	}
	return nil
}

func (s *PostgresStore) GetCurrentScore(ctx context.Context, companyID int64) (*model.Score, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_id, environmental, social, governance, ethics,
		        global_score, rating_letter, detailed_metrics, data_sources,
		        last_updated, data_quality_score, created_at, updated_at
		 FROM scores WHERE company_id = $1`,
		companyID,
	)
	sc, err := scanPgScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get score for company %d", companyID)
	}
	return sc, nil
}

func (s *PostgresStore) ListScored(ctx context.Context) ([]model.ScoredCompany, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.siren, c.name, c.sector, c.size, c.country, c.description, c.website, c.contact_info, c.created_at, c.updated_at,
		        s.id, s.company_id, s.environmental, s.social, s.governance, s.ethics,
		        s.global_score, s.rating_letter, s.detailed_metrics, s.data_sources,
		        s.last_updated, s.data_quality_score, s.created_at, s.updated_at
		 FROM companies c
		 JOIN scores s ON s.company_id = c.id
		 ORDER BY s.global_score DESC, c.name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scored")
	}
	defer rows.Close()

	var scored []model.ScoredCompany
	for rows.Next() {
		var c model.Company
		var sc model.Score
		var size, rating string
		var contactJSON, metricsJSON, sourcesJSON []byte

		err := rows.Scan(
			&c.ID, &c.SIREN, &c.Name, &c.Sector, &size, &c.Country, &c.Description, &c.Website, &contactJSON, &c.CreatedAt, &c.UpdatedAt,
			&sc.ID, &sc.CompanyID, &sc.Environmental, &sc.Social, &sc.Governance, &sc.Ethics,
			&sc.GlobalScore, &rating, &metricsJSON, &sourcesJSON,
			&sc.LastUpdated, &sc.QualityScore, &sc.CreatedAt, &sc.UpdatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan scored row")
		}
		c.Size = model.SizeClass(size)
		sc.RatingLetter = model.Rating(rating)
		if err := decodePgJSON(&c, &sc, contactJSON, metricsJSON, sourcesJSON); err != nil {
			return nil, err
		}
		scored = append(scored, model.ScoredCompany{Company: c, Score: sc})
	}
	return scored, eris.Wrap(rows.Err(), "postgres: list scored iterate")
}

// BulkImportCompanies loads companies via COPY into a staging table and
// upserts them into companies in one statement. Used by registry imports.
func (s *PostgresStore) BulkImportCompanies(ctx context.Context, companies []model.Company) (int64, error) {
	if len(companies) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk import begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`CREATE TEMP TABLE _import_companies
		   (siren TEXT, name TEXT, sector TEXT, size TEXT, country TEXT,
		    description TEXT, website TEXT)
		 ON COMMIT DROP`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk import temp table")
	}

	rows := make([][]any, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, []any{c.SIREN, c.Name, c.Sector, string(c.Size), c.Country, c.Description, c.Website})
	}
	if _, err := db.CopyFrom(ctx, tx, "_import_companies",
		[]string{"siren", "name", "sector", "size", "country", "description", "website"},
		rows); err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO companies (siren, name, sector, size, country, description, website)
		 SELECT siren, name, sector, size, country, description, website FROM _import_companies
		 ON CONFLICT (siren) DO UPDATE SET
		   name = excluded.name, sector = excluded.sector,
		   size = excluded.size, country = excluded.country,
		   description = excluded.description, website = excluded.website,
		   updated_at = now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk import upsert")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: bulk import commit")
	}
	return tag.RowsAffected(), nil
}

// helpers

type pgScannable interface {
	Scan(dest ...any) error
}

func scanPgCompany(row pgScannable) (*model.Company, error) {
	var c model.Company
	var size string
	var contactJSON []byte

	err := row.Scan(&c.ID, &c.SIREN, &c.Name, &c.Sector, &size, &c.Country,
		&c.Description, &c.Website, &contactJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Size = model.SizeClass(size)
	if len(contactJSON) > 0 && string(contactJSON) != "null" {
		if err := json.Unmarshal(contactJSON, &c.ContactInfo); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal contact info")
		}
	}
	return &c, nil
}

func scanPgScore(row pgScannable) (*model.Score, error) {
	var sc model.Score
	var rating string
	var metricsJSON, sourcesJSON []byte

	err := row.Scan(&sc.ID, &sc.CompanyID, &sc.Environmental, &sc.Social,
		&sc.Governance, &sc.Ethics, &sc.GlobalScore, &rating,
		&metricsJSON, &sourcesJSON, &sc.LastUpdated, &sc.QualityScore,
		&sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sc.RatingLetter = model.Rating(rating)
	if err := json.Unmarshal(metricsJSON, &sc.Metrics); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal metrics")
	}
	if err := json.Unmarshal(sourcesJSON, &sc.DataSources); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal data sources")
	}
	return &sc, nil
}

func decodePgJSON(c *model.Company, sc *model.Score, contactJSON, metricsJSON, sourcesJSON []byte) error {
	if len(contactJSON) > 0 && string(contactJSON) != "null" {
		if err := json.Unmarshal(contactJSON, &c.ContactInfo); err != nil {
			return eris.Wrap(err, "postgres: unmarshal contact info")
		}
	}
	if err := json.Unmarshal(metricsJSON, &sc.Metrics); err != nil {
		return eris.Wrap(err, "postgres: unmarshal metrics")
	}
	if err := json.Unmarshal(sourcesJSON, &sc.DataSources); err != nil {
		return eris.Wrap(err, "postgres: unmarshal data sources")
	}
	return nil
}
