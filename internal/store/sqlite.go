package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/impactscore/rse-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	siren        TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	sector       TEXT NOT NULL DEFAULT '',
	size         TEXT NOT NULL DEFAULT '',
	country      TEXT NOT NULL DEFAULT 'France',
	description  TEXT NOT NULL DEFAULT '',
	website      TEXT NOT NULL DEFAULT '',
	contact_info TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scores (
	id                 TEXT PRIMARY KEY,
	company_id         INTEGER NOT NULL UNIQUE REFERENCES companies(id),
	environmental      REAL,
	social             REAL,
	governance         REAL,
	ethics             REAL,
	global_score       REAL NOT NULL,
	rating_letter      TEXT NOT NULL,
	detailed_metrics   TEXT NOT NULL DEFAULT '{}',
	data_sources       TEXT NOT NULL DEFAULT '[]',
	last_updated       DATETIME NOT NULL,
	data_quality_score INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_siren ON companies(siren);
CREATE INDEX IF NOT EXISTS idx_companies_sector ON companies(sector);
CREATE INDEX IF NOT EXISTS idx_scores_company_id ON scores(company_id);
CREATE INDEX IF NOT EXISTS idx_scores_global ON scores(global_score DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, c *model.Company) error {
	now := time.Now().UTC()

	contactJSON, err := json.Marshal(c.ContactInfo)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal contact info")
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO companies (siren, name, sector, size, country, description, website, contact_info, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (siren) DO UPDATE SET
		   name = excluded.name, sector = excluded.sector, size = excluded.size,
		   country = excluded.country, description = excluded.description,
		   website = excluded.website, contact_info = excluded.contact_info,
		   updated_at = excluded.updated_at
		 RETURNING id, created_at`,
		c.SIREN, c.Name, c.Sector, string(c.Size), c.Country, c.Description,
		c.Website, string(contactJSON), now, now,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert company %s", c.SIREN)
	}
	c.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetCompanyBySIREN(ctx context.Context, siren string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, siren, name, sector, size, country, description, website, contact_info, created_at, updated_at
		 FROM companies WHERE siren = ?`,
		siren,
	)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", siren)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, siren, name, sector, size, country, description, website, contact_info, created_at, updated_at
		 FROM companies ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) CountCompanies(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count)
	return count, eris.Wrap(err, "sqlite: count companies")
}

func (s *SQLiteStore) ListSectors(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT sector FROM companies WHERE sector != '' ORDER BY sector`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sectors")
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var sector string
		if err := rows.Scan(&sector); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sector")
		}
		sectors = append(sectors, sector)
	}
	return sectors, eris.Wrap(rows.Err(), "sqlite: list sectors iterate")
}

func (s *SQLiteStore) UpsertScore(ctx context.Context, sc *model.Score) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	metricsJSON, err := json.Marshal(sc.Metrics)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metrics")
	}
	sourcesJSON, err := json.Marshal(sc.DataSources)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sources")
	}

	// One current score per company: replace in place, keep the original row id.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores
		   (id, company_id, environmental, social, governance, ethics,
		    global_score, rating_letter, detailed_metrics, data_sources,
		    last_updated, data_quality_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (company_id) DO UPDATE SET
		   environmental = excluded.environmental, social = excluded.social,
		   governance = excluded.governance, ethics = excluded.ethics,
		   global_score = excluded.global_score, rating_letter = excluded.rating_letter,
		   detailed_metrics = excluded.detailed_metrics, data_sources = excluded.data_sources,
		   last_updated = excluded.last_updated, data_quality_score = excluded.data_quality_score,
		   updated_at = excluded.updated_at`,
		sc.ID, sc.CompanyID, sc.Environmental, sc.Social, sc.Governance, sc.Ethics,
		sc.GlobalScore, string(sc.RatingLetter), string(metricsJSON), string(sourcesJSON),
		sc.LastUpdated.UTC(), sc.QualityScore, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert score for company %d", sc.CompanyID)
	}
	return nil
}

func (s *SQLiteStore) GetCurrentScore(ctx context.Context, companyID int64) (*model.Score, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, environmental, social, governance, ethics,
		        global_score, rating_letter, detailed_metrics, data_sources,
		        last_updated, data_quality_score, created_at, updated_at
		 FROM scores WHERE company_id = ?`,
		companyID,
	)
	sc, err := scanScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score for company %d", companyID)
	}
	return sc, nil
}

func (s *SQLiteStore) ListScored(ctx context.Context) ([]model.ScoredCompany, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.siren, c.name, c.sector, c.size, c.country, c.description, c.website, c.contact_info, c.created_at, c.updated_at,
		        s.id, s.company_id, s.environmental, s.social, s.governance, s.ethics,
		        s.global_score, s.rating_letter, s.detailed_metrics, s.data_sources,
		        s.last_updated, s.data_quality_score, s.created_at, s.updated_at
		 FROM companies c
		 JOIN scores s ON s.company_id = c.id
		 ORDER BY s.global_score DESC, c.name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scored")
	}
	defer rows.Close()

	var scored []model.ScoredCompany
	for rows.Next() {
		var c model.Company
		var sc model.Score
		var contactJSON sql.NullString
		var metricsJSON, sourcesJSON string

		err := rows.Scan(
			&c.ID, &c.SIREN, &c.Name, &c.Sector, &c.Size, &c.Country, &c.Description, &c.Website, &contactJSON, &c.CreatedAt, &c.UpdatedAt,
			&sc.ID, &sc.CompanyID, &sc.Environmental, &sc.Social, &sc.Governance, &sc.Ethics,
			&sc.GlobalScore, &sc.RatingLetter, &metricsJSON, &sourcesJSON,
			&sc.LastUpdated, &sc.QualityScore, &sc.CreatedAt, &sc.UpdatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scored row")
		}
		if err := decodeCompanyJSON(&c, contactJSON); err != nil {
			return nil, err
		}
		if err := decodeScoreJSON(&sc, metricsJSON, sourcesJSON); err != nil {
			return nil, err
		}
		scored = append(scored, model.ScoredCompany{Company: c, Score: sc})
	}
	return scored, eris.Wrap(rows.Err(), "sqlite: list scored iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	var contactJSON sql.NullString

	err := row.Scan(&c.ID, &c.SIREN, &c.Name, &c.Sector, &c.Size, &c.Country,
		&c.Description, &c.Website, &contactJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeCompanyJSON(&c, contactJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanScore(row scannable) (*model.Score, error) {
	var sc model.Score
	var metricsJSON, sourcesJSON string

	err := row.Scan(&sc.ID, &sc.CompanyID, &sc.Environmental, &sc.Social,
		&sc.Governance, &sc.Ethics, &sc.GlobalScore, &sc.RatingLetter,
		&metricsJSON, &sourcesJSON, &sc.LastUpdated, &sc.QualityScore,
		&sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeScoreJSON(&sc, metricsJSON, sourcesJSON); err != nil {
		return nil, err
	}
	return &sc, nil
}

func decodeCompanyJSON(c *model.Company, contactJSON sql.NullString) error {
	if contactJSON.Valid && contactJSON.String != "" && contactJSON.String != "null" {
		if err := json.Unmarshal([]byte(contactJSON.String), &c.ContactInfo); err != nil {
			return eris.Wrap(err, "store: unmarshal contact info")
		}
	}
	return nil
}

func decodeScoreJSON(sc *model.Score, metricsJSON, sourcesJSON string) error {
	if err := json.Unmarshal([]byte(metricsJSON), &sc.Metrics); err != nil {
		return eris.Wrap(err, "store: unmarshal metrics")
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &sc.DataSources); err != nil {
		return eris.Wrap(err, "store: unmarshal data sources")
	}
	return nil
}
