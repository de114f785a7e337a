package store

import (
	"context"

	"github.com/impactscore/rse-cli/internal/model"
)

// Store defines persistence for companies and their current scores. A company
// holds at most one current score record; UpsertScore replaces it atomically.
type Store interface {
	// Companies
	UpsertCompany(ctx context.Context, c *model.Company) error
	GetCompanyBySIREN(ctx context.Context, siren string) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	CountCompanies(ctx context.Context) (int, error)
	ListSectors(ctx context.Context) ([]string, error)

	// Scores
	UpsertScore(ctx context.Context, sc *model.Score) error
	GetCurrentScore(ctx context.Context, companyID int64) (*model.Score, error)
	ListScored(ctx context.Context) ([]model.ScoredCompany, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
