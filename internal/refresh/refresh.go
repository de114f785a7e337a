// Package refresh orchestrates one scoring cycle: fetch raw indicators,
// compute the score, persist it.
package refresh

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/impactscore/rse-cli/internal/config"
	"github.com/impactscore/rse-cli/internal/model"
	"github.com/impactscore/rse-cli/internal/scoring"
	"github.com/impactscore/rse-cli/internal/sources"
	"github.com/impactscore/rse-cli/internal/store"
)

// Fetcher pulls raw indicator data for one company from all external sources.
type Fetcher interface {
	FetchAll(ctx context.Context, siren string) sources.RawData
}

// Refresher runs scoring cycles for companies.
type Refresher struct {
	fetcher Fetcher
	store   store.Store
	rules   config.ScoringConfig
}

// New creates a Refresher.
func New(fetcher Fetcher, st store.Store, rules config.ScoringConfig) *Refresher {
	return &Refresher{fetcher: fetcher, store: st, rules: rules}
}

// RefreshOne fetches, scores and persists a single company by SIREN. The
// write is a single upsert: either the full score record lands or nothing
// does. A persistence failure is reported to the caller.
func (r *Refresher) RefreshOne(ctx context.Context, siren string) (*model.Score, error) {
	company, err := r.store.GetCompanyBySIREN(ctx, siren)
	if err != nil {
		return nil, eris.Wrapf(err, "refresh: load company %s", siren)
	}
	if company == nil {
		return nil, eris.Errorf("refresh: company not found: %s", siren)
	}
	return r.refreshCompany(ctx, company)
}

func (r *Refresher) refreshCompany(ctx context.Context, company *model.Company) (*model.Score, error) {
	raw := r.fetcher.FetchAll(ctx, company.SIREN)

	result := scoring.Calculate(raw, r.rules)
	score := &model.Score{
		CompanyID:     company.ID,
		Environmental: result.Environmental,
		Social:        result.Social,
		Governance:    result.Governance,
		Ethics:        result.Ethics,
		GlobalScore:   result.GlobalScore,
		RatingLetter:  result.RatingLetter,
		Metrics:       result.Metrics,
		DataSources:   result.DataSources,
		LastUpdated:   time.Now().UTC(),
		QualityScore:  result.QualityScore,
	}

	if err := r.store.UpsertScore(ctx, score); err != nil {
		return nil, eris.Wrapf(err, "refresh: persist score for %s", company.SIREN)
	}

	zap.L().Info("company refreshed",
		zap.String("siren", company.SIREN),
		zap.String("name", company.Name),
		zap.Float64("global_score", score.GlobalScore),
		zap.String("rating", string(score.RatingLetter)),
		zap.Int("sources", len(score.DataSources)),
	)
	return score, nil
}

// BatchResult summarises a RefreshAll run.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    []string // SIRENs that failed
}

// RefreshAll refreshes every stored company with at most concurrency cycles
// in flight. Companies are independent: one failure never stops the batch.
func (r *Refresher) RefreshAll(ctx context.Context, concurrency int) (*BatchResult, error) {
	companies, err := r.store.ListCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "refresh: list companies")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]error, len(companies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range companies {
		g.Go(func() error {
			_, err := r.refreshCompany(ctx, &companies[i])
			results[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "refresh: batch")
	}

	batch := &BatchResult{Total: len(companies)}
	for i, err := range results {
		if err != nil {
			batch.Failed = append(batch.Failed, companies[i].SIREN)
			zap.L().Warn("refresh failed",
				zap.String("siren", companies[i].SIREN),
				zap.Error(err),
			)
			continue
		}
		batch.Succeeded++
	}
	return batch, nil
}
