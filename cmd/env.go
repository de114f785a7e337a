package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/impactscore/rse-cli/internal/model"
	"github.com/impactscore/rse-cli/internal/ranking"
	"github.com/impactscore/rse-cli/internal/refresh"
	"github.com/impactscore/rse-cli/internal/sources"
	"github.com/impactscore/rse-cli/internal/store"
)

// openStore opens the configured backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func newRefresher(st store.Store) *refresh.Refresher {
	return refresh.New(sources.NewClient(cfg.Sources), st, cfg.Scoring)
}

// loadRanked returns all scored companies with global ranks attached.
func loadRanked(ctx context.Context, st store.Store) ([]model.ScoredCompany, error) {
	scored, err := st.ListScored(ctx)
	if err != nil {
		return nil, err
	}
	ranking.Attach(scored, ranking.BuildRankMap(scored))
	return scored, nil
}
