package sources

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FetchAll queries every known source for a SIREN concurrently, each with its
// own timeout. A source that fails or times out is logged and left out of the
// returned RawData; FetchAll itself never fails except on context
// cancellation, which still returns whatever was collected.
func (c *Client) FetchAll(ctx context.Context, siren string) RawData {
	var raw RawData
	timeout := time.Duration(c.cfg.TimeoutSecs) * time.Second

	g, gctx := errgroup.WithContext(ctx)

	// Each goroutine writes its own RawData field, so no locking is needed.
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		info, err := c.FetchBasicInfo(sctx, siren)
		if err != nil {
			logSourceFailure(SourceInsee, siren, err)
			return nil
		}
		raw.Basic = info
		return nil
	})

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		info, err := c.FetchRSEInfo(sctx, siren)
		if err != nil {
			logSourceFailure(SourcePortailRSE, siren, err)
			return nil
		}
		raw.RSE = info
		return nil
	})

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		info, err := c.FetchEnvironmentalInfo(sctx, siren)
		if err != nil {
			logSourceFailure(SourceAdeme, siren, err)
			return nil
		}
		raw.Environmental = info
		return nil
	})

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		info, err := c.FetchOpenDataInfo(sctx, siren)
		if err != nil {
			logSourceFailure(SourceDataGouv, siren, err)
			return nil
		}
		raw.OpenData = info
		return nil
	})

	_ = g.Wait() // goroutines never return errors

	zap.L().Debug("sources: fetch complete",
		zap.String("siren", siren),
		zap.Strings("sources", raw.Sources()),
	)

	return raw
}

func logSourceFailure(source, siren string, err error) {
	zap.L().Warn("sources: fetch failed, source omitted",
		zap.String("source", source),
		zap.String("siren", siren),
		zap.Error(err),
	)
}
