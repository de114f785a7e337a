package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/impactscore/rse-cli/internal/config"
	"github.com/impactscore/rse-cli/internal/resilience"
)

// Client queries the four indicator APIs with per-host rate limiting, retry
// on transient failures, and a circuit breaker per source.
type Client struct {
	http     *http.Client
	cfg      config.SourcesConfig
	limiters map[string]*rate.Limiter
	breakers map[string]*resilience.CircuitBreaker
	retry    resilience.RetryConfig
}

// NewClient creates a Client from the sources configuration.
func NewClient(cfg config.SourcesConfig) *Client {
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "rse-cli/1.0"
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 10
	}

	limiters := make(map[string]*rate.Limiter)
	for _, raw := range []string{cfg.InseeURL, cfg.PortailRseURL, cfg.AdemeURL, cfg.DataGouvURL} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			if _, ok := limiters[u.Host]; !ok {
				limiters[u.Host] = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RateBurst)
			}
		}
	}

	breakers := make(map[string]*resilience.CircuitBreaker)
	for _, name := range KnownSources {
		name := name
		bc := resilience.DefaultCircuitBreakerConfig()
		bc.ShouldTrip = resilience.IsTransient
		bc.OnStateChange = func(from, to resilience.CircuitState) {
			zap.L().Warn("sources: circuit state change",
				zap.String("source", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
		breakers[name] = resilience.NewCircuitBreaker(bc)
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.MaxRetries

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
			Transport: transport,
		},
		cfg:      cfg,
		limiters: limiters,
		breakers: breakers,
		retry:    retryCfg,
	}
}

// FetchBasicInfo queries the INSEE company registry for a SIREN.
func (c *Client) FetchBasicInfo(ctx context.Context, siren string) (*BasicInfo, error) {
	endpoint := fmt.Sprintf("%s/etablissements/%s", c.cfg.InseeURL, siren)
	return fetchSource[BasicInfo](ctx, c, SourceInsee, endpoint)
}

// FetchRSEInfo queries the Portail RSE declarations for a SIREN.
func (c *Client) FetchRSEInfo(ctx context.Context, siren string) (*RSEInfo, error) {
	endpoint := fmt.Sprintf("%s/entreprises/%s", c.cfg.PortailRseURL, siren)
	return fetchSource[RSEInfo](ctx, c, SourcePortailRSE, endpoint)
}

// FetchEnvironmentalInfo queries ADEME carbon-report data for a SIREN.
func (c *Client) FetchEnvironmentalInfo(ctx context.Context, siren string) (*EnvironmentalInfo, error) {
	endpoint := fmt.Sprintf("%s/bilans-carbone?siren=%s", c.cfg.AdemeURL, siren)
	return fetchSource[EnvironmentalInfo](ctx, c, SourceAdeme, endpoint)
}

// FetchOpenDataInfo queries data.gouv.fr publications for a SIREN.
func (c *Client) FetchOpenDataInfo(ctx context.Context, siren string) (*OpenDataInfo, error) {
	endpoint := fmt.Sprintf("%s/organizations/?siren=%s", c.cfg.DataGouvURL, siren)
	return fetchSource[OpenDataInfo](ctx, c, SourceDataGouv, endpoint)
}

// fetchSource runs one rate-limited, circuit-protected, retried GET and
// decodes the JSON body.
func fetchSource[T any](ctx context.Context, c *Client, source, endpoint string) (*T, error) {
	return resilience.ExecuteVal(ctx, c.breakers[source], func(ctx context.Context) (*T, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*T, error) {
			body, err := c.get(ctx, endpoint)
			if err != nil {
				return nil, err
			}
			var out T
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, eris.Wrapf(err, "sources: decode %s payload", source)
			}
			return &out, nil
		})
	})
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if lim := c.limiterFor(endpoint); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "sources: rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sources: create request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sources: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("sources: unexpected status %d from %s", resp.StatusCode, endpoint)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	const maxBody = 4 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "sources: read body")
	}
	return body, nil
}

func (c *Client) limiterFor(endpoint string) *rate.Limiter {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil
	}
	return c.limiters[u.Host]
}
