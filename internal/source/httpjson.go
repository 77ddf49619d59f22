package source

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

	"github.com/sells-group/consensus-engine/internal/model"
	"github.com/sells-group/consensus-engine/internal/resilience"
)

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	// Key is the provider category this endpoint belongs to.
	Key string
	// BaseURL is the endpoint; the entity id is appended as a query param.
	BaseURL string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	// RequestsPerSecond throttles calls to the provider (default 5).
	RequestsPerSecond float64
	// UserAgent defaults to consensus-engine/1.0.
	UserAgent string
	Retry     resilience.RetryConfig
}

// HTTPFetcher pulls a provider's metric report over HTTP. The endpoint is
// expected to return JSON of the form
//
//	{"observed_at": "2026-08-30T12:00:00Z", "metrics": {"revenue": 1.2e9, ...}}
//
// Calls are rate limited, retried on transient failures, and guarded by a
// per-provider circuit breaker.
type HTTPFetcher struct {
	opts    HTTPOptions
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewHTTPFetcher creates an HTTP fetcher for one provider endpoint.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "consensus-engine/1.0"
	}
	return &HTTPFetcher{
		opts:    opts,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		breaker: resilience.NewBreaker(5, 30*time.Second),
	}
}

func (f *HTTPFetcher) Key() string { return f.opts.Key }

// Fetch retrieves and decodes the provider's report for an entity.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref EntityRef) (model.SourceReport, error) {
	if err := f.breaker.Allow(); err != nil {
		return model.SourceReport{}, eris.Wrapf(err, "source %s", f.opts.Key)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return model.SourceReport{}, eris.Wrapf(err, "source %s: rate limit wait", f.opts.Key)
	}

	report, err := resilience.Retry(ctx, f.opts.Retry, f.opts.Key, func(ctx context.Context) (model.SourceReport, error) {
		return f.fetchOnce(ctx, ref)
	})
	f.breaker.Record(err)
	if err != nil {
		return model.SourceReport{}, err
	}
	return report, nil
}

type wirePayload struct {
	ObservedAt time.Time          `json:"observed_at"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, ref EntityRef) (model.SourceReport, error) {
	u, err := url.Parse(f.opts.BaseURL)
	if err != nil {
		return model.SourceReport{}, eris.Wrapf(err, "source %s: parse url", f.opts.Key)
	}
	q := u.Query()
	q.Set("entity", ref.EntityID)
	if ref.Ticker != "" {
		q.Set("ticker", ref.Ticker)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.SourceReport{}, eris.Wrapf(err, "source %s: build request", f.opts.Key)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if f.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.opts.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return model.SourceReport{}, eris.Wrapf(err, "source %s: request", f.opts.Key)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("source %s: status %d", f.opts.Key, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return model.SourceReport{}, resilience.NewTransientError(err, resp.StatusCode)
		}
		return model.SourceReport{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.SourceReport{}, eris.Wrapf(err, "source %s: read body", f.opts.Key)
	}

	var payload wirePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.SourceReport{}, eris.Wrapf(err, "source %s: decode", f.opts.Key)
	}

	report := model.SourceReport{
		SourceID:   f.opts.Key,
		ObservedAt: payload.ObservedAt,
		Metrics:    make(map[model.MetricName]*float64, len(payload.Metrics)),
	}
	if report.ObservedAt.IsZero() {
		report.ObservedAt = time.Now().UTC()
	}
	for name, value := range payload.Metrics {
		metric := model.MetricName(name)
		if !metric.Valid() {
			zap.L().Debug("skipping unknown metric",
				zap.String("source", f.opts.Key),
				zap.String("metric", name),
			)
			continue
		}
		v := value
		report.Metrics[metric] = &v
	}
	return report, nil
}
