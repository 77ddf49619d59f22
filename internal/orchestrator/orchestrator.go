// Package orchestrator drives one consensus resolution: result-cache check,
// concurrent memory and live acquisition, merge, reconciliation, delta
// detection, cache write, and fire-and-forget persistence.
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/consensus-engine/internal/cache"
	"github.com/sells-group/consensus-engine/internal/delta"
	"github.com/sells-group/consensus-engine/internal/model"
	"github.com/sells-group/consensus-engine/internal/reconcile"
	"github.com/sells-group/consensus-engine/internal/source"
	"github.com/sells-group/consensus-engine/internal/store"
)

// Request asks for one entity's reconciled consensus.
type Request struct {
	EntityID     string           `json:"entity_id"`
	EntityName   string           `json:"entity_name"`
	Kind         model.EntityKind `json:"entity_kind"`
	FiscalPeriod string           `json:"fiscal_period"`
	Ticker       string           `json:"ticker,omitempty"`
	ForceRefresh bool             `json:"force_refresh,omitempty"`
}

// Resolution is the orchestrator's answer: the consensus plus acquisition
// metadata for observability.
type Resolution struct {
	Consensus        *model.EntityConsensus `json:"consensus"`
	CacheHit         bool                   `json:"cache_hit"`
	SourcesAttempted []string               `json:"sources_attempted"`
	SourcesFailed    []string               `json:"sources_failed"`
	Delta            *model.DeltaReport     `json:"delta,omitempty"`
	Elapsed          time.Duration          `json:"elapsed"`
}

// Options tunes the orchestrator.
type Options struct {
	// FetchTimeout bounds each individual live fetch (default 8s).
	FetchTimeout time.Duration
	// CacheTTL is the result-cache lifetime (default 15m).
	CacheTTL time.Duration
	// OnPersistError is invoked when the async store write fails. Defaults
	// to logging; persistence failures never fail the request.
	OnPersistError func(error)
}

// Orchestrator resolves consensus requests. Safe for concurrent use.
type Orchestrator struct {
	builder  *reconcile.Builder
	fetchers *source.Registry
	cache    cache.ResultCache
	store    store.Store

	fetchTimeout   time.Duration
	cacheTTL       time.Duration
	onPersistError func(error)

	nowFunc   func() time.Time
	persistWG sync.WaitGroup
	flight    singleflight.Group
}

// New creates an Orchestrator. store may be nil (no memory path, no
// persistence); cache may be nil (every request does live work).
func New(builder *reconcile.Builder, fetchers *source.Registry, rc cache.ResultCache, st store.Store, opts Options) *Orchestrator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 8 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.OnPersistError == nil {
		opts.OnPersistError = func(err error) {
			zap.L().Warn("async persist failed", zap.Error(err))
		}
	}
	return &Orchestrator{
		builder:        builder,
		fetchers:       fetchers,
		cache:          rc,
		store:          st,
		fetchTimeout:   opts.FetchTimeout,
		cacheTTL:       opts.CacheTTL,
		onPersistError: opts.OnPersistError,
		nowFunc:        time.Now,
	}
}

// WithNow fixes the clock for tests.
func (o *Orchestrator) WithNow(fn func() time.Time) *Orchestrator {
	o.nowFunc = fn
	return o
}

type fetchOutcome struct {
	key    string
	report model.SourceReport
	err    error
}

// Resolve runs the full state machine for one request. It always returns a
// well-formed Resolution: thin or absent data degrades to a low-confidence,
// gap-marked consensus, never an error. The only error cases are internal
// invariant violations, of which there are currently none; the signature
// keeps room for them.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	started := o.nowFunc()

	// Cache check.
	if o.cache != nil && !req.ForceRefresh {
		if cached, ok := o.cache.Get(req.EntityID, started); ok {
			zap.L().Debug("result cache hit", zap.String("entity", req.EntityID))
			return &Resolution{
				Consensus: cached,
				CacheHit:  true,
				Elapsed:   o.nowFunc().Sub(started),
			}, nil
		}
	}

	// Concurrent requests for the same entity and period share one live
	// resolution instead of fanning out to the providers twice.
	v, err, _ := o.flight.Do(req.EntityID+"|"+req.FiscalPeriod, func() (any, error) {
		return o.resolveLive(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	res := *v.(*Resolution)
	res.Elapsed = o.nowFunc().Sub(started)
	return &res, nil
}

// resolveLive runs the memory and live acquisition paths, reconciles, and
// kicks off delta detection and persistence.
func (o *Orchestrator) resolveLive(ctx context.Context, req Request) (*Resolution, error) {
	now := o.nowFunc()
	log := zap.L().With(zap.String("entity", req.EntityID))

	ref := source.EntityRef{
		EntityID: req.EntityID,
		Name:     req.EntityName,
		Kind:     req.Kind,
		Ticker:   req.Ticker,
	}

	// Memory path and live path run concurrently. The merge step waits for
	// every fetch to reach a terminal state; there is no first-N-wins race.
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		outcomes  []fetchOutcome
		memory    *model.EntityConsensus
		memoryErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		memory, memoryErr = o.readMemory(ctx, req.EntityID, now)
	}()

	fetchers := o.fetchers.All()
	attempted := make([]string, 0, len(fetchers))
	for _, f := range fetchers {
		attempted = append(attempted, f.Key())
		wg.Add(1)
		go func(f source.Fetcher) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
			defer cancel()
			report, err := f.Fetch(fctx, ref)
			mu.Lock()
			outcomes = append(outcomes, fetchOutcome{key: f.Key(), report: report, err: err})
			mu.Unlock()
		}(f)
	}
	wg.Wait()

	// Merge.
	rawBySource := make(map[string]model.SourceReport, len(outcomes)+1)
	var failed []string
	for _, out := range outcomes {
		if out.err != nil {
			failed = append(failed, out.key)
			log.Warn("source fetch failed", zap.String("source", out.key), zap.Error(out.err))
			continue
		}
		rawBySource[out.key] = out.report
	}
	sort.Strings(failed)

	if memoryErr != nil {
		log.Warn("memory path read failed", zap.Error(memoryErr))
	}
	if memory != nil {
		rawBySource[model.SourceMemory] = memoryReport(memory)
	}

	// Reconcile. An empty merged map still yields a well-formed,
	// all-unavailable consensus.
	consensus := o.builder.Build(req.EntityID, req.EntityName, req.Kind, req.FiscalPeriod, rawBySource, now)

	// Delta check against the memory-path result alone.
	var report *model.DeltaReport
	if memory != nil {
		memOnly := o.builder.Build(req.EntityID, req.EntityName, req.Kind, req.FiscalPeriod,
			map[string]model.SourceReport{model.SourceMemory: memoryReport(memory)}, now)
		d := delta.Diff(memOnly, consensus, delta.DefaultThresholdPercent)
		report = &d
		if records := delta.Records(req.EntityID, d, now); len(records) > 0 {
			o.persistAsync(ctx, func(pctx context.Context) error {
				return o.store.InsertDeltaRecords(pctx, records)
			})
		}
	}

	// Cache write.
	if o.cache != nil {
		o.cache.Set(req.EntityID, consensus, o.cacheTTL, now)
	}

	// Fire-and-forget persistence; the response never waits on it.
	if o.store != nil {
		o.persistAsync(ctx, func(pctx context.Context) error {
			return o.store.Upsert(pctx, consensus)
		})
	}

	log.Info("consensus resolved",
		zap.Int("overall_confidence", consensus.OverallConfidence),
		zap.Int("sources_attempted", len(attempted)),
		zap.Int("sources_failed", len(failed)),
		zap.Bool("memory_used", memory != nil),
		zap.Duration("elapsed", o.nowFunc().Sub(now)),
	)

	return &Resolution{
		Consensus:        consensus,
		CacheHit:         false,
		SourcesAttempted: attempted,
		SourcesFailed:    failed,
		Delta:            report,
	}, nil
}

// readMemory loads the last persisted consensus if it is still within its
// own expiry.
func (o *Orchestrator) readMemory(ctx context.Context, entityID string, now time.Time) (*model.EntityConsensus, error) {
	if o.store == nil {
		return nil, nil
	}
	prev, err := o.store.ReadLatest(ctx, entityID)
	if err != nil || prev == nil {
		return nil, err
	}
	if prev.Expired(now) {
		return nil, nil
	}
	return prev, nil
}

// memoryReport replays a persisted consensus as a single pseudo-source with
// a fixed high trust weight.
func memoryReport(prev *model.EntityConsensus) model.SourceReport {
	metrics := make(map[model.MetricName]*float64, len(prev.Metrics))
	for name, mc := range prev.Metrics {
		if mc.IsAvailable && mc.Value != nil {
			v := *mc.Value
			metrics[name] = &v
		}
	}
	return model.SourceReport{
		SourceID:    model.SourceMemory,
		ObservedAt:  prev.ObservedAt,
		TrustWeight: model.MemoryTrustWeight,
		Metrics:     metrics,
	}
}

func (o *Orchestrator) persistAsync(ctx context.Context, fn func(context.Context) error) {
	if o.store == nil {
		return
	}
	o.persistWG.Add(1)
	go func() {
		defer o.persistWG.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := fn(pctx); err != nil {
			o.onPersistError(err)
		}
	}()
}

// WaitForPersistence blocks until in-flight async writes finish. Tests and
// graceful shutdown use it; the request path never does.
func (o *Orchestrator) WaitForPersistence() {
	o.persistWG.Wait()
}
