package main

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/consensus-engine/internal/cache"
	"github.com/sells-group/consensus-engine/internal/config"
	"github.com/sells-group/consensus-engine/internal/orchestrator"
	"github.com/sells-group/consensus-engine/internal/reconcile"
	"github.com/sells-group/consensus-engine/internal/source"
	"github.com/sells-group/consensus-engine/internal/store"
)

// engine bundles the wired subsystems a command needs.
type engine struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
}

func (e *engine) Close() {
	e.Orchestrator.WaitForPersistence()
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

// initEngine wires store, cache, fetchers, builder, and orchestrator from
// the loaded config.
func initEngine(ctx context.Context) (*engine, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	trust, err := config.LoadTrustTable(cfg.Sources.TrustWeightsFile)
	if err != nil {
		st.Close()
		return nil, err
	}

	registry := source.NewRegistry()
	if cfg.Sources.FixtureDir != "" {
		// Offline mode: one fixture file per provider category.
		for _, key := range fixtureSourceKeys {
			f, err := source.NewStaticFetcher(key, filepath.Join(cfg.Sources.FixtureDir, key+".json"))
			if err != nil {
				zap.L().Warn("skipping fixture source", zap.String("source", key), zap.Error(err))
				continue
			}
			registry.Register(f)
		}
	} else {
		for key, ep := range cfg.Sources.Endpoints {
			registry.Register(source.NewHTTPFetcher(source.HTTPOptions{
				Key:               key,
				BaseURL:           ep.URL,
				APIKey:            ep.APIKey,
				RequestsPerSecond: ep.RequestsPerSecond,
			}))
		}
	}

	builder := reconcile.NewBuilder(trust, cfg.Resolve.MemoryTTL())
	orch := orchestrator.New(builder, registry, cache.NewMemory(), st, orchestrator.Options{
		FetchTimeout: cfg.Resolve.FetchTimeout(),
		CacheTTL:     cfg.Resolve.CacheTTL(),
	})

	return &engine{Store: st, Orchestrator: orch}, nil
}

var fixtureSourceKeys = []string{
	"exchange_filing",
	"financial_api",
	"market_data_api",
	"news_outlet",
	"web_crawl",
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
