package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/trendlens/trendlens/internal/analyze"
	"github.com/trendlens/trendlens/internal/extract"
	"github.com/trendlens/trendlens/internal/gateway"
	"github.com/trendlens/trendlens/internal/store"
	"github.com/trendlens/trendlens/internal/webfetch"
	"github.com/trendlens/trendlens/pkg/anthropic"
)

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// pipelineEnv holds the analysis pipeline and its collaborators.
type pipelineEnv struct {
	Store        store.Store
	Gateway      *gateway.Gateway
	Orchestrator *analyze.Orchestrator
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline builds the full analysis stack from config.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	gw := gateway.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic)
	orch := analyze.New(gw,
		extract.New(cfg.Extract),
		webfetch.New(cfg.Fetch),
		cfg.Analysis,
	)

	return &pipelineEnv{Store: st, Gateway: gw, Orchestrator: orch}, nil
}
