package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/localsignal/visibility-cli/internal/billing"
	"github.com/localsignal/visibility-cli/internal/prompts"
	"github.com/localsignal/visibility-cli/internal/scan"
	"github.com/localsignal/visibility-cli/internal/store"
	"github.com/localsignal/visibility-cli/pkg/perplexity"
)

// scanEnv holds the initialized store and orchestrator shared by the
// profile, prompts, scan, runs, and serve commands.
type scanEnv struct {
	Store   store.Store
	Service *scan.Service
}

// Close releases resources held by the environment.
func (e *scanEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "visibility.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initScan sets up the store, billing lookup, prompt generator, and live
// model callers, and builds the orchestrator. Callers should defer
// env.Close().
func initScan(ctx context.Context) (*scanEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	gen, err := prompts.NewGenerator()
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load prompt templates")
	}

	var perplexityOpts []perplexity.Option
	if cfg.Perplexity.BaseURL != "" {
		perplexityOpts = append(perplexityOpts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
	}
	if cfg.Perplexity.Model != "" {
		perplexityOpts = append(perplexityOpts, perplexity.WithModel(cfg.Perplexity.Model))
	}
	callers := scan.BuildRegistry(cfg.Anthropic.Key, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, cfg.Perplexity.Key, perplexityOpts...)

	bill := billing.NewStaticStore(cfg.Billing)
	svc := scan.NewService(st, bill, gen, callers, cfg.Scan, cfg.Citations)

	return &scanEnv{Store: st, Service: svc}, nil
}
