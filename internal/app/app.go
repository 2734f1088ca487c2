// Package app wires configuration, the matcher pool, its registered
// matchers, and the HTTP server into a runnable application.
package app

import (
	"context"
	"fmt"

	"github.com/bobmcallan/rulecheck/internal/common"
	"github.com/bobmcallan/rulecheck/internal/matchers/genaimatcher"
	"github.com/bobmcallan/rulecheck/internal/matchers/lookupmatcher"
	"github.com/bobmcallan/rulecheck/internal/matchers/regexmatcher"
	"github.com/bobmcallan/rulecheck/internal/model"
	"github.com/bobmcallan/rulecheck/internal/pool"
	"github.com/bobmcallan/rulecheck/internal/ruleset"
	"github.com/bobmcallan/rulecheck/internal/server"
)

// App holds the constructed, ready-to-serve application state.
type App struct {
	Config *common.Config
	Logger *common.Logger
	Pool   *pool.MatcherPool
	Server *server.Server

	lookupCache *lookupmatcher.Cache
}

// New builds an App from cfg: it constructs the matcher pool, registers
// every available matcher, and builds (but does not start) the HTTP
// server.
func New(ctx context.Context, cfg *common.Config, logger *common.Logger) (*App, error) {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}

	strategy, err := resolveStrategy(cfg.Pool.Strategy)
	if err != nil {
		return nil, err
	}

	p, err := pool.New(pool.Options{
		MaxCurrentJobs: cfg.Pool.MaxCurrentJobs,
		MaxQueuedJobs:  cfg.Pool.MaxQueuedJobs,
		Strategy:       strategy,
		CheckTimeout:   cfg.Pool.GetCheckTimeout(),
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: build matcher pool: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Pool: p}

	registry := seedRuleset()
	p.AddMatcher(regexmatcher.New("regex-core", registry, logger))

	if apiKey, err := common.ResolveAPIKey("genai_api_key", cfg.Clients.GenAI.APIKey); err == nil {
		genaiClient, err := genaimatcher.NewClient(ctx, apiKey,
			genaimatcher.WithModel(cfg.Clients.GenAI.Model),
			genaimatcher.WithLogger(logger))
		if err != nil {
			logger.Warn().Err(err).Msg("genai matcher unavailable, skipping registration")
		} else {
			p.AddMatcher(genaimatcher.New("genai-grammar", genaiClient))
		}
	} else {
		logger.Info().Msg("no genai API key configured, skipping genai matcher registration")
	}

	lookupClient := lookupmatcher.NewClient(
		lookupmatcher.WithBaseURL(cfg.Clients.Lookup.BaseURL),
		lookupmatcher.WithRateLimit(cfg.Clients.Lookup.RateLimit),
		lookupmatcher.WithTimeout(cfg.Clients.Lookup.GetTimeout()),
		lookupmatcher.WithLogger(logger))

	if cache, err := lookupmatcher.NewCache(ctx, cfg.Clients.Lookup.CacheAddress,
		cfg.Clients.Lookup.CacheUser, cfg.Clients.Lookup.CachePass,
		cfg.Clients.Lookup.CacheNS, cfg.Clients.Lookup.CacheDB, logger); err != nil {
		logger.Warn().Err(err).Msg("resolved-name cache unavailable, name lookups will not be cached")
		p.AddMatcher(pool.NewValidatorMatcher("name-lookup", "lookup", lookupmatcher.NewValidator(lookupClient, nil)))
	} else {
		a.lookupCache = cache
		p.AddMatcher(pool.NewValidatorMatcher("name-lookup", "lookup", lookupmatcher.NewValidator(lookupClient, cache)))
	}

	a.Server = server.NewServer(p, cfg, logger)
	return a, nil
}

// Close releases resources held by the app: the worker pool and any
// external connections opened during New.
func (a *App) Close() {
	a.Pool.Close()
	if a.lookupCache != nil {
		_ = a.lookupCache.Close()
	}
}

func resolveStrategy(name common.Strategy) (pool.Strategy, error) {
	switch name {
	case common.StrategyDocumentPerCategory:
		return pool.DocumentPerCategoryStrategy, nil
	case common.StrategyBlockLevel:
		return pool.BlockLevelStrategy, nil
	default:
		return nil, fmt.Errorf("app: unknown pool strategy %q", name)
	}
}

// seedRuleset builds the starter rule set the regex matcher evaluates.
// A richer rule set would come from the out-of-scope rule-authoring
// collaborator (see internal/ruleset's package doc); this is a minimal
// seed so the regex matcher has concrete rules to exercise.
func seedRuleset() *ruleset.Registry {
	registry := ruleset.NewRegistry()
	registry.AddCategory(model.Category{ID: "repeated-words", Name: "Repeated Words"})
	registry.AddCategory(model.Category{ID: "spacing", Name: "Spacing"})

	rules := []*ruleset.Rule{
		{ID: "double-the", CategoryID: "repeated-words", Pattern: `\bthe the\b`, Message: "repeated word \"the\""},
		{ID: "double-space", CategoryID: "spacing", Pattern: `  +`, Message: "multiple consecutive spaces", Replacement: " "},
	}
	for _, r := range rules {
		_ = registry.AddRule(r)
	}
	return registry
}
