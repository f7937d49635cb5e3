package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/internal/dedup"
	"github.com/nextgencrm/prospector/internal/discovery"
	"github.com/nextgencrm/prospector/internal/oracle"
	"github.com/nextgencrm/prospector/internal/pipeline"
	"github.com/nextgencrm/prospector/internal/registry"
	"github.com/nextgencrm/prospector/internal/store"
	"github.com/nextgencrm/prospector/internal/webscrape"
	"github.com/nextgencrm/prospector/pkg/ares"
	"github.com/nextgencrm/prospector/pkg/openai"
	"github.com/nextgencrm/prospector/pkg/places"
)

// appEnv holds the initialized store, services and the orchestrator shared
// by the campaign/enrich/serve commands.
type appEnv struct {
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
	Dedup        *dedup.Service
	Oracle       *oracle.Oracle
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv sets up the store, API clients and all pipeline services.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Maps.Key == "" {
		zap.L().Warn("PROSPECTOR_MAPS_KEY not set, discovery calls will fail")
	}
	placesClient := places.NewClient(cfg.Maps.Key, places.WithBaseURL(cfg.Maps.BaseURL))
	disc := discovery.NewService(discovery.Config{
		Client:    placesClient,
		Cache:     st,
		PageDelay: time.Duration(cfg.Maps.PageDelaySecs) * time.Second,
	})

	aresClient := ares.NewClient(
		ares.WithBaseURL(cfg.Ares.BaseURL),
		ares.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Ares.TimeoutSecs) * time.Second}),
	)
	reg := registry.NewService(registry.Config{Client: aresClient, Cache: st})

	scraper := webscrape.NewAnalyzer(webscrape.Config{
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.Scrape.TimeoutSecs) * time.Second},
		Cache:      st,
		CacheTTL:   time.Duration(cfg.Scrape.CacheTTLHours) * time.Hour,
		MaxRetries: cfg.Scrape.MaxRetries,
	})

	aiEnabled := cfg.OpenAI.Key != ""
	var openaiClient openai.Client
	if aiEnabled {
		openaiClient = openai.NewClient(cfg.OpenAI.Key, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	} else {
		zap.L().Warn("PROSPECTOR_OPENAI_KEY not set, ai analysis disabled")
	}
	orc := oracle.New(oracle.Config{
		Client:      openaiClient,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		RatePerSec:  cfg.OpenAI.RatePerSec,
		Enabled:     aiEnabled,
	})

	dd := dedup.NewService(dedup.Config{
		Threshold: cfg.Dedup.SimilarityThreshold,
		Oracle:    orc,
	})

	orch := pipeline.New(pipeline.Config{
		Discovery:        disc,
		Scraper:          scraper,
		Registry:         reg,
		Oracle:           orc,
		Dedup:            dd,
		Store:            st,
		MaxProspects:     cfg.Campaign.MaxProspects,
		Radius:           cfg.Campaign.DefaultRadius,
		QualityThreshold: cfg.Campaign.QualityThreshold,
		ErrorBudget:      cfg.Campaign.ErrorBudget,
		BatchSize:        cfg.Enrich.BatchSize,
		BatchPause:       time.Duration(cfg.Enrich.BatchPauseSecs) * time.Second,
	})

	return &appEnv{
		Store:        st,
		Orchestrator: orch,
		Dedup:        dd,
		Oracle:       orc,
	}, nil
}
