package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"feedagent/internal/config"
	"feedagent/internal/infrastructure/content"
	"feedagent/internal/infrastructure/delivery"
	"feedagent/internal/infrastructure/feed"
	"feedagent/internal/infrastructure/llm"
	"feedagent/internal/infrastructure/scheduler"
	"feedagent/internal/infrastructure/storage"
	"feedagent/internal/logging"
	"feedagent/internal/ports"
	"feedagent/internal/usecase"
)

// Application wires config to the ingest and analyze stages and owns
// their shared resources.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db          *sql.DB
	coordinator *usecase.IngestionCoordinator
	analyzer    *usecase.Analyzer
	sink        ports.DigestSink
}

// New builds a runnable application instance. The store is opened here;
// Close releases it.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	repository := storage.NewSQLiteRepository(db)
	cache := storage.NewResponseCache(db, cfg.Cache.TTLDays)

	ingestTimeout := time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second
	httpClient := &http.Client{Timeout: ingestTimeout}
	fetcher := feed.NewFetcher(httpClient, ingestTimeout, logging.Component(baseLogger, "fetcher"))

	var extractor ports.ContentExtractor
	if cfg.Ingest.FetchContent {
		extractor = content.NewExtractor(httpClient, ingestTimeout, logging.Component(baseLogger, "extractor"))
	}

	client, err := llm.New(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.Model,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
	if err != nil {
		db.Close()
		return nil, err
	}

	coordinator := usecase.NewIngestionCoordinator(fetcher, repository, extractor,
		cfg.Ingest, logging.Component(baseLogger, "ingest"))

	summarizer := usecase.NewSummarizer(client, cache, cfg.LLM.Model,
		cfg.Summarize.Workers, cfg.Summarize.MaxContentChars, cfg.Cache.TTLDays,
		logging.Component(baseLogger, "summarizer"))

	builder := usecase.NewDigestBuilder(client, logging.Component(baseLogger, "digest"))

	analyzer := usecase.NewAnalyzer(repository, summarizer, builder,
		cfg.LLM.Provider, cfg.Ingest.LookbackHours, logging.Component(baseLogger, "analyzer"))

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		db:          db,
		coordinator: coordinator,
		analyzer:    analyzer,
		sink:        delivery.NewConsoleSink(os.Stdout),
	}, nil
}

// Close releases the store.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run performs a single ingest-then-analyze pass and hands any digest to
// the sink.
func (a *Application) Run(ctx context.Context) error {
	ingest := a.coordinator.Run(ctx, a.cfg.Feeds)
	a.logger.Info("ingest finished",
		"feeds_checked", ingest.FeedsChecked,
		"feeds_failed", ingest.FeedsFailed,
		"articles_new", ingest.ArticlesNew)
	for i, msg := range ingest.Errors {
		if i == 5 {
			a.logger.Warn("more ingest errors", "omitted", len(ingest.Errors)-5)
			break
		}
		a.logger.Warn("ingest error", "detail", msg)
	}

	analysis, err := a.analyzer.Run(ctx)
	if err != nil {
		return err
	}
	for _, msg := range analysis.Errors {
		a.logger.Warn("analysis error", "detail", msg)
	}

	if analysis.Digest == nil {
		a.logger.Info("no digest produced")
		return nil
	}

	a.logger.Info("digest ready",
		"categories", len(analysis.Digest.Categories),
		"articles", analysis.ArticlesAnalyzed,
		"tokens", analysis.TokensUsed,
		"cost_usd", fmt.Sprintf("%.4f", analysis.CostEstimateUSD))

	return a.sink.Deliver(ctx, *analysis.Digest)
}

// RunScheduled repeats Run on the configured cron expression until the
// context ends.
func (a *Application) RunScheduled(ctx context.Context) error {
	cron := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())

	err := cron.Start(ctx, func(now time.Time) {
		a.logger.Info("scheduled run starting", "at", now.Format(time.RFC3339))
		if runErr := a.Run(ctx); runErr != nil {
			a.logger.Error("scheduled run failed", "error", runErr)
		}
	})
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	cron.Stop(context.Background())
	return nil
}
