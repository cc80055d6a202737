package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-insights/internal/api/http"
	"github.com/spec-kit/support-insights/internal/api/http/handlers"
	"github.com/spec-kit/support-insights/internal/config"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/llm"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/persistence"
	"github.com/spec-kit/support-insights/internal/repository"
	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/store"
	"github.com/spec-kit/support-insights/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	table, err := loadTickets(ctx, cfg, pg)
	if err != nil {
		logger.Fatal("failed to load tickets", zap.String("source", cfg.Source.Kind), zap.Error(err))
	}
	logger.Info("tickets loaded", zap.String("source", cfg.Source.Kind), zap.Int("count", table.Len()))

	var journal repository.MultiJournal
	if redis.Enabled() {
		journal = append(journal, repository.NewRedisSummaryJournal(redis.Client, cfg.Redis.SummariesKey, 0))
	}
	journal = append(journal, repository.NewFileSummaryJournal(cfg.Journal.Path))

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notificationDeps := service.NotificationDependencies{
		Dispatcher: dispatcher,
		Journal:    journal,
		Logger:     logger,
	}
	if cfg.Source.Kind == config.SourcePostgres && cfg.Postgres.WriteBackTags {
		notificationDeps.Tags = repository.NewPostgresTagWriter(pg.PoolHandle())
	}
	notificationService := service.NewNotificationService(notificationDeps)
	worker.StartNotificationWorker(notificationService)

	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		Table:          table,
		SpikeThreshold: cfg.Analytics.SpikeThreshold,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})

	taggingDeps := service.TaggingDependencies{
		Dashboard:        dashboardService,
		Journal:          journal,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
		Timeout:          cfg.Tagging.Timeout(),
		MaxRetries:       cfg.Tagging.MaxRetries,
		AutoTagBatchSize: cfg.Tagging.AutoTagBatchSize,
		SummaryBatchSize: cfg.Tagging.SummaryBatchSize,
	}
	if cfg.OpenAI.APIKey != "" {
		client, err := llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			Vocabulary: cfg.Tagging.Vocabulary(),
		})
		if err != nil {
			logger.Fatal("failed to init openai client", zap.Error(err))
		}
		taggingDeps.Classifier = client
		taggingDeps.Summarizer = client
	} else {
		logger.Info("OPENAI_API_KEY not provided; auto-tagging and summaries disabled")
	}
	taggingService := service.NewTaggingService(taggingDeps)

	var autoTagWorker *worker.AutoTagWorker
	if cfg.Tagging.AutoTagSchedule != "" && taggingDeps.Classifier != nil {
		autoTagWorker, err = worker.NewAutoTagWorker(taggingService, cfg.Tagging.AutoTagSchedule, cfg.Tagging.AutoTagBatchSize, 5*time.Minute, logger)
		if err != nil {
			logger.Fatal("failed to schedule auto-tagging", zap.Error(err))
		}
		autoTagWorker.Start()
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:   handlers.NewMetricsHandler(metrics),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Tickets:   handlers.NewTicketsHandler(dashboardService, taggingService),
		Tagging:   handlers.NewTaggingHandler(taggingService),
		Summaries: handlers.NewSummariesHandler(taggingService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if autoTagWorker != nil {
		autoTagWorker.Stop(shutdownCtx)
	}
	_ = app.ShutdownWithContext(shutdownCtx)
}

var errPostgresSourceWithoutDSN = errors.New("TICKETS_SOURCE=postgres requires POSTGRES_DSN")

func loadTickets(ctx context.Context, cfg *config.Config, pg *persistence.Postgres) (*store.Table, error) {
	if cfg.Source.Kind == config.SourcePostgres {
		if !pg.Enabled() {
			return nil, errPostgresSourceWithoutDSN
		}
		return store.Load(ctx, repository.NewPostgresTicketSource(pg.PoolHandle()))
	}
	return store.Load(ctx, store.FileSource{Path: cfg.Source.CSVPath})
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
