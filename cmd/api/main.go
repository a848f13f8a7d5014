// Package main is the entry point for the debtorbatch import API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"debtorbatch/internal/config"
	"debtorbatch/internal/controller"
	"debtorbatch/internal/controller/handlers"
	"debtorbatch/internal/core"
	"debtorbatch/internal/importer"
	"debtorbatch/internal/logger"
	"debtorbatch/internal/observability"
	"debtorbatch/internal/rules"
	"debtorbatch/internal/storage/local"
	"debtorbatch/internal/store"
	"debtorbatch/internal/store/memory"
	"debtorbatch/internal/store/postgres"
	storeredis "debtorbatch/internal/store/redis"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting (postgres backend only)")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP collector address for traces (disabled when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Job store backend
	var jobs store.JobStore
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer pg.Close()

		if *migrateFlag {
			slogger.Info("running database migrations")
			if err := postgres.Migrate(pg.DB()); err != nil {
				log.Fatalf("Migration failed: %v", err)
			}
			slogger.Info("migrations completed")
		}
		go reapLoop(ctx, pg, slogger)
		jobs = pg
	case config.StoreRedis:
		rd := storeredis.New(cfg.RedisAddr)
		defer rd.Close()
		if err := rd.Ping(ctx); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		jobs = rd
	default:
		mem := memory.New(time.Minute)
		defer mem.Close()
		jobs = mem
	}

	// File storage with background retention sweep
	files, err := local.New(cfg.StorageDir, slogger)
	if err != nil {
		log.Fatalf("Failed to init file storage: %v", err)
	}
	go files.RunCleanup(ctx, cfg.FileRetention, time.Hour)

	// Tracing (optional)
	if *otelEndpoint != "" {
		shutdownTracer, err := observability.InitTracing(ctx, "debtorbatch-api", *otelEndpoint)
		if err != nil {
			log.Fatalf("Failed to init tracing: %v", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				slogger.Error("tracer shutdown", "error", err)
			}
		}()
	}

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slogger.Error("metrics shutdown", "error", err)
		}
	}()

	// Validation rules: static profile behind a TTL cache
	var provider rules.Provider = &rules.StaticProvider{Algorithm: cfg.RulesAlgorithm}
	provider = rules.NewCachedProvider(provider, cfg.ValidationCacheTTL)

	// Error report presentation
	presenter := importer.NewPresenter()
	if cfg.ErrorMappingsFile != "" {
		presenter, err = importer.LoadPresenter(cfg.ErrorMappingsFile)
		if err != nil {
			log.Fatalf("Failed to load error mappings: %v", err)
		}
	}

	coreClient := core.NewClient(cfg.CoreBaseURL, cfg.CoreTimeout, cfg.RetryAttempts, slogger)
	reports := importer.NewReportWriter(files, presenter, cfg.FileRetention)

	queue := importer.NewQueue()
	pipelineMetrics, err := observability.NewPipelineMetrics(queue.Len)
	if err != nil {
		log.Fatalf("Failed to register pipeline metrics: %v", err)
	}

	worker := importer.NewWorker(queue, jobs, files, provider, coreClient, reports, importer.Config{
		BatchSize:                cfg.BatchSize,
		FailFastThresholdPercent: cfg.FailFastThresholdPercent,
		FailFastSampleSize:       cfg.FailFastSampleSize,
		JobTTL:                   cfg.JobStateTTL,
	}, slogger).WithMetrics(pipelineMetrics)
	go worker.Run(ctx)

	h := handlers.New(jobs, files, queue, handlers.Config{
		MaxFileSize:     int64(cfg.MaxFileSizeMB) << 20,
		JobTTL:          cfg.JobStateTTL,
		PresignedExpiry: cfg.PresignedURLExpiry,
	}, slogger)

	srv := controller.New(controller.Options{
		Addr:           fmt.Sprintf(":%d", cfg.HTTPPort),
		MockIdentity:   cfg.MockIdentity,
		RateLimitRPS:   rate.Limit(10),
		RateLimitBurst: 20,
		MetricsHandler: metricsHandler,
	}, h, slogger)

	if err := srv.Run(ctx); err != nil {
		slogger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slogger.Info("server exited")
}

// reapLoop periodically deletes expired jobs from the postgres store.
func reapLoop(ctx context.Context, pg *postgres.Store, log *slog.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pg.ReapExpired(ctx)
			if err != nil {
				log.Error("job reaper failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("reaped expired jobs", "count", n)
			}
		}
	}
}
