package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/animus-labs/facetview/internal/config"
	"github.com/animus-labs/facetview/internal/dataset"
	"github.com/animus-labs/facetview/internal/lineage"
	"github.com/animus-labs/facetview/internal/lock"
	"github.com/animus-labs/facetview/internal/metrics"
	"github.com/animus-labs/facetview/internal/platform/env"
	"github.com/animus-labs/facetview/internal/platform/objectstore"
	"github.com/animus-labs/facetview/internal/platform/postgres"
	"github.com/animus-labs/facetview/internal/publish"
	"github.com/animus-labs/facetview/internal/run"
	"github.com/animus-labs/facetview/internal/sink"
	"github.com/animus-labs/facetview/internal/viewpath"
	"github.com/animus-labs/facetview/internal/writer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := env.String("FACETVIEW_PROFILE", "facetview.yaml")
	if len(os.Args) > 1 {
		profile = os.Args[1]
	}

	cfg, err := config.Load(profile)
	if err != nil {
		logger.Error("invalid profile", "path", profile, "error", err)
		os.Exit(2)
	}

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	client, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}
	if err := objectstore.CheckBuckets(ctx, client, storeCfg); err != nil {
		logger.Error("bucket check failed", "error", err)
		os.Exit(1)
	}

	var locks lock.Service
	var recorder run.PublishRecorder
	switch mode := env.String("FACETVIEW_LOCK_MODE", "postgres"); mode {
	case "memory":
		locks = lock.NewMemoryService()
	case "postgres":
		dbCfg, err := postgres.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid database config", "error", err)
			os.Exit(2)
		}
		db, err := postgres.Open(ctx, dbCfg)
		if err != nil {
			logger.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		locks, err = lock.NewPostgresService(db)
		if err != nil {
			logger.Error("lock service init failed", "error", err)
			os.Exit(1)
		}
		recorder, err = lineage.NewRecorder(db)
		if err != nil {
			logger.Error("lineage recorder init failed", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("unknown lock mode", "mode", mode)
		os.Exit(2)
	}

	counters := metrics.NewCounters()

	facetStore, err := dataset.NewMinioStore(client, storeCfg.BucketInput, cfg.InputPath)
	if err != nil {
		logger.Error("dataset store init failed", "error", err)
		os.Exit(1)
	}
	loader, err := dataset.NewLoader(facetStore, logger, counters, cfg.Concurrency)
	if err != nil {
		logger.Error("loader init failed", "error", err)
		os.Exit(1)
	}

	swapper, err := publish.NewMinioSwapper(client, storeCfg.BucketViews, logger)
	if err != nil {
		logger.Error("swapper init failed", "error", err)
		os.Exit(1)
	}
	coordinator, err := publish.NewCoordinator(locks, swapper, logger, cfg.LockTimeout.Std())
	if err != nil {
		logger.Error("publish coordinator init failed", "error", err)
		os.Exit(1)
	}

	metricsKey := viewpath.Join(viewpath.DatasetAttempt(cfg.InputPath, cfg.DatasetID, cfg.Attempt), "view-metrics.json")
	minioExporter, err := metrics.NewMinioExporter(client, storeCfg.BucketInput, metricsKey)
	if err != nil {
		logger.Error("metrics exporter init failed", "error", err)
		os.Exit(1)
	}

	// One completion record per run is appended locally as well, so operators
	// can inspect run history without object-store access.
	reportPath := env.String("FACETVIEW_RUN_REPORT_PATH", "facetview-runs.ndjson")
	reportFile, err := os.OpenFile(reportPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Error("run report open failed", "path", reportPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = reportFile.Close() }()
	exporter := metrics.NewMultiExporter(minioExporter, metrics.NewNDJSONExporter(reportFile))

	controller, err := run.NewController(run.Params{
		Config: cfg,
		Loader: loader,
		NewSink: func(stagedPrefix string) (writer.Sink, error) {
			return sink.NewMinioSink(client, storeCfg.BucketViews, stagedPrefix)
		},
		Coordinator: coordinator,
		Counters:    counters,
		Exporter:    exporter,
		Lineage:     recorder,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("controller init failed", "error", err)
		os.Exit(1)
	}

	if _, err := controller.Run(ctx); err != nil {
		os.Exit(1)
	}
}
