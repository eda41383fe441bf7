// API server entry point for MedRx-Intelligence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	stdprom "github.com/prometheus/client_golang/prometheus"

	appn "github.com/turtacn/MedRx-Intelligence/internal/application/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction/ner"
	rediscache "github.com/turtacn/MedRx-Intelligence/internal/infrastructure/cache/redis"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/database/postgres/repositories"
	neo4jpairs "github.com/turtacn/MedRx-Intelligence/internal/infrastructure/interaction/neo4j"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/ocr"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/search/opensearch"
	miniostore "github.com/turtacn/MedRx-Intelligence/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/MedRx-Intelligence/internal/interfaces/http"
	"github.com/turtacn/MedRx-Intelligence/internal/interfaces/http/handlers"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	if err := run(*configPath, *migrateOnly); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(configPath string, migrateOnly bool) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	logger.Info("starting medrx api server", logging.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(cfg.Database, logger); err != nil {
		return err
	}
	if migrateOnly {
		logger.Info("migrations applied, exiting")
		return nil
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	metrics := prometheus.NewCollector(stdprom.DefaultRegisterer)

	// Optional collaborators: each one is skipped with a warning when not
	// configured or unreachable, and the core keeps working without it.
	var statsCache medication.StatsCache
	if cache, err := rediscache.NewStatsCache(ctx, cfg.Redis, logger); err != nil {
		logger.Warn("compliance cache disabled", logging.Err(err))
	} else {
		statsCache = cache
		defer cache.Close()
	}

	var (
		events    medication.EventSink
		publisher appn.EventPublisher
	)
	if cfg.Kafka.Enabled() {
		pub, err := kafka.NewPublisher(cfg.Kafka, logger)
		if err != nil {
			logger.Warn("event publishing disabled", logging.Err(err))
		} else {
			events = pub
			publisher = pub
			defer pub.Close()
		}
	}

	var indexer appn.Indexer
	if cfg.OpenSearch.Enabled() {
		idx, err := opensearch.NewIndexer(cfg.OpenSearch, logger)
		if err != nil {
			logger.Warn("search indexing disabled", logging.Err(err))
		} else {
			indexer = idx
		}
	}

	var archive appn.Archiver
	if cfg.MinIO.Enabled() {
		arc, err := miniostore.NewArchive(ctx, cfg.MinIO, logger)
		if err != nil {
			logger.Warn("raw-text archive disabled", logging.Err(err))
		} else {
			archive = arc
		}
	}

	var pairSource extraction.PairSource
	if cfg.Neo4j.Enabled() {
		ps, err := neo4jpairs.NewPairSource(ctx, cfg.Neo4j, logger)
		if err != nil {
			logger.Warn("interaction graph disabled, using built-in pair table", logging.Err(err))
		} else {
			pairSource = ps
			defer ps.Close(context.Background())
		}
	}

	var model extraction.ModelExtractor
	if cfg.NER.Enabled() {
		client, err := ner.NewGRPCClient(cfg.NER.Address, cfg.NER.Timeout, logger)
		if err != nil {
			logger.Warn("ner client unavailable", logging.Err(err))
		} else {
			model = ner.NewExtractor(ctx, client, logger, metrics)
			defer client.Close()
		}
	}

	var ocrClient appn.OCRClient
	if cfg.OCR.Enabled() {
		oc, err := ocr.NewHTTPClient(cfg.OCR, logger)
		if err != nil {
			logger.Warn("ocr disabled", logging.Err(err))
		} else {
			ocrClient = oc
		}
	}

	// Domain and application wiring.
	patients := repositories.NewPatientRepo(conn, logger)
	rxRepo := repositories.NewPrescriptionRepo(conn, logger)
	medRepo := repositories.NewMedicationRepo(conn, logger)
	intakeRepo := repositories.NewIntakeRepo(conn, logger)

	medService := medication.NewService(medRepo, intakeRepo, events, statsCache, logger)
	pipeline := extraction.NewPipeline(nil, model, extraction.NewInteractionChecker(pairSource), logger, metrics)

	analyze, err := appn.NewAnalyzeService(appn.Deps{
		Pipeline:  pipeline,
		RxRepo:    rxRepo,
		Patients:  patients,
		Meds:      medService,
		OCR:       ocrClient,
		Archive:   archive,
		Indexer:   indexer,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Patients:      handlers.NewPatientHandler(patients, medService),
		Prescriptions: handlers.NewPrescriptionHandler(analyze, rxRepo),
		Medications:   handlers.NewMedicationHandler(medService),
		Health: handlers.NewHealthHandler(map[string]handlers.ReadinessCheck{
			"postgres": func(ctx context.Context) error { return conn.Pool().Ping(ctx) },
		}),
		Mode:    cfg.Server.Mode,
		Logger:  logger,
		Metrics: true,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return server.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
