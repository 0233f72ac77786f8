package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/config"
	"github.com/autoprep-inc/autoprep-engine/pkg/database"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/handlers"
	"github.com/autoprep-inc/autoprep-engine/pkg/jobs"
	"github.com/autoprep-inc/autoprep-engine/pkg/llm"
	"github.com/autoprep-inc/autoprep-engine/pkg/middleware"
	"github.com/autoprep-inc/autoprep-engine/pkg/report"
	"github.com/autoprep-inc/autoprep-engine/pkg/services"
	"github.com/autoprep-inc/autoprep-engine/pkg/suggest"
	"github.com/autoprep-inc/autoprep-engine/pkg/train"
	"github.com/autoprep-inc/autoprep-engine/pkg/transform"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine exited", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Data.EnsureDirs(); err != nil {
		return err
	}

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("data_root", cfg.Data.Root),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("postgres_jobstore", cfg.Database.Enabled))

	store := dataset.NewFileStore(cfg.Data.UploadsDir(), cfg.Data.ProcessedDir(), logger)
	reports := report.NewBuilder(cfg.Data.ArtifactsDir(), logger)

	provider, err := llm.NewProvider(cfg.AI, logger)
	if err != nil {
		return err
	}
	if provider == nil {
		logger.Info("no AI provider configured, analysis runs heuristics only")
	}

	suggestEngine := suggest.NewEngine(provider, cfg.AI.Temperature, cfg.AI.Timeout(), logger)
	analysisSvc := services.NewAnalysisService(store, suggestEngine, logger)
	prepSvc := services.NewPreprocessingService(store, transform.NewPipeline(logger), reports, logger)
	trainSvc := services.NewTrainingService(store, train.NewEngine(cfg.Data.ModelsDir(), logger), reports, logger)

	jobStore, cleanup, err := newJobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := jobs.NewRunner(jobStore, cfg.Jobs.MaxDataJobs, cfg.Jobs.MaxLLMJobs, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDatasetHandler(store, analysisSvc, logger).RegisterRoutes(mux)
	handlers.NewAnalysisHandler(analysisSvc, logger).RegisterRoutes(mux)
	handlers.NewPreprocessingHandler(prepSvc, jobStore, runner, logger).RegisterRoutes(mux)
	handlers.NewTrainingHandler(trainSvc, jobStore, runner, logger).RegisterRoutes(mux)
	handlers.NewReportHandler(reports, logger).RegisterRoutes(mux)

	handler := middleware.Recover(logger)(middleware.RequestLogger(logger)(mux))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting autoprep-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("runner shutdown", zap.Error(err))
	}
	return nil
}

// newJobStore picks the persistent store when PostgreSQL is enabled,
// running migrations first, and the in-memory store otherwise.
func newJobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (jobs.Store, func(), error) {
	if !cfg.Database.Enabled {
		return jobs.NewMemoryStore(), func() {}, nil
	}

	if err := database.Migrate(cfg.Database.URL(), cfg.Database.MigrationsPath, logger); err != nil {
		return nil, nil, err
	}

	pool, err := database.Connect(ctx, cfg.Database.URL(), cfg.Database.MaxConnections)
	if err != nil {
		return nil, nil, err
	}
	return jobs.NewPostgresStore(pool), pool.Close, nil
}
