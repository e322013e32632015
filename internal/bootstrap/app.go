// Package bootstrap handles application initialization and lifecycle
// management for the pipeline binaries.
package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/aggregator"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/config"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/intake"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/service"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/sweeper"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/warehouse"
)

const defaultConfigPath = "config.yml"

// LoadConfig loads the application configuration from CONFIG_PATH or the
// default location.
func LoadConfig() (*config.Config, error) {
	return config.Load(config.GetConfigPath(defaultConfigPath))
}

// CreateLogger builds the structured logger from configuration.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
	})
}

// OpenWarehouse opens the SQLite warehouse and ensures its schema. An
// unreachable store maps to the fatal domain.ErrStoreUnavailable.
func OpenWarehouse(ctx context.Context, cfg *config.Config) (*warehouse.Connection, error) {
	conn, openErr := warehouse.Open(cfg.Warehouse.Path)
	if openErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, openErr)
	}

	if pingErr := conn.Ping(ctx); pingErr != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, pingErr)
	}

	if schemaErr := conn.EnsureSchema(ctx); schemaErr != nil {
		conn.Close()
		return nil, fmt.Errorf("warehouse schema: %w", schemaErr)
	}

	return conn, nil
}

// BuildOrchestrator wires the intake and processed stores, the three
// pipeline stages and the orchestrator over one warehouse connection.
func BuildOrchestrator(cfg *config.Config, conn *warehouse.Connection, log logger.Logger) (*service.Orchestrator, error) {
	intakeStore, intakeErr := intake.NewFileStore(cfg.Pipeline.IntakeDir)
	if intakeErr != nil {
		return nil, fmt.Errorf("intake store: %w", intakeErr)
	}

	processedStore, processedErr := intake.NewFileStore(cfg.Pipeline.ProcessedDir)
	if processedErr != nil {
		return nil, fmt.Errorf("processed store: %w", processedErr)
	}

	repo := warehouse.NewRepository(conn.DB)

	return service.NewOrchestrator(
		conn,
		sweeper.New(intakeStore, processedStore, log),
		warehouse.NewLoader(processedStore, repo, cfg.Pipeline.RetainProcessed, log),
		aggregator.New(repo, cfg.Pipeline.OnTimeThresholdHours, log),
		log,
	), nil
}

// RunETL initializes and runs the ETL pipeline: one cycle when once is
// set, otherwise a periodic loop until SIGINT or SIGTERM.
func RunETL(once bool) error {
	cfg, configErr := LoadConfig()
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}

	log, logErr := CreateLogger(cfg)
	if logErr != nil {
		return fmt.Errorf("logger: %w", logErr)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting ETL pipeline",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.String("warehouse", cfg.Warehouse.Path),
		logger.String("intake", cfg.Pipeline.IntakeDir),
		logger.Bool("once", once),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, connErr := OpenWarehouse(ctx, cfg)
	if connErr != nil {
		return connErr
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Error("Failed to close warehouse", logger.Error(closeErr))
		}
	}()

	orchestrator, buildErr := BuildOrchestrator(cfg, conn, log)
	if buildErr != nil {
		return buildErr
	}

	if once {
		return runCycleOnce(ctx, orchestrator, log)
	}

	runner := service.NewRunner(orchestrator, cfg.Pipeline.CycleInterval, log)
	runner.Run(ctx)

	log.Info("ETL pipeline stopped")
	return nil
}

// runCycleOnce runs a single cycle and surfaces only fatal errors.
func runCycleOnce(ctx context.Context, orchestrator *service.Orchestrator, log logger.Logger) error {
	report, cycleErr := orchestrator.RunCycle(ctx)
	if cycleErr != nil {
		return fmt.Errorf("cycle: %w", cycleErr)
	}

	if len(report.Errors) > 0 {
		log.Warn("Cycle completed with per-batch failures",
			logger.Int("failed", report.BatchesFailed),
			logger.Any("errors", report.Errors),
		)
	}

	return nil
}
