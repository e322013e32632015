package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/api"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/config"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/httpserver"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/warehouse"
)

const healthCheckTimeout = 2 * time.Second

// SetupHTTPServer creates the read API server with all handlers wired.
func SetupHTTPServer(cfg *config.Config, conn *warehouse.Connection, log logger.Logger) *httpserver.Server {
	repo := warehouse.NewRepository(conn.DB)
	kpiHandler := api.NewKPIHandler(repo)

	serverCfg := &httpserver.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Port:           cfg.Service.Port,
		Debug:          cfg.Service.Debug,
	}

	healthChecks := map[string]httpserver.HealthChecker{
		"warehouse": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			defer cancel()
			return conn.Ping(ctx)
		},
	}

	return httpserver.New(serverCfg, log, healthChecks, func(router *gin.Engine) {
		api.SetupRoutes(router, kpiHandler)
	})
}

// RunServer initializes and runs the read API service.
func RunServer() error {
	cfg, configErr := LoadConfig()
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}

	log, logErr := CreateLogger(cfg)
	if logErr != nil {
		return fmt.Errorf("logger: %w", logErr)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting KPI read API",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	ctx := context.Background()

	conn, connErr := OpenWarehouse(ctx, cfg)
	if connErr != nil {
		return connErr
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Error("Failed to close warehouse", logger.Error(closeErr))
		}
	}()

	server := SetupHTTPServer(cfg, conn, log)

	if runErr := server.Run(ctx); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server: %w", runErr)
	}

	log.Info("KPI read API stopped")
	return nil
}
