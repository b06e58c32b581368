package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"syscall"

	"riskPlanner/config"
	"riskPlanner/internal/adapters/binanceclient"
	"riskPlanner/internal/adapters/logger"
	"riskPlanner/internal/adapters/sqlite"
	"riskPlanner/internal/app"
	"riskPlanner/internal/ports"
	"riskPlanner/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		appLogger = logger.NewZerologLogger(cfg.LogLevel)
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Exchange Client (Binance Adapter), only when keys are configured.
	var exchange ports.ExchangeClient
	if cfg.UseExchange() {
		binanceClient, err := binanceclient.New(binanceclient.Config{
			APIKey:               cfg.APIKey,
			SecretKey:            cfg.SecretKey,
			UseTestnet:           cfg.IsTestnet,
			Logger:               appLogger,
			ReconnectDelay:       cfg.ReconnectDelay,
			MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
			log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
		}
		if err := binanceClient.SetServerTime(context.Background()); err != nil {
			appLogger.Warn(context.Background(), "Failed to sync exchange server time", map[string]interface{}{"error": err.Error()})
		}
		exchange = binanceClient
		appLogger.Info(context.Background(), "Binance client initialized")
	} else {
		appLogger.Info(context.Background(), "No exchange keys configured, using manual balance override", map[string]interface{}{
			"accountBalanceCents": cfg.AccountBalanceCents,
		})
	}

	// 5. Initialize Application Service
	plannerService, err := app.NewPlannerService(
		cfg,
		appLogger,
		repo, // Pass the concrete implementation, service expects the interface
		repo, // Pass the concrete implementation, service expects the interface
		exchange,
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize planner service")
		log.Fatalf("FATAL: Failed to initialize planner service: %v", err)
	}
	appLogger.Info(context.Background(), "Planner service initialized")

	// 6. Start the HTTP API
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(plannerService, appLogger)
	if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
		appLogger.Error(context.Background(), err, "HTTP server exited with error")
		log.Fatalf("FATAL: HTTP server exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
