package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"syncbridge/pkg/config"
	"syncbridge/pkg/datasource"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/logger"
	"syncbridge/pkg/scheduler"
	"syncbridge/pkg/server"
	"syncbridge/pkg/service"
	"syncbridge/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (json or yaml)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitLogger(cfg.IsDevelopment(), cfg.App.LogFile, cfg.App.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	zl := logger.Logger

	st, err := store.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	registry := datasource.NewRegistry(st, datasource.Options{
		PageSize:      cfg.Engine.ReadPageSize,
		HTTPTimeout:   time.Duration(cfg.Engine.HTTPTimeoutSeconds) * time.Second,
		RatePerSecond: cfg.Engine.APIRatePerSecond,
	}, zl)
	defer registry.Close()

	executor := engine.NewExecutor(st, st, st, registry, zl)
	sched := scheduler.New(executor, st, zl)

	svc := service.New(st, registry, executor, sched, service.Options{
		RecentResultsLimit: cfg.Engine.RecentResultsLimit,
	}, zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		if err := svc.StartScheduler(ctx); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer svc.StopScheduler()
	}

	httpServer := server.NewHTTPServer(cfg, svc, zl)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
