package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/girder/covalic/app"
	"github.com/girder/covalic/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	logger := application.Observability.Logger

	go func() {
		if err := application.Router.Run(ctx); err != nil {
			logger.Error("Message router stopped", "error", err)
			cancel()
		}
	}()
	<-application.Router.Running()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		if err := application.SubmissionModule.Run(ctx, &wg); err != nil {
			logger.Error("Submission module stopped", "error", err)
			cancel()
		}
	}()

	apiServer := &http.Server{
		Addr:    cfg.HTTP.ListenAddr,
		Handler: application.APIServer.Routes(),
	}
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.HTTP.ListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
			cancel()
		}
	}()

	var metricsServer *http.Server
	if cfg.Observability.MetricsAddress != "" {
		metricsServer = &http.Server{
			Addr:    cfg.Observability.MetricsAddress,
			Handler: application.MetricsHandler(),
		}
		go func() {
			logger.Info("Metrics listening", "addr", cfg.Observability.MetricsAddress)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	select {
	case <-interrupt:
		logger.Info("Shutdown signal received")
	case <-ctx.Done():
		logger.Info("Application context canceled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics shutdown failed", "error", err)
		}
	}

	cancel()
	wg.Wait()

	if err := application.Router.Close(); err != nil {
		logger.Error("Router close failed", "error", err)
	}
	if err := application.Close(); err != nil {
		logger.Error("Application close failed", "error", err)
	}
	logger.Info("Application shut down gracefully")
}
