// scoreworker is the reference scoring runner. It subscribes to scoring
// dispatch events, runs the phase's metrics container via the local Docker
// daemon and posts the container's stdout back as the score, reporting job
// status and logs along the way.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/girder/covalic/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "scoreworker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker, err := NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize worker", "error", err)
		os.Exit(1)
	}

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		<-interrupt
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shut down")
}
