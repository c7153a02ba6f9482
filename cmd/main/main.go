package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tsetmc-pusher/src/config"
	"tsetmc-pusher/src/grpc_control"
	"tsetmc-pusher/src/logger"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	// 4. Setup Components
	scheduler, err := setupScheduler(conf.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init market scheduler: %v", err)
	}
	networkManager := setupNetwork(conf.MConfig, appLogger)
	source := setupDataSource(conf.MConfig, networkManager, scheduler.Location, appLogger)
	control := grpc_control.NewControlService(appLogger.Named("ControlService"))

	// 5. Lifecycle Management
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if conf.GrpcPort != 0 {
		g.Go(func() error {
			return startControlServer(gctx, control, conf, appLogger)
		})
	}
	g.Go(func() error {
		return runDaily(gctx, conf.MConfig, scheduler, source, control, appLogger)
	})

	// 6. Wait for shutdown
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Pusher stopped: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Shutdown complete.")
}
