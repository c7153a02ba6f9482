package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tsetmc-pusher/src/config"
	datasource "tsetmc-pusher/src/data_source"
	"tsetmc-pusher/src/grpc_control"
	"tsetmc-pusher/src/interfaces"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"
	"tsetmc-pusher/src/repository"
	"tsetmc-pusher/src/server"
	"tsetmc-pusher/src/utils"
)

// -----------------------------------------------------------------------------

// startControlServer serves the gRPC health service for the process lifetime
func startControlServer(ctx context.Context, control *grpc_control.ControlService, config *config.Config, appLogger *logger.Logger) error {
	addr := fmt.Sprintf("%s:%d", config.GrpcHost, config.GrpcPort)
	appLogger.Info("Starting gRPC Control Server on %s", addr)
	return control.Start(ctx, addr)
}

// -----------------------------------------------------------------------------

// runDaily waits for each trading session and runs it, until ctx is done
func runDaily(
	ctx context.Context,
	config *models.MConfig,
	scheduler *utils.MarketScheduler,
	source interfaces.IMarketSource,
	control *grpc_control.ControlService,
	appLogger *logger.Logger,
) error {
	for {
		_, closeAt, err := scheduler.WaitForSession(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		if err := runSession(ctx, config, scheduler, source, control, closeAt, appLogger); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// -----------------------------------------------------------------------------

// runSession serves subscribers and polls the exchange until closeAt. The
// repository is fresh for every session.
func runSession(
	ctx context.Context,
	config *models.MConfig,
	scheduler *utils.MarketScheduler,
	source interfaces.IMarketSource,
	control *grpc_control.ControlService,
	closeAt time.Time,
	appLogger *logger.Logger,
) error {
	appLogger.Info("Market is starting.")

	repo := repository.NewMarketRepository()
	srv := server.NewPusherServer(config, repo, appLogger.Named("PusherServer"))
	crawler := datasource.NewRealtimeCrawler(config, source, repo, srv, scheduler, appLogger.Named("RealtimeCrawler"))

	control.SetSessionOpen(true)
	defer control.SetSessionOpen(false)

	g, gctx := errgroup.WithContext(ctx)

	// The gateway stops at close; the crawler stops on its own once close has
	// passed so an in-flight fetch is not cut short.
	serveCtx, cancel := context.WithDeadline(gctx, closeAt)
	defer cancel()

	g.Go(func() error {
		return srv.Start(serveCtx)
	})
	g.Go(func() error {
		return crawler.RunSession(gctx, closeAt)
	})

	err := g.Wait()
	appLogger.Info("Market is closed. %d instruments seen this session.", repo.Len())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
