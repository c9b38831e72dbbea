package main

import (
	"context"

	"energy-forecast/src/config"
	pb "energy-forecast/src/grpc_control"
	"energy-forecast/src/logger"
	"energy-forecast/src/pipeline"
	"energy-forecast/src/server"
	"energy-forecast/src/utils"
)

// -----------------------------------------------------------------------------

// startServers orchestrates the startup of all server components. Failures
// are reported on errCh.
func startServers(
	srv *server.FastAPIServer,
	control *pb.ControlService,
	errCh chan<- error,
	appLogger *logger.Logger,
) {
	// 1. FastAPIServer
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
			errCh <- err
		}
	}()

	// 2. gRPC Control Server
	go func() {
		if err := control.Start(); err != nil {
			appLogger.Critical("failed to serve gRPC: %v", err)
			errCh <- err
		}
	}()
}

// -----------------------------------------------------------------------------

// startPrewarm schedules cache prewarming and pushes fresh results to
// websocket clients watching the same day.
func startPrewarm(
	conf *config.Config,
	forecasts pipeline.Executor,
	exchanger *server.FastAPIServer,
	appLogger *logger.Logger,
) (*utils.PrewarmScheduler, error) {
	if !conf.Prewarm.Enabled {
		appLogger.Info("Prewarm disabled")
		return nil, nil
	}

	run := func(ctx context.Context, date, region string) error {
		set, err := forecasts.Run(ctx, pipeline.Selection{Date: date, Region: region})
		if err != nil {
			return err
		}
		exchanger.Broadcast(set)
		return nil
	}

	scheduler := utils.NewPrewarmScheduler(
		conf.Prewarm.Schedule,
		conf.Regions,
		conf.Prewarm.DaysAhead,
		conf.Location(),
		run,
		logger.NewLogger(conf, "PrewarmScheduler"),
	)
	if err := scheduler.Start(); err != nil {
		return nil, err
	}
	return scheduler, nil
}
