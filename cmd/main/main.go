package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"energy-forecast/src/config"
	pb "energy-forecast/src/grpc_control"
	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"
	"energy-forecast/src/metrics"
	"energy-forecast/src/server"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(conf, conf.Name)

	memLimit := helpers.ApplyMemoryLimit(conf.Cache.MemoryLimitMB)
	appLogger.Info("Memory Limit set to: %d MB", memLimit)

	metrics.Init()

	// 1. Setup Components
	store, err := setupStore(conf, appLogger)
	if err != nil {
		os.Exit(1)
	}
	defer store.Close()

	proxy := setupProxy(conf, store)
	forecasts := setupPipeline(conf, proxy)

	srv := server.NewFastAPIServer(conf.MConfig, proxy, forecasts, store, logger.NewLogger(conf, "FastAPIServer"))
	srv.History = forecasts.History

	control := pb.NewControlService(conf, store, forecasts, srv, logger.NewLogger(conf, "ControlService"))

	// 2. Start Servers
	errCh := make(chan error, 2)
	startServers(srv, control, errCh, appLogger)

	// 3. Prewarm
	prewarm, err := startPrewarm(conf, forecasts, srv, appLogger)
	if err != nil {
		appLogger.Error("Prewarm not started: %v", err)
	}

	// 4. Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received %v, shutting down...", sig)
	case err := <-errCh:
		appLogger.Critical("Server error, shutting down: %v", err)
	}

	if prewarm != nil {
		prewarm.Stop()
	}
	control.Stop()
	if err := srv.Stop(); err != nil {
		appLogger.Error("Server shutdown: %v", err)
	}
	appLogger.Info("Shutdown complete.")
}
