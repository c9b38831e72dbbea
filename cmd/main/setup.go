package main

import (
	"context"
	"time"

	"energy-forecast/src/cache"
	"energy-forecast/src/config"
	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/network"
	"energy-forecast/src/pipeline"
	"energy-forecast/src/storage"
)

const storeInitTimeout = 15 * time.Second

// -----------------------------------------------------------------------------

// setupStore opens the configured cache backend and prepares its schema
func setupStore(conf *config.Config, appLogger *logger.Logger) (interfaces.ICacheStore, error) {
	store, err := storage.NewStore(conf.MConfig, logger.NewLogger(conf, "CacheStore"))
	if err != nil {
		appLogger.Critical("Failed to init cache store: %v", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()
	if err := store.Initialize(ctx); err != nil {
		appLogger.Critical("Failed to prepare cache store %s: %v", store.Name(), err)
		return nil, err
	}

	appLogger.Info("Cache store: %s", store.Name())
	return store, nil
}

// -----------------------------------------------------------------------------

// setupProxy wires the upstream client behind the caching proxy
func setupProxy(conf *config.Config, store interfaces.ICacheStore) *cache.Proxy {
	upstream := network.NewUpstreamClient(conf.MConfig, logger.NewLogger(conf, "UpstreamClient"))
	return cache.NewProxy(store, upstream, conf.Cache.Validation, logger.NewLogger(conf, "CacheProxy"))
}

// -----------------------------------------------------------------------------

// setupPipeline builds the in-process pipeline reading through the proxy
func setupPipeline(conf *config.Config, proxy *cache.Proxy) *pipeline.Pipeline {
	return pipeline.NewPipeline(
		proxy,
		conf.Location(),
		conf.DefaultRegion,
		conf.Pipeline.Retries,
		logger.NewLogger(conf, "Pipeline"),
	)
}
