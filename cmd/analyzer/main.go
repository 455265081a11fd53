// Command analyzer runs the real-time gold-price analysis and simulation
// service: a tick feed, the per-timeframe hybrid analysis orchestrator, the
// simulation engine, and the read-only dashboard API, wired together and
// shut down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sezginpak/gold-price-analyzer-sub001/config"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/api"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/feed"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/orchestrator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/simulation"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/store"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/tickstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:       cfg.LoggingConfig.Level,
		Output:      cfg.LoggingConfig.Output,
		Component:   "main",
		IncludeFile: cfg.LoggingConfig.IncludeFile,
		JSONFormat:  cfg.LoggingConfig.JSONFormat,
	})
	logging.SetDefault(logger)
	logger.Info("structured logging initialized")

	ctx := context.Background()

	durableStore, err := store.New(ctx, cfg.PostgresConfig.Build())
	if err != nil {
		log.Fatalf("failed to open durable store: %v", err)
	}
	defer durableStore.Close()
	if err := durableStore.RunMigrations(ctx); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	logger.Info("durable store ready")

	var cache orchestrator.ResultCache
	if cfg.RedisConfig.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-memory cache", "error", err)
		} else {
			cache = orchestrator.NewRedisCache(redisClient, 30*time.Second)
			logger.Info("redis result cache connected", "address", cfg.RedisConfig.Address)
		}
	}

	ticks := tickstore.New()
	seedTickStore(ctx, ticks, durableStore, logger)

	orch := orchestrator.New(ticks, durableStore, cache, cfg.AnalysisConfig.HighCostMode, cfg.AnalysisConfig.CandleRequirements)

	simLocation := time.Local
	engine := simulation.New(ticks, orch, durableStore, simLocation)
	if err := engine.Start(ctx); err != nil {
		log.Fatalf("failed to start simulation engine: %v", err)
	}
	for _, simCfg := range cfg.SimulationsConfig {
		engine.Register(newSimulation(simCfg.Build()))
	}
	logger.Info("simulation engine started", "simulations", len(cfg.SimulationsConfig))

	tickSource := buildFeed(cfg.FeedConfig)
	go runFeed(ctx, tickSource, ticks, orch, durableStore, logger)

	apiServer := api.NewServer(
		api.Config{
			Port:            cfg.ServerConfig.Port,
			Host:            cfg.ServerConfig.Host,
			AllowedOrigins:  cfg.ServerConfig.AllowedOrigins,
			ReadTimeout:     time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
			WriteTimeout:    time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
			ShutdownTimeout: time.Duration(cfg.ServerConfig.ShutdownTimeout) * time.Second,
		},
		ticks, orch, durableStore, engine, durableStore,
	)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()
	logger.Info("read api listening", "host", cfg.ServerConfig.Host, "port", cfg.ServerConfig.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()

	tickSource.Stop()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down api server", "error", err)
	}
	engine.Stop(shutdownCtx)
	logger.Info("shutdown complete")
}

// seedTickStore warms the in-memory store from the durable store's most
// recent observations so the orchestrator has history to analyze
// immediately after a restart instead of waiting for fresh feed ticks.
func seedTickStore(ctx context.Context, ticks *tickstore.Store, durableStore *store.Store, logger *logging.Logger) {
	history, err := durableStore.LatestTicks(ctx, 500)
	if err != nil {
		logger.Warn("failed to warm tick store from durable history", "error", err)
		return
	}
	for _, t := range history {
		if err := ticks.Append(t); err != nil {
			logger.Warn("discarded invalid tick while warming tick store", "error", err)
		}
	}
	logger.Info("tick store warmed from durable history", "count", len(history))
}

func buildFeed(cfg config.FeedConfig) feed.Source {
	if cfg.Mode == "websocket" && cfg.WebsocketURL != "" {
		return feed.NewWebsocketSource(cfg.WebsocketURL, time.Duration(cfg.WebsocketReadTimeoutSec)*time.Second)
	}
	return feed.NewDemoSource(time.Duration(cfg.DemoTickInterval) * time.Millisecond)
}

// runFeed drives a feed.Source for the process lifetime, persisting every
// tick and appending it to the in-memory store, then dispatching analysis
// for whichever timeframes are due. Dispatch returns immediately, so a slow
// analysis cycle never stalls the feed's single producer.
func runFeed(ctx context.Context, source feed.Source, ticks *tickstore.Store, orch *orchestrator.Orchestrator, durableStore *store.Store, logger *logging.Logger) {
	err := source.Run(ctx, func(t model.Tick) {
		if err := ticks.Append(t); err != nil {
			logger.Warn("discarded invalid tick", "error", err)
			return
		}
		if err := durableStore.SaveTick(ctx, t); err != nil {
			logger.Warn("failed to persist tick", "error", err)
		}
		orch.Dispatch(ctx, t.Timestamp)
	})
	if err != nil && err != context.Canceled {
		logger.Warn("tick feed stopped", "error", err)
	}
}

func newSimulation(cfg model.SimulationConfig) *model.Simulation {
	capitals := make(map[model.Interval]*model.TimeframeCapital, len(cfg.CapitalDistribution))
	for _, t := range model.AllIntervals {
		fraction, ok := cfg.CapitalDistribution[t]
		if !ok {
			continue
		}
		allocated := cfg.InitialCapitalGrams.Mul(fraction)
		capitals[t] = &model.TimeframeCapital{
			Timeframe:        t,
			AllocatedCapital: allocated,
			CurrentCapital:   allocated,
		}
	}
	now := time.Now()
	return &model.Simulation{
		ID:                cfg.Name,
		Config:            cfg,
		Status:            model.SimulationActive,
		CurrentCapital:    cfg.InitialCapitalGrams,
		TimeframeCapitals: capitals,
		StartDate:         now,
		LastUpdate:        now,
	}
}
