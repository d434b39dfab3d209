package cmd

import (
	"context"
	"fmt"
	"time"

	"raceledger/cache"
	"raceledger/config"
	"raceledger/database"
	"raceledger/events"
	"raceledger/metrics"
	"raceledger/repository"
	"raceledger/server"
	"raceledger/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the settlement engine
func Run(ctx context.Context) error {
	log.Info("Starting raceledger...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Cache is optional; the exchange serves straight from the database
	// when Redis is not configured.
	var exchangeCache service.ExchangeCache
	var redisClient *cache.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(ctx, cache.ClientConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		exchangeCache = cache.NewOrderBookCache(redisClient, 30*time.Second)
		log.WithField("addr", cfg.RedisAddr).Info("Redis cache enabled")
	}

	wagerService := service.NewWagerService(uowFactory)
	marketplaceService := service.NewMarketplaceService(uowFactory)
	exchangeService := service.NewExchangeService(uowFactory, exchangeCache)
	accountService := service.NewAccountService(uowFactory)

	collector := metrics.NewCollector()
	collector.Observe(eventBus)
	metricsSrv := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.WithField("port", cfg.MetricsPort).Info("Metrics server started")

	apiServer := server.NewServer(server.Config{Port: cfg.Port}, server.Handlers{
		Wager:       server.NewWagerHandler(wagerService),
		Marketplace: server.NewMarketplaceHandler(marketplaceService),
		Exchange:    server.NewExchangeHandler(exchangeService),
		Account:     server.NewAccountHandler(accountService, marketplaceService),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	log.WithField("env", cfg.Environment).Info("Settlement engine is running")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("API server shutdown error")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics server shutdown error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("Redis close error")
		}
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
