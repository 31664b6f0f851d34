package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/api"
	"github.com/satushop/kaspisync/internal/config"
	"github.com/satushop/kaspisync/internal/kaspi"
	"github.com/satushop/kaspisync/internal/repository"
	"github.com/satushop/kaspisync/internal/scheduler"
	"github.com/satushop/kaspisync/internal/service"
	"github.com/satushop/kaspisync/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := store.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	docs := store.NewPostgresStore(db, logger)
	if err := docs.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	repos := repository.New(docs, logger)
	limiters := kaspi.NewLimiterRegistry()
	client := kaspi.NewClient(cfg.Kaspi, limiters, logger)

	tokens := service.NewTokenStore(repos, client, logger)
	notifier := service.NewNotifier(repos, logger)
	assigner := service.NewRoundRobinAssigner(cfg.Sync.Couriers)
	products := service.NewProductSyncer(client, repos, tokens, cfg.Kaspi.PageSize, service.SyncStrategy(cfg.Sync.Strategy), logger)
	orders := service.NewOrderSyncer(client, repos, tokens, assigner, notifier, cfg.Kaspi.PageSize, logger)
	deliveries := service.NewDeliveryService(client, repos, notifier, logger)
	pricer := service.NewPriceOptimizer(client, repos, tokens, cfg.Pricer.MinPrice, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(repos.Sellers, products, orders, pricer,
		cfg.Sync.Interval, cfg.Pricer.Interval, cfg.Sync.OrderWindow, logger)
	go sched.Run(ctx)

	router := api.NewRouter(cfg, repos, api.Services{
		Tokens:     tokens,
		Products:   products,
		Orders:     orders,
		Deliveries: deliveries,
		Pricer:     pricer,
	}, logger)

	logger.Info("Starting kaspisync",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
