package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/brewdesk/gateway"
	"github.com/example/brewdesk/pkg/api"
	"github.com/example/brewdesk/pkg/app"
	"github.com/example/brewdesk/pkg/config"
	"github.com/example/brewdesk/pkg/discovery"
	"github.com/example/brewdesk/pkg/grpc"
	"github.com/example/brewdesk/pkg/hub"
	"github.com/example/brewdesk/pkg/live"
	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/payment"
	"github.com/example/brewdesk/pkg/repository"
	"github.com/example/brewdesk/pkg/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting brewdesk gateway",
		zap.Int("port", cfg.Gateway.Port),
		zap.String("state_driver", cfg.State.Driver),
		zap.String("live_driver", cfg.Live.Driver),
		zap.String("payment_provider", cfg.Payment.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Service discovery
	var resolver api.Resolver = api.StaticURL(cfg.API.BaseURL)
	var sd *discovery.ServiceDiscovery
	if cfg.Etcd.Enabled {
		sd, err = discovery.NewServiceDiscovery(cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			defer sd.Close()
			r, err := discovery.NewResolver(sd, cfg.API.ServiceName, cfg.API.BaseURL, logger)
			if err != nil {
				logger.Fatal("Invalid api.base_url", zap.Error(err))
			}
			resolver = r
		}
	}

	client := api.NewClient(resolver, cfg.API.Timeout, logger)

	payments, err := payment.New(cfg.Payment, client, logger)
	if err != nil {
		logger.Fatal("Failed to create payment provider", zap.Error(err))
	}

	persistence, closeState, err := openState(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open client state store", zap.Error(err))
	}
	defer closeState()

	var journal app.Journal
	if cfg.MongoDB.Enabled {
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			logger.Warn("MongoDB unavailable, staff actions will not be journaled", zap.Error(err))
		} else {
			defer mongoRepo.Close(context.Background())
			journal = mongoRepo
			logger.Info("Staff action journal enabled", zap.String("collection", cfg.MongoDB.Collection))
		}
	}

	policy := app.Policy{
		TaxBasisPoints:          models.RateToBasisPoints(cfg.Orders.TaxRate),
		Lifecycle:               store.Lifecycle{CancelFromPreparing: cfg.Orders.CancelFromPreparing},
		AdvanceOnCashierPayment: cfg.Orders.AdvanceOnCashierPayment,
		KeyPrefix:               cfg.State.Prefix,
		SessionTTL:              cfg.State.SessionTTL,
		AuthTTL:                 cfg.State.AuthTTL,
	}
	deps := app.Deps{API: client, Payments: payments, Persistence: persistence, Journal: journal}

	tabs := hub.New(func(tabID string) *app.Tab {
		return app.NewTab(tabID, deps, policy, logger)
	}, hub.Options{
		DispatchTimeout: cfg.Gateway.DispatchTimeout,
		IdleTimeout:     cfg.Gateway.TabIdleTimeout,
	}, logger)
	defer tabs.Shutdown()

	// Live order updates
	subscriber, err := openLive(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create live subscriber", zap.Error(err))
	}
	defer subscriber.Close()
	go func() {
		if err := subscriber.Run(ctx, tabs.Broadcast); err != nil {
			logger.Error("Live subscriber stopped", zap.Error(err))
		}
	}()

	// gRPC health
	health := grpc.NewHealthServer(cfg.Server, client, logger)
	healthErr := make(chan error, 1)
	go func() {
		if err := health.Start(); err != nil {
			healthErr <- err
		}
	}()
	go health.Watch(ctx, 15*time.Second)
	defer health.Stop()

	gw := gateway.NewGateway(&cfg.Gateway, tabs, logger)
	gw.SetupRoutes()

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Gateway.Host,
		Port: cfg.Gateway.Port,
	}
	if sd != nil {
		if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register gateway", zap.Error(err))
		}
	}

	logger.Info("Gateway started successfully")

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Error("Gateway error", zap.Error(err))
	case err := <-healthErr:
		logger.Error("Health server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Warn("Failed to deregister gateway", zap.Error(err))
		}
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown error", zap.Error(err))
	}

	logger.Info("Gateway stopped")
}

// openState returns the persistence port selected by state.driver and a
// function releasing it.
func openState(ctx context.Context, cfg *config.Config, logger *zap.Logger) (app.Persistence, func(), error) {
	switch cfg.State.Driver {
	case config.StateRedis:
		repo := repository.NewRedisRepository(&cfg.Redis)
		if err := repo.Ping(ctx); err != nil {
			logger.Warn("Redis connection failed", zap.Error(err))
		} else {
			logger.Info("Redis connected successfully")
		}
		return repo, func() { _ = repo.Close() }, nil

	case config.StateMySQL:
		repo, err := repository.NewSQLRepository(&cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		go sweep(ctx, repo, logger)
		return repo, func() { _ = repo.Close() }, nil

	default:
		return repository.NewMemoryRepository(), func() {}, nil
	}
}

func sweep(ctx context.Context, repo *repository.SQLRepository, logger *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Sweep(ctx)
			if err != nil {
				logger.Warn("Failed to sweep expired client state", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Swept expired client state", zap.Int64("rows", n))
			}
		}
	}
}

func openLive(cfg *config.Config, logger *zap.Logger) (live.Subscriber, error) {
	switch cfg.Live.Driver {
	case config.LiveRabbitMQ:
		return live.NewRabbitMQSubscriber(cfg.Live.RabbitMQ, logger), nil
	case config.LiveKafka:
		return live.NewKafkaSubscriber(cfg.Live.Kafka, logger)
	default:
		return live.Nop{}, nil
	}
}
