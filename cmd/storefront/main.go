package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/egannguyen/tica-shop/internal/auth"
	"github.com/egannguyen/tica-shop/internal/catalog"
	"github.com/egannguyen/tica-shop/internal/config"
	delivery "github.com/egannguyen/tica-shop/internal/delivery/http"
	"github.com/egannguyen/tica-shop/internal/messaging"
	"github.com/egannguyen/tica-shop/internal/messaging/broker"
	"github.com/egannguyen/tica-shop/internal/messaging/rabbitmq"
	"github.com/egannguyen/tica-shop/internal/notification"
	"github.com/egannguyen/tica-shop/internal/repository"
	"github.com/egannguyen/tica-shop/internal/repository/postgres"
	cache "github.com/egannguyen/tica-shop/internal/repository/redis"
	"github.com/egannguyen/tica-shop/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Storefront stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Database ---
	db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	var products repository.ProductRepository = postgres.NewProductRepository(db)
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("Catalog cache disabled", "err", err)
		} else {
			defer rdb.Close()
			products = cache.NewCachedProductRepository(products, rdb, cfg.CatalogCacheTTL)
			slog.Info("Catalog cache enabled", "ttl", cfg.CatalogCacheTTL)
		}
	}

	catalogSvc := service.NewCatalogService(products)
	if cfg.SeedCatalog {
		seed, err := catalog.Products()
		if err != nil {
			return err
		}
		if err := catalogSvc.Seed(ctx, seed); err != nil {
			return err
		}
	}

	// --- Events ---
	publisher, closeEvents, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	// --- Notifications ---
	var sender notification.Sender
	if cfg.EmailEnabled() {
		sender = notification.NewEmailClient(cfg.ForgeAPIURL, cfg.ForgeAPIKey)
	} else {
		slog.Warn("BUILT_IN_FORGE_API_URL or BUILT_IN_FORGE_API_KEY not set; order emails disabled")
	}
	notifier := notification.NewDispatcher(sender, cfg.MerchantEmail, cfg.RevolutContact)

	// --- Services ---
	userSvc := service.NewUserService(postgres.NewUserRepository(db), cfg.OwnerOpenID)
	handler := delivery.NewHandler(delivery.Deps{
		Catalog:  catalogSvc,
		Carts:    service.NewCartService(catalogSvc, cfg.ShippingCost),
		Orders:   service.NewOrderService(postgres.NewOrderRepository(db), notifier, publisher, cfg.PaymentMethod),
		Users:    userSvc,
		Sessions: auth.NewSessions(auth.NewCookieStore(cfg.SessionKey, cfg.CookieSecure), userSvc),
		DB:       db,
		DevLogin: cfg.DevLogin,

		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// --- HTTP API ---
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("🚀 HTTP server starting", "addr", httpServer.Addr, "event_broker", cfg.EventBroker)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newPublisher connects the configured event broker. The returned func
// releases it and is safe to call when nothing was opened.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	switch cfg.EventBroker {
	case config.BrokerNone:
		slog.Info("Event publishing disabled")
		return messaging.Discard, func() {}, nil

	case config.BrokerRabbitMQ:
		pool, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQQueue, 4)
		if err != nil {
			return nil, nil, err
		}
		return rabbitmq.NewPublisher(pool, cfg.RabbitMQQueue), func() {
			if err := pool.Close(); err != nil {
				slog.Error("Failed to close RabbitMQ pool", "err", err)
			}
		}, nil

	default:
		var (
			b   *broker.Broker
			err error
		)
		if cfg.EventBroker == config.BrokerKafka {
			b, err = broker.NewKafka(cfg.KafkaBrokers, logger)
		} else {
			b, err = broker.NewInMemory(logger)
		}
		if err != nil {
			return nil, nil, err
		}

		runErr := make(chan error, 1)
		go func() { runErr <- b.Run(ctx) }()
		select {
		case <-b.Running():
		case err := <-runErr:
			b.Close()
			return nil, nil, fmt.Errorf("event router failed to start: %w", err)
		}
		go func() {
			if err := <-runErr; err != nil {
				slog.Error("Event router stopped", "err", err)
			}
		}()
		slog.Info("🔄 Event consumers started", "broker", cfg.EventBroker)

		return b.Publisher, func() {
			if err := b.Close(); err != nil {
				slog.Error("Failed to close event broker", "err", err)
			}
		}, nil
	}
}
