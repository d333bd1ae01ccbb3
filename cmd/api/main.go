package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harnoorlabs/aromas-backend/api/routes"
	"github.com/harnoorlabs/aromas-backend/internal/cart"
	checkoutsvc "github.com/harnoorlabs/aromas-backend/internal/checkout"
	"github.com/harnoorlabs/aromas-backend/internal/invoices"
	"github.com/harnoorlabs/aromas-backend/internal/notifications"
	"github.com/harnoorlabs/aromas-backend/internal/orders"
	"github.com/harnoorlabs/aromas-backend/internal/payments"
	product "github.com/harnoorlabs/aromas-backend/internal/products"
	"github.com/harnoorlabs/aromas-backend/pkg/config"
	"github.com/harnoorlabs/aromas-backend/pkg/db"
	"github.com/harnoorlabs/aromas-backend/pkg/env"
	"github.com/harnoorlabs/aromas-backend/pkg/gateway"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/metrics"
	"github.com/harnoorlabs/aromas-backend/pkg/migrate"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	publisher := outbox.NewService(outbox.NewRepository(conn), logg)
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	productRepo := product.NewRepository(conn)
	productService, err := product.NewService(productRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(conn)
	cartService, err := cart.NewService(cartRepo, productRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(conn)
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	notifier, err := notifications.NewNotifier(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		checkoutsvc.NewRepository(conn),
		cartRepo,
		productRepo,
		publisher,
		notifier,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(conn)
	ordersService, err := orders.NewService(dbClient, ordersRepo, publisher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	invoiceGen, err := invoices.NewGenerator(cfg.Mail.FromName)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice generator", err)
		os.Exit(1)
	}

	var paymentsService payments.Service
	if cfg.Gateway.Enabled {
		gatewayClient, err := gateway.NewClient(context.Background(), cfg.Gateway, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create gateway client", err)
			os.Exit(1)
		}
		paymentsService, err = payments.NewService(dbClient, payments.NewRepository(conn), gatewayClient, publisher, checkoutMetrics, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create payments service", err)
			os.Exit(1)
		}
	}

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		OrdersRepo:    ordersRepo,
		Invoices:      invoiceGen,
		Payments:      paymentsService,
		Products:      productService,
		Notifications: notificationsService,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"gateway_enabled": cfg.Gateway.Enabled,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
