package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmeister/storefront-backend/api/routes"
	"github.com/dmeister/storefront-backend/internal/catalog"
	"github.com/dmeister/storefront-backend/internal/checkout"
	"github.com/dmeister/storefront-backend/internal/orders"
	"github.com/dmeister/storefront-backend/internal/tracking"
	hotmartwebhook "github.com/dmeister/storefront-backend/internal/webhooks/hotmart"
	"github.com/dmeister/storefront-backend/pkg/config"
	"github.com/dmeister/storefront-backend/pkg/db"
	"github.com/dmeister/storefront-backend/pkg/exchange"
	"github.com/dmeister/storefront-backend/pkg/logger"
	"github.com/dmeister/storefront-backend/pkg/meta"
	"github.com/dmeister/storefront-backend/pkg/metrics"
	"github.com/dmeister/storefront-backend/pkg/redis"
	"github.com/dmeister/storefront-backend/pkg/stripe"
	"github.com/dmeister/storefront-backend/pkg/utmify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer func() { _ = dbClient.Close() }()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer func() { _ = redisClient.Close() }()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		log.Fatalf("init stripe: %v", err)
	}
	gateway := stripe.NewGateway(stripeClient)

	fanoutMetrics := metrics.NewFanoutMetrics(prometheus.DefaultRegisterer)

	var conversions *meta.Client
	if cfg.Meta.Configured() {
		conversions, err = meta.NewClient(cfg.Meta.PixelID, cfg.Meta.AccessToken,
			meta.WithBaseURL(cfg.Meta.GraphURL))
		if err != nil {
			log.Fatalf("init conversions client: %v", err)
		}
	} else {
		logg.Warn(ctx, "conversions sink disabled, pixel credentials not set")
	}

	var attribution *utmify.Client
	if cfg.Utmify.Configured() {
		attribution, err = utmify.NewClient(cfg.Utmify.APIToken,
			utmify.WithBaseURL(cfg.Utmify.BaseURL))
		if err != nil {
			log.Fatalf("init attribution client: %v", err)
		}
	} else {
		logg.Warn(ctx, "attribution sink disabled, api token not set")
	}

	rates := exchange.NewClient(
		exchange.WithBaseURL(cfg.Exchange.BaseURL),
		exchange.WithTimeout(cfg.Exchange.Timeout),
	)

	trackingSvc := tracking.NewService(
		nilableConversions(conversions),
		nilableAttribution(attribution),
		rates,
		cfg.Exchange.FallbackRate,
		cfg.Utmify.BillingCurrency,
		fanoutMetrics,
		logg,
	)

	catalogSvc := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	checkoutSvc := checkout.NewService(catalogSvc, gateway, trackingSvc,
		cfg.Stripe.Currency, cfg.Stripe.ReturnURLBase, logg)
	ordersSvc := orders.NewService(orders.NewNormalizer(gateway), trackingSvc, logg)

	guard, err := hotmartwebhook.NewReplayGuard(redisClient, cfg.Hotmart.GuardTTL)
	if err != nil {
		log.Fatalf("init replay guard: %v", err)
	}
	hotmartSvc := hotmartwebhook.NewService(trackingSvc, guard, logg)

	router := routes.New(routes.Options{
		Config:   cfg,
		Logger:   logg,
		Catalog:  catalogSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Hotmart:  hotmartSvc,
		DB:       dbClient,
		Cache:    redisClient,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "graceful shutdown failed", err)
	}
}

// The typed clients only join the fanout when configured; handing a typed
// nil pointer to an interface parameter would dodge the service's nil checks.
func nilableConversions(c *meta.Client) tracking.ConversionsClient {
	if c == nil {
		return nil
	}
	return c
}

func nilableAttribution(c *utmify.Client) tracking.AttributionClient {
	if c == nil {
		return nil
	}
	return c
}
