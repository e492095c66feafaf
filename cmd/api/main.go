package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/angelmondragon/shopfront/api/controllers"
	"github.com/angelmondragon/shopfront/api/middleware"
	"github.com/angelmondragon/shopfront/api/routes"
	"github.com/angelmondragon/shopfront/internal/cart"
	"github.com/angelmondragon/shopfront/internal/catalog"
	"github.com/angelmondragon/shopfront/internal/checkout"
	"github.com/angelmondragon/shopfront/internal/delivery"
	"github.com/angelmondragon/shopfront/internal/inventory"
	"github.com/angelmondragon/shopfront/internal/orders"
	"github.com/angelmondragon/shopfront/pkg/config"
	"github.com/angelmondragon/shopfront/pkg/db"
	"github.com/angelmondragon/shopfront/pkg/logger"
	"github.com/angelmondragon/shopfront/pkg/maps"
	"github.com/angelmondragon/shopfront/pkg/metrics"
	"github.com/angelmondragon/shopfront/pkg/migrate"
	"github.com/angelmondragon/shopfront/pkg/redis"
	"github.com/angelmondragon/shopfront/pkg/telemetry"
)

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
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, "shopfront-api", cfg.Telemetry)
	if err != nil {
		logg.Error(ctx, "failed to init tracing", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logg.Error(ctx, "error flushing traces", err)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"database": dbClient}

	var (
		sessionStore     cart.SessionStore = cart.NewMemoryStore()
		idempotencyStore middleware.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		redisStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
		if err != nil {
			logg.Error(ctx, "failed to create cart store", err)
			os.Exit(1)
		}
		sessionStore = redisStore
		idempotencyStore = redisClient
		pingers["redis"] = redisClient
	} else {
		idempotencyStore = middleware.NewMemoryIdempotencyStore()
		logg.Warn(ctx, "redis not configured; carts and idempotency records are kept in process memory")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	ledger, err := inventory.NewLedger(inventory.LedgerParams{
		TxRunner: dbClient,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stock ledger", err)
		os.Exit(1)
	}

	productRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(productRepo, ledger, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(sessionStore, productRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(orderRepo)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:    cartService,
		Ledger:  ledger,
		Orders:  orderRepo,
		Metrics: checkoutMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	resolver, err := buildDistanceResolver(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create distance resolver", err)
		os.Exit(1)
	}

	deliveryService, err := delivery.NewService(delivery.ServiceParams{
		Repo:     delivery.NewRepository(dbClient.DB()),
		Orders:   orderRepo,
		Pricer:   delivery.NewPricer(resolver, logg),
		TxRunner: dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create delivery service", err)
		os.Exit(1)
	}

	if cfg.FeatureFlags.SeedReferenceData {
		products, err := catalogService.SeedDefaults(ctx)
		if err != nil {
			logg.Error(ctx, "failed to seed catalog", err)
			os.Exit(1)
		}
		methods, err := deliveryService.SeedDefaults(ctx)
		if err != nil {
			logg.Error(ctx, "failed to seed delivery methods", err)
			os.Exit(1)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"seeded_products": products,
			"seeded_methods":  methods,
		}), "reference data checked")
	}

	router := routes.NewRouter(
		cfg,
		logg,
		pingers,
		registry,
		idempotencyStore,
		catalogService,
		cartService,
		checkoutService,
		ordersService,
		deliveryService,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      otelhttp.NewHandler(router, "shopfront-api"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.App.Port), "starting api server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if ok {
			logg.Error(ctx, "server failed", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}

// buildDistanceResolver returns nil when no maps key is configured; the
// pricer then charges base prices only.
func buildDistanceResolver(ctx context.Context, cfg *config.Config, logg *logger.Logger) (delivery.DistanceResolver, error) {
	if !cfg.GoogleMaps.Enabled() {
		logg.Warn(ctx, "google maps not configured; delivery is priced without distance")
		return nil, nil
	}

	opts := []maps.Option{maps.WithRegion(cfg.GoogleMaps.Region)}
	if cfg.GoogleMaps.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.GoogleMaps.BaseURL))
	}
	client, err := maps.NewClient(cfg.GoogleMaps.APIKey, opts...)
	if err != nil {
		return nil, err
	}

	origin := maps.LatLng{Latitude: cfg.Store.OriginLat, Longitude: cfg.Store.OriginLng}
	if origin == (maps.LatLng{}) && cfg.Store.OriginAddress != "" {
		place, err := client.Geocode(ctx, cfg.Store.OriginAddress)
		if err != nil {
			return nil, err
		}
		origin = place.Location
	}

	resolver, err := delivery.NewMapsResolver(client, origin)
	if err != nil {
		return nil, err
	}
	return resolver, nil
}
