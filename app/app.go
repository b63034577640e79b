package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/seung7-arch/als-deli-website/internal/cache"
	"github.com/seung7-arch/als-deli-website/internal/cart"
	"github.com/seung7-arch/als-deli-website/internal/config"
	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/handlers"
	"github.com/seung7-arch/als-deli-website/internal/logging"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
	"github.com/seung7-arch/als-deli-website/internal/services"
	"github.com/seung7-arch/als-deli-website/internal/stripe"
)

// cartTTL is how long an abandoned kiosk cart survives in the cache.
const cartTTL = 24 * time.Hour

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			EnableLogs:       true,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	orderStore := db.NewOrderStore(database)
	cartStore := cart.NewStore(cacheProvider, cartTTL)
	pricer := pricing.NewPricer(cfg.TaxRate, cfg.MinimumOrderCents)
	paymentsClient := stripe.NewClient(cfg.StripeSecretKey, cfg.StripeConnectedAccountID, cfg.PlatformFeeCents)

	checkoutService := services.NewCheckoutService(orderStore, paymentsClient, pricer, cfg.BaseURL, logger.With("component", "checkout_service"))
	paymentService := services.NewPaymentService(orderStore, paymentsClient, logger.With("component", "payment_service"))
	statusService := services.NewStatusService(orderStore, paymentsClient, logger.With("component", "status_service"))
	cashierService := services.NewCashierService(orderStore, pricer, logger.With("component", "cashier_service"))
	refundService := services.NewRefundService(orderStore, paymentsClient, logger.With("component", "refund_service"))
	stripeRouter := handlers.NewStripeEventRouter(paymentService, logger.With("component", "stripe_router"))

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		CacheProvider:   cacheProvider,
		CartStore:       cartStore,
		CheckoutService: checkoutService,
		StatusService:   statusService,
		CashierService:  cashierService,
		RefundService:   refundService,
		StripeRouter:    stripeRouter,
		Logger:          logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Config != nil && a.Config.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var base slog.Handler
	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		base = slog.NewJSONHandler(os.Stdout, opts)
	default:
		base = tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel})
	}

	if cfg.SentryDSN == "" {
		return slog.New(base)
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelInfo},
	}.NewSentryHandler(context.Background())
	return slog.New(logging.MultiHandler(base, sentryHandler))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
