package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boutique-be/internal/admin"
	"boutique-be/internal/api"
	"boutique-be/internal/config"
	"boutique-be/internal/db"
	"boutique-be/internal/inventory"
	"boutique-be/internal/logger"
	"boutique-be/internal/metrics"
	"boutique-be/internal/middleware"
	"boutique-be/internal/order"
	"boutique-be/internal/payment"
	"boutique-be/internal/payment/webhook"
	"boutique-be/internal/pricing"
	"boutique-be/internal/product"
	"boutique-be/internal/reconciliation"
	"boutique-be/internal/user"

	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	limiter := middleware.NewRateLimiter()
	go limiter.Run(ctx)

	handler := setupRouter(newServer(cfg, database), cfg, limiter)

	logger.L().Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, ":"+cfg.AppPort, handler)
}

// newServer wires repositories and services into the API handler.
func newServer(cfg *config.Config, database *sql.DB) *api.Handler {
	m := metrics.NewCheckout()

	cache := product.NewNoopCache()
	if cfg.RedisURL != "" {
		client, err := product.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.L().Warn("redis unavailable, product cache disabled", zap.Error(err))
		} else {
			cache = product.NewRedisCache(client)
		}
	}

	invRepo := inventory.NewRepository(database)
	paymentRepo := payment.NewRepository(database)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	userSvc := user.NewService(user.NewRepository(database))
	invSvc := inventory.NewService(invRepo)
	productSvc := product.NewService(product.NewRepository(database), invRepo, cache)
	reconSvc := reconciliation.NewService(reconciliation.NewRepository(database), paymentRepo, gateway, m)

	orderSvc := order.NewService(order.Deps{
		Repo:     order.NewRepository(database, invRepo, paymentRepo),
		Catalog:  productSvc,
		Stock:    invRepo,
		Payments: paymentRepo,
		Gateway:  gateway,
		Calculator: pricing.NewCalculator(pricing.Config{
			Standard: pricing.FlatRate{Fee: cfg.StandardShippingFee},
			Express:  pricing.FlatRate{Fee: cfg.ExpressShippingFee},
			Free:     pricing.FreeShipping{ThresholdSubtotal: cfg.FreeShippingThreshold},
			TaxRate:  cfg.TaxRate,
		}),
		Reconciler: reconSvc,
		Metrics:    m,
		Currency:   cfg.Currency,
	})

	return &api.Handler{
		Users:          userSvc,
		Products:       productSvc,
		Inventory:      invSvc,
		Orders:         orderSvc,
		Reconciliation: reconSvc,
		Admin:          admin.NewService(userSvc, productSvc, orderSvc, invSvc, m),
		Webhook:        webhook.NewWebhookHandler(gateway, paymentRepo).StripeWebhookHandler,
		ReconcileAfter: cfg.ReconcileAfter,
		SecureCookies:  cfg.AppEnv == "production",
	}
}

// setupRouter applies the middleware chain. The request id comes first so
// every later log line carries it.
func setupRouter(h *api.Handler, cfg *config.Config, limiter *middleware.RateLimiter) http.Handler {
	var handler http.Handler = h.Routes()
	handler = limiter.Middleware(handler)
	handler = middleware.AuthMiddleware(handler)
	handler = middleware.CORS(cfg.CORSOrigin)(handler)
	handler = logger.LoggingMiddleware(handler)
	return logger.RequestIDMiddleware(handler)
}

func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
