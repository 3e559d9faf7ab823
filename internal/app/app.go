// Package app wires configuration, storage, domain services and the HTTP
// server into a running checkout API.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/quimera-dev/checkout-api/internal/domain/cart"
	"github.com/quimera-dev/checkout-api/internal/domain/checkout"
	"github.com/quimera-dev/checkout-api/internal/domain/coupon"
	"github.com/quimera-dev/checkout-api/internal/domain/promotion"
	"github.com/quimera-dev/checkout-api/internal/domain/shipping"
	"github.com/quimera-dev/checkout-api/internal/handler"
	"github.com/quimera-dev/checkout-api/internal/repository"
	"github.com/quimera-dev/checkout-api/pkg/health"
	"github.com/quimera-dev/checkout-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	promotionRepo := repository.NewPromotionRepository(pool)
	shippingRepo := repository.NewShippingRepository(pool)
	facilityRepo := repository.NewFacilityRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	// Domain services.
	cartSvc := cart.NewService(cartRepo, productRepo)
	couponSvc := coupon.NewService(couponRepo)
	if filter, err := buildCouponFilter(ctx, couponRepo); err != nil {
		lg.Warn("Skipping coupon code filter", zap.Error(err))
	} else if filter != nil {
		couponSvc.UseCodeFilter(filter)
	}
	checkoutSvc := checkout.NewService(
		cartRepo,
		productRepo,
		paymentRepo,
		facilityRepo,
		promotion.NewEngine(promotionRepo),
		shipping.NewService(shippingRepo),
		couponSvc,
		orderRepo,
	)

	// HTTP routes.
	router := handler.NewRouter(handler.Deps{
		Carts:       cartSvc,
		Checkout:    checkoutSvc,
		Products:    productRepo,
		Coupons:     couponRepo,
		CouponCodes: couponSvc,
		Facilities:  facilityRepo,
	})

	// Mux: health endpoints + traced API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/v1/", otelhttp.NewHandler(router, "checkout-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildCouponFilter preloads every known coupon code into a bloom filter
// used to short-circuit lookups of obviously unknown codes. Returns nil
// when there are no coupons yet.
func buildCouponFilter(ctx context.Context, repo coupon.Repository) (*bloom.BloomFilter, error) {
	coupons, err := repo.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "preload coupon codes")
	}
	if len(coupons) == 0 {
		return nil, nil
	}

	capacity := uint(len(coupons))
	if capacity < 10_000 {
		capacity = 10_000
	}
	filter := bloom.NewWithEstimates(capacity, 0.001)
	for _, c := range coupons {
		filter.AddString(strings.ToUpper(c.Code))
	}
	return filter, nil
}
