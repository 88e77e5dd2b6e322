package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/glamflow/libs/config"
	"github.com/md-rashed-zaman/glamflow/libs/httpx"
	otelx "github.com/md-rashed-zaman/glamflow/libs/otel"
	"github.com/md-rashed-zaman/glamflow/libs/runtime"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/booking"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/concierge"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/handlers"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/health"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/live"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/lookup"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/mirror"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/portal"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/site"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = config.LoadDotEnv(".env")

	service := config.String("SERVICE_NAME", "salon-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9095")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc, err := time.LoadLocation(config.String("SALON_TIMEZONE", "Asia/Manila"))
	if err != nil {
		panic(err)
	}
	defaults, err := site.Load(config.String("SITE_DEFAULTS_FILE", ""))
	if err != nil {
		panic(err)
	}

	g, gctx := errgroup.WithContext(ctx)

	backend, err := openBackend(gctx, g, logger, defaults.Settings)
	if err != nil {
		logger.Error("record store setup failed", "err", err)
		panic(err)
	}
	defer backend.close()

	if err := backend.seeder.SeedCatalog(gctx, defaults.Services, defaults.Staff); err != nil {
		logger.Warn("catalogue seeding failed; serving built-in defaults", "err", err)
	}

	metrics.Register()
	m := mirror.New(defaults, logger, func(resource recordstore.Resource, outcome mirror.Outcome) {
		metrics.IncPush(string(resource), string(outcome))
	})
	g.Go(func() error {
		err := m.Run(gctx, backend.store)
		if errors.Is(err, mirror.ErrDisconnected) {
			logger.Error("all record store subscriptions ended", "err", err)
		}
		return err
	})
	g.Go(func() error {
		changes, release := m.Subscribe()
		defer release()
		metrics.SetConnected(m.Connected())
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changes:
				metrics.SetConnected(m.Connected())
			}
		}
	})

	bookings := booking.NewService(backend.store, m, logger, booking.Config{
		WriteTimeout: config.Seconds("WRITE_TIMEOUT_SECONDS", 10*time.Second),
		MaxAttempts:  config.Int("WRITE_MAX_ATTEMPTS", 3),
		Location:     loc,
	})
	resolver := lookup.NewResolver(m, backend.store, config.Seconds("LOOKUP_TIMEOUT_SECONDS", 5*time.Second))
	genTimeout := config.Seconds("GENAI_TIMEOUT_SECONDS", 8*time.Second)
	apiKey := config.String("GENAI_API_KEY", "")
	if apiKey == "" {
		logger.Warn("GENAI_API_KEY not set; concierge will use canned replies")
	}
	gen := concierge.NewGeminiClient(concierge.GeminiConfig{
		Endpoint: config.String("GENAI_ENDPOINT", concierge.DefaultEndpoint),
		APIKey:   apiKey,
		Model:    config.String("GENAI_MODEL", "gemini-2.0-flash"),
		Timeout:  genTimeout,
	})
	helper := concierge.New(gen, logger, genTimeout, func(kind concierge.Kind) {
		metrics.IncFallback(string(kind))
	})

	jwtSecret := config.String("JWT_SECRET", "dev-secret")
	clientPortal := portal.New(backend.store, m, portal.Config{
		Secret:   jwtSecret,
		TokenTTL: config.Seconds("CLIENT_TOKEN_TTL_SECONDS", 24*time.Hour),
		Location: loc,
	})

	hub := live.NewHub(m, logger, metrics.AddViewers)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	rateLimit, closeLimiter := rateLimiter(logger)
	defer closeLimiter()

	checks := append(backend.checks, runtime.ReadyCheck{Name: "sync", Check: m.ReadyCheck})
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", metrics.Handler())
	handlers.Register(mux, handlers.Routes{
		Public: handlers.NewPublicHandler(m, bookings, resolver, helper, logger),
		Portal: handlers.NewPortalHandler(clientPortal, bookings, logger),
		Admin:  handlers.NewAdminHandler(m, bookings, backend.store, logger, loc),
		Live:   hub,
		Secret: jwtSecret,
		Limit:  rateLimit,
	})

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods: config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,OPTIONS"),
			AllowedHeaders: config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			ExposedHeaders: []string{"Retry-After", "X-RateLimit-Remaining", httpx.RequestIDHeader},
			MaxAge:         config.Seconds("CORS_MAX_AGE_SECONDS", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 8<<20))),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "salon")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
		logger.Info("http server stopped")
		return nil
	})

	grpcSrv := health.NewServer(logger)
	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		panic(err)
	}
	g.Go(func() error {
		grpcSrv.Track(gctx, m)
		return nil
	})
	g.Go(func() error {
		return grpcSrv.Serve(gctx, lis)
	})

	if err := g.Wait(); err != nil {
		logger.Error("salon service stopped with error", "err", err)
	}
}
