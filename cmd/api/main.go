package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-pricing/internal/app"
	"github.com/noah-isme/toko-pricing/internal/auth"
	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/checkout"
	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/config"
	"github.com/noah-isme/toko-pricing/internal/events"
	"github.com/noah-isme/toko-pricing/internal/fixtures"
	"github.com/noah-isme/toko-pricing/internal/health"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/order"
	"github.com/noah-isme/toko-pricing/internal/promo"
	"github.com/noah-isme/toko-pricing/internal/queue"
	"github.com/noah-isme/toko-pricing/internal/ratelimit"
	"github.com/noah-isme/toko-pricing/internal/resilience"
	"github.com/noah-isme/toko-pricing/internal/security"
)

const serviceName = "pricing-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	if cfg.Obs.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   serviceName,
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	deps, err := app.Open(startCtx, cfg, serviceName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()
	if cfg.SeedFixtures {
		if err := fixtures.Seed(startCtx, deps.Queries, logger); err != nil {
			logger.Fatal().Err(err).Msg("seed fixtures")
		}
	}
	cancel()

	queries := deps.Queries
	redisOpt, err := queue.RedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("queue redis options")
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	tasks := queue.NewClient(asynqClient)

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		ClockSkew: cfg.JWTClockSkew,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("jwt verifier")
	}
	authMiddleware := auth.Middleware{Verifier: verifier, Logger: logger}

	validate := app.NewValidator()
	catalogCache := catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL)
	catalogCache.Breaker = resilience.NewBreaker("catalog-cache", cfg.CacheBreakerMinRequests, 0.5, cfg.CacheBreakerOpenFor)
	catalogCache.Breaker.Logger = logger
	catalogReader := &catalog.Reader{Q: queries, Cache: catalogCache, Logger: logger}
	if cfg.SeedFixtures {
		if err := fixtures.Evict(context.Background(), catalogReader); err != nil {
			logger.Warn().Err(err).Msg("evict seeded catalog entries")
		}
	}
	promoSvc := &promo.Service{Q: queries}
	instruments, err := checkout.NewInstruments(app.Meter("github.com/noah-isme/toko-pricing/internal/checkout"))
	if err != nil {
		logger.Fatal().Err(err).Msg("checkout instruments")
	}
	coordinator := &checkout.Coordinator{
		DB:      deps.DB,
		Catalog: catalogReader,
		Promos:  promoSvc,
		Events:  &events.Bus{Store: queries, Notifiers: []events.Notifier{tasks}, Logger: logger},
		Metrics: instruments,
		Logger:  logger,
	}

	checkoutHandler := &checkout.Handler{Svc: coordinator, Validate: validate}
	orderHandler := &order.Handler{Q: queries}
	promoAdmin := &promo.AdminHandler{Q: queries, Service: promoSvc, Audits: tasks, Validate: validate}
	catalogAdmin := &catalog.AdminHandler{Reader: catalogReader, W: queries, Validate: validate}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	limiterStore, err := app.NewLimiterStore(deps.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("rate limiter store")
	}
	quoteLimiter, err := ratelimit.New(limiterStore, cfg.QuoteRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("quote rate limit")
	}
	quoteLimit := ratelimit.Handler{
		Limiter: quoteLimiter,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.SpanDecorator)
	if cfg.Obs.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets)
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, nil)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{HSTSMaxAge: cfg.HSTSMaxAge, HSTSIncludeSubdomains: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	healthHandler := health.Handler{
		Probes: map[string]health.Probe{
			"postgres": deps.DB.Ping,
			"redis":    func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		},
		Timeout: cfg.Obs.ReadyTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(authMiddleware.Authenticate)

		v.With(quoteLimit.Middleware).Post("/checkout/quote", checkoutHandler.Quote)
		v.With(authMiddleware.RequireAuth, idem.Middleware).Post("/checkout", checkoutHandler.Checkout)
		v.With(authMiddleware.RequireAuth).Get("/orders/{orderId}", orderHandler.Get)

		v.Route("/admin/promos", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(auth.RequireRole("admin"))
			admin.Post("/", promoAdmin.Create)
			admin.Get("/", promoAdmin.List)
			admin.Post("/preview", promoAdmin.Preview)
			admin.Post("/audit", promoAdmin.RequestAudit)
			admin.Put("/{code}", promoAdmin.Update)
			admin.Get("/{code}/usages", promoAdmin.Usages)
		})
		v.With(authMiddleware.RequireAuth, auth.RequireRole("admin")).
			Put("/admin/products/{productId}/price", catalogAdmin.SetPrice)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           otelhttp.NewHandler(r, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
	}

	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
