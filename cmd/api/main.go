// Package main is the entry point for the feed API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/croftwell/adaptivefeed/internal/api"
	"github.com/croftwell/adaptivefeed/internal/config"
	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/db"
	"github.com/croftwell/adaptivefeed/internal/health"
	"github.com/croftwell/adaptivefeed/internal/live"
	"github.com/croftwell/adaptivefeed/internal/middleware"
	"github.com/croftwell/adaptivefeed/internal/profile"
	"github.com/croftwell/adaptivefeed/internal/ranking"
	"github.com/croftwell/adaptivefeed/internal/stats"
	"github.com/croftwell/adaptivefeed/internal/tracing"
	"github.com/croftwell/adaptivefeed/internal/trending"
)

const serviceName = "adaptivefeed-api"

// cacheInvalidator adapts the candidate cache to the trending job's
// invalidation hook.
type cacheInvalidator struct {
	cache *content.Cache
}

func (c cacheInvalidator) Invalidate(ctx context.Context) error {
	c.cache.Invalidate(ctx)
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Adaptivefeed API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	samplingRate := 1.0
	if cfg.IsProduction() {
		samplingRate = 0.1
	}
	traceProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: samplingRate,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := traceProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	// Database
	dbConn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	// Redis is optional; without it the server degrades to in-memory
	// candidate reads and rate limiting.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Warn("REDIS_ADDR not set, running without candidate cache")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	rankMetrics := ranking.NewMetrics()
	trendMetrics := trending.NewMetrics()
	for _, register := range []func(prometheus.Registerer) error{
		httpMetrics.Register, rankMetrics.Register, trendMetrics.Register,
	} {
		if err := register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	// Storage and ranking
	contentRepo := content.NewPostgresRepository(dbConn)
	profileStore := profile.NewPostgresStore(dbConn)
	candidateCache := content.NewCache(redisClient, contentRepo,
		time.Duration(cfg.CandidateCacheTTLSeconds)*time.Second, logger)
	recorder := stats.NewRecorder()

	weights := ranking.DefaultWeights()
	if cfg.CalibrationPath != "" {
		weights, err = ranking.LoadCalibration(cfg.CalibrationPath)
		if err != nil {
			logger.Error("failed to load ranking calibration", "path", cfg.CalibrationPath, "error", err)
			os.Exit(1)
		}
	}

	if !cfg.SerendipityEnabled {
		logger.Info("serendipity factor disabled by feature flag")
		weights.Serendipity = 0
	}

	location := time.Local
	if cfg.BusinessHoursTZ != "" {
		location, err = time.LoadLocation(cfg.BusinessHoursTZ)
		if err != nil {
			logger.Error("invalid business hours timezone", "tz", cfg.BusinessHoursTZ, "error", err)
			os.Exit(1)
		}
	}

	ranker := ranking.NewRanker(ranking.RankerConfig{
		Weights:  weights,
		Location: location,
		Metrics:  rankMetrics,
	})

	// Live feed events and trending recompute
	broadcaster := live.NewBroadcaster()
	trendingJob := trending.NewJob(trending.JobConfig{
		Config: trending.Config{
			Interval:        time.Duration(cfg.TrendingIntervalSeconds) * time.Second,
			ScoreThreshold:  cfg.TrendingThreshold,
			FreshnessWindow: time.Duration(cfg.TrendingFreshnessDays) * 24 * time.Hour,
		},
		Logger:      logger,
		Metrics:     trendMetrics,
		Invalidator: cacheInvalidator{cache: candidateCache},
		Notifier:    broadcaster,
	}, recorder, contentRepo)
	if err := trendingJob.Start(ctx); err != nil {
		logger.Error("failed to start trending job", "error", err)
		os.Exit(1)
	}
	defer trendingJob.Stop()

	// Handlers
	feedHandlers := api.NewFeedHandlers(candidateCache, profileStore, ranker, logger)
	interactionHandlers := api.NewInteractionHandlers(profileStore, recorder, logger)
	itemHandlers := api.NewItemHandlers(contentRepo, logger)
	profileHandlers := api.NewProfileHandlers(profileStore, logger)
	liveHandlers := api.NewLiveHandlers(broadcaster, logger)

	healthCfg := api.HealthHandlersConfig{
		Database: health.NewDBChecker(dbConn),
		Logger:   logger,
	}
	if redisClient != nil {
		healthCfg.Redis = health.NewRedisChecker(redisClient)
	}
	healthHandlers := api.NewHealthHandlers(healthCfg)

	// Rate limiting
	var rateLimitStore middleware.RateLimitStore
	if redisClient != nil {
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(httpMetrics)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					memStore.Cleanup()
				}
			}
		}()
		rateLimitStore = memStore
	}

	globalLimiter := middleware.RateLimiter(rateLimitStore, middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitGlobal,
		WindowDuration:    time.Minute,
	}, middleware.IPKeyFunc())
	feedLimiter := middleware.RateLimiter(rateLimitStore, middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitFeed,
		WindowDuration:    time.Minute,
	}, middleware.IPKeyFunc())
	interactionLimiter := middleware.RateLimiter(rateLimitStore, middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitInteraction,
		WindowDuration:    time.Minute,
	}, middleware.IPKeyFunc())

	// Routes
	mux := http.NewServeMux()
	mux.Handle("GET /feed", feedLimiter(http.HandlerFunc(feedHandlers.GetFeed)))
	mux.Handle("GET /recommendations", feedLimiter(http.HandlerFunc(feedHandlers.GetRecommendations)))
	mux.Handle("POST /interactions", interactionLimiter(http.HandlerFunc(interactionHandlers.PostInteraction)))
	mux.HandleFunc("GET /feed/live", liveHandlers.FeedEvents)
	mux.HandleFunc("GET /items/{slug}", itemHandlers.GetItem)
	mux.HandleFunc("GET /profiles/{user_id}", profileHandlers.GetProfile)
	mux.HandleFunc("GET /health", healthHandlers.Health)
	mux.HandleFunc("GET /ready", healthHandlers.Ready)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"` + serviceName + `","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain, outermost first:
	// RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS -> Profiling -> global rate limit
	var handler http.Handler = mux
	handler = globalLimiter(handler)
	handler = middleware.Profiling(middleware.ProfilingConfig{
		Enabled:     cfg.ProfilingEnabled,
		Environment: cfg.Env,
	})(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing(serviceName)(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
