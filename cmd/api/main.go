// Package main is the entry point for the MEWS API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mewshq/mews/internal/adminmgmt"
	"github.com/mewshq/mews/internal/analytics"
	"github.com/mewshq/mews/internal/api"
	"github.com/mewshq/mews/internal/audit"
	"github.com/mewshq/mews/internal/auth"
	"github.com/mewshq/mews/internal/config"
	"github.com/mewshq/mews/internal/db"
	"github.com/mewshq/mews/internal/donation"
	"github.com/mewshq/mews/internal/health"
	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/institution"
	"github.com/mewshq/mews/internal/location"
	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/middleware"
	"github.com/mewshq/mews/internal/notify"
	"github.com/mewshq/mews/internal/scope"
	"github.com/mewshq/mews/internal/tracing"
)

const serviceName = "mews-api"

func main() {
	configFile := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("MEWS API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx := context.Background()

	tracer, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// Caching is an optimization; start without it rather than refuse
			logger.Warn("redis unavailable, scope cache disabled", "error", err)
			redisClient = nil
		}
	}

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("metrics registration failed", "error", err)
		os.Exit(1)
	}
	scopeMetrics := scope.NewMetrics()
	if err := scopeMetrics.Register(registry); err != nil {
		logger.Error("scope metrics registration failed", "error", err)
		os.Exit(1)
	}

	locations := location.NewPostgresRepository(conn, logger)
	members := member.NewPostgresRepository(conn)
	admins := identity.NewPostgresRepository(conn, logger)
	institutions := institution.NewPostgresRepository(conn)
	donations := donation.NewPostgresRepository(conn)
	audits := audit.NewPostgresRepository(conn)

	var sets scope.LocationSetResolver = scope.NewNameSetResolver(locations, logger, scopeMetrics)
	if redisClient != nil {
		ttl := time.Duration(cfg.ScopeCacheTTLSeconds) * time.Second
		sets = scope.NewCachedSetResolver(sets, redisClient, ttl, logger, scopeMetrics)
	}
	resolver := scope.NewResolver(locations, sets, logger, scopeMetrics)

	jwtService := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
	analyticsSvc := analytics.NewService(members, institutions, donations, logger)
	txStore := adminmgmt.NewPostgresTxStore(conn)
	mgmtSvc := adminmgmt.NewService(admins, members, locations, resolver, txStore,
		notify.NewLogNotifier(logger), logger)

	healthCfg := api.HealthHandlersConfig{DBChecker: health.NewDBChecker(conn)}
	if redisClient != nil {
		healthCfg.RedisChecker = health.NewRedisChecker(redisClient)
	}

	router := api.NewRouter(api.RouterConfig{
		Health:      api.NewHealthHandlers(healthCfg),
		Auth:        api.NewAuthHandlers(admins, jwtService, audits, logger),
		Dashboard:   api.NewDashboardHandlers(resolver, analyticsSvc, logger),
		Members:     api.NewMemberHandlers(members, resolver, logger),
		Management:  api.NewManagementHandlers(mgmtSvc, audits, logger),
		JWTService:  jwtService,
		AdminLookup: admins,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", router)

	// Middleware chain, outermost first
	handler := middleware.RequestID(
		middleware.Tracing(serviceName)(
			middleware.Logging(logger)(
				middleware.HTTPMetrics(httpMetrics)(
					middleware.CORS(middleware.CORSConfig{
						AllowedOrigins:   cfg.CORSAllowedOrigins,
						AllowCredentials: true,
						MaxAge:           300,
					})(mux)))))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
