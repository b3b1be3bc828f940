package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crawlscope/internal/config"
	"github.com/kailas-cloud/crawlscope/internal/db"
	dbRedis "github.com/kailas-cloud/crawlscope/internal/db/redis"
	logpkg "github.com/kailas-cloud/crawlscope/internal/logger"
	"github.com/kailas-cloud/crawlscope/internal/metrics"
	datasetrepo "github.com/kailas-cloud/crawlscope/internal/repository/dataset"
	documentrepo "github.com/kailas-cloud/crawlscope/internal/repository/document"
	sessionrepo "github.com/kailas-cloud/crawlscope/internal/repository/session"
	"github.com/kailas-cloud/crawlscope/internal/repository/termstats"
	chiTransport "github.com/kailas-cloud/crawlscope/internal/transport/chi"
	healthuc "github.com/kailas-cloud/crawlscope/internal/usecase/health"
	projectionuc "github.com/kailas-cloud/crawlscope/internal/usecase/projection"
	sessionuc "github.com/kailas-cloud/crawlscope/internal/usecase/session"
	summaryuc "github.com/kailas-cloud/crawlscope/internal/usecase/summary"
	tagginguc "github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
	"github.com/kailas-cloud/crawlscope/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting crawlscope API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("key_prefix", cfg.Storage.KeyPrefix),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register crawl metrics explicitly (no init())
	metrics.RegisterCrawlMetrics()

	ks := db.NewKeyspace(cfg.Storage.KeyPrefix)

	// Repositories
	docRepo := documentrepo.New(store, ks).
		WithTimeouts(ms(cfg.Gateway.ReadTimeoutMs), ms(cfg.Gateway.WriteTimeoutMs)).
		WithRetries(cfg.Gateway.ReadRetries, ms(cfg.Gateway.RetryBaseMs)).
		WithPageSize(cfg.Gateway.PageSize)
	datasetRepo := datasetrepo.New(store, ks)
	sessionRepo := sessionrepo.New(store, ks, time.Duration(cfg.Session.TTLSec)*time.Second)
	stats := termstats.New(docRepo).WithMaxFeatures(cfg.Ranking.MaxFeatures)

	// Use cases
	tagSvc := tagginguc.New(docRepo)
	summarySvc := summaryuc.New(docRepo)
	projectionSvc := projectionuc.New(stats)
	sessionSvc := sessionuc.New(
		sessionRepo, datasetRepo, docRepo, stats, projectionSvc, tagSvc, summarySvc,
	).WithLimits(sessionuc.Limits{
		DefaultPageCap:  cfg.Session.DefaultPageCap,
		MaxPageCap:      cfg.Session.MaxPageCap,
		DefaultMaxTerms: cfg.Ranking.DefaultMaxTerms,
		ContextSnippets: cfg.Ranking.ContextSnippets,
	})
	healthSvc := healthuc.New(store, store)

	server := chiTransport.NewServer(sessionSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger carries request and session ids into use cases
			reqLogger := logger.With(zap.String("request_id", requestID))
			if sid := r.Header.Get(chiTransport.SessionHeader); sid != "" {
				reqLogger = reqLogger.With(zap.String("session_id", sid))
			}
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
