package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/horo42/saferpay/infra/config"
	"github.com/horo42/saferpay/infra/logger"
	"github.com/horo42/saferpay/infra/middle"
	"github.com/horo42/saferpay/infra/opensearch"
	"github.com/horo42/saferpay/provider"
	"github.com/horo42/saferpay/router"
	v1 "github.com/horo42/saferpay/router/v1"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine, the environment may be set by the container
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal("failed to load .env", err)
	}

	cfg := config.GetAppConfig()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid application config", err)
	}

	var osLogger *opensearch.Logger
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			logger.Error("failed to initialize OpenSearch client, continuing without it", err)
		} else {
			osLogger = opensearch.NewLogger(osClient)
		}
	}

	if osLogger != nil {
		logger.InitGlobalLogger(osLogger)
	} else {
		logger.InitGlobalLogger(nil)
	}

	providerConfig := config.NewProviderConfig()
	if cfg.ConfigDBPath != "" {
		storage, err := config.NewSQLiteStorage(cfg.ConfigDBPath)
		if err != nil {
			logger.Fatal("failed to open config storage", err)
		}
		defer storage.Close()
		providerConfig = config.NewPersistentProviderConfig(storage)
	}

	// Stored configurations were set through the API and win over the environment
	providerConfig.LoadFromEnv(provider.DefaultRegistry.GetProviderNames()...)
	if n, err := providerConfig.LoadFromStorage(); err != nil {
		logger.Error("failed to load stored provider configs", err)
	} else if n > 0 {
		logger.Info("provider configs loaded from storage", logger.LogContext{Fields: map[string]any{"count": n}})
	}
	for _, name := range providerConfig.GetAvailableProviders() {
		logger.Info("provider configured from environment", logger.LogContext{Provider: name})
	}

	// Gateways build their own HTTP client; the logging transport wraps it
	var transport provider.Transport
	deps := v1.Dependencies{ProviderConfig: providerConfig}
	if osLogger != nil {
		transport = provider.NewLoggingTransport(nil, osLogger, "saferpay")
		deps.LogStore = osLogger
	}
	deps.PaymentService = provider.NewPaymentService(nil, providerConfig, transport, logger.GetGlobalLogger())

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middle.RequestIDMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))

	rateLimiter := middle.NewRateLimiter(config.GetIntEnv("RATE_LIMIT_PER_MINUTE", 100), time.Minute)
	defer rateLimiter.Stop()

	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.IPWhitelistMiddleware(strings.Split(config.GetEnv("IP_WHITELIST", ""), ",")))
	r.Use(middle.RateLimitMiddleware(rateLimiter))
	r.Use(middle.RequestValidationMiddleware("/callback/"))
	r.Use(middle.PaymentLoggingMiddleware(logger.GetGlobalLogger()))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With", middle.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Length", middle.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300, // Preflight cache time (second)
	}))

	router.Routes(r, deps)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", err)
		}
	}()

	logger.Info("API is running", logger.LogContext{Fields: map[string]any{
		"port":        cfg.Port,
		"environment": cfg.Environment,
		"opensearch":  osLogger != nil,
	}})

	<-ctx.Done()

	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}
