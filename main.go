package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"soundprint-mockup/app"
	"soundprint-mockup/config"
	"soundprint-mockup/logger"
	"soundprint-mockup/observability"
)

func main() {
	// Load .env file in development (ignores error if file doesn't exist)
	// In production, variables should be set directly
	if os.Getenv("ENV") != "production" {
		// Use Overload to ensure .env values override system environment variables
		envPath := ".env"
		if err := godotenv.Overload(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, using system environment variables", envPath)
		} else {
			log.Printf("Successfully loaded environment variables from %s (overriding system variables)", envPath)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing := observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		Environment: cfg.Env,
		Version:     cfg.ServiceVersion,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampleRatio,
	}
	shutdownTracing := observability.InitTracing(ctx, appLog, tracing)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			appLog.Warn("⚠️ Failed to flush traces", "error", err)
		}
	}()

	// Initialize application
	application, err := app.Initialize(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("❌ Failed to initialize application", "error", err)
	}
	defer application.Close()

	// Listen on 0.0.0.0 to accept connections from all interfaces (required for Docker)
	addr := "0.0.0.0:" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.HTTPHandler(http.DefaultServeMux, tracing),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Warn("⚠️ Graceful shutdown failed", "error", err)
		}
	}()

	appLog.Info("🚀 Server starting", "addr", addr, "templateSource", cfg.TemplateSource, "storage", cfg.StorageBackend)
	appLog.Info("Generate endpoint", "url", "POST http://localhost:"+cfg.Port+"/mockups/generate")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Fatal("❌ Server failed to start", "error", err)
	}
	appLog.Info("👋 Server stopped")
}
