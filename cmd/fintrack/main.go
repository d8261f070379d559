package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/seed"
	"fintrack/internal/store"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		applog.New(applog.DefaultConfig()).Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	st := store.New(cfg.SaveLatency, apphttp.ContextNotifier())

	switch cfg.SeedMode {
	case "demo":
		txs, budgets := seed.Demo(time.Now())
		st.Seed(txs, budgets)
		logger.Info("Seeded demo data", applog.FieldSeedMode, cfg.SeedMode, applog.FieldCount, len(txs))
	case "random":
		txs, budgets := seed.Random(time.Now(), cfg.SeedCount)
		st.Seed(txs, budgets)
		logger.Info("Seeded random data", applog.FieldSeedMode, cfg.SeedMode, applog.FieldCount, len(txs))
	default:
		logger.Info("Starting with empty collections", applog.FieldSeedMode, cfg.SeedMode)
	}

	srv := apphttp.NewServer(st, apphttp.Options{
		Addr:         ":" + cfg.Port,
		CacheTTL:     cfg.CacheTTL,
		CacheSize:    cfg.CacheSize,
		RateLimitRPM: cfg.RateLimitRPM,
		Logger:       logger.WithComponent(applog.ComponentHTTP),
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "save_latency", cfg.SaveLatency.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
