// Package main is the entry point for the otpgate authentication server.
// It loads configuration, wires the user store and authentication service,
// sets up routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otpgate/internal/audit"
	"otpgate/internal/auth"
	"otpgate/internal/config"
	"otpgate/internal/fsutil"
	"otpgate/internal/handlers"
	"otpgate/internal/otp"
	"otpgate/internal/password"
	"otpgate/internal/router"
	"otpgate/internal/store"
)

func main() {
	// Structured logger for the whole process.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"data_dir", cfg.DataDir,
		"admins", len(cfg.AdminEmails),
	)

	if err := fsutil.EnsureDir(cfg.DataDir); err != nil {
		slog.Error("failed to prepare data directory", "error", err)
		os.Exit(1)
	}

	// The user store owns the cached document for the process lifetime.
	// It is passed by handle, never reached through globals.
	userStore := store.NewUserStore(cfg.DataDir)
	if _, err := userStore.Read(); err != nil {
		// Corruption is surfaced, never masked as an empty store. Recovery
		// means restoring the document or explicitly re-initializing it.
		slog.Error("user store unreadable", "path", userStore.Path(), "error", err)
		os.Exit(1)
	}

	auditLog := audit.NewFileLog(cfg.DataDir)

	service := auth.NewService(
		userStore,
		password.NewHasher(cfg.BcryptCost),
		otp.NewProvider(cfg.TOTPIssuer),
		auditLog,
		cfg.AdminEmails,
	)

	authHandlers := handlers.NewAuth(service)
	adminHandlers := handlers.NewAdmin(service, auditLog)

	r := router.New(authHandlers, adminHandlers, router.Options{
		SharedKey:     cfg.SharedKey,
		CORSOrigin:    cfg.CORSOrigin,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	// Bcrypt is deliberately slow; keep the write timeout generous enough
	// for hashing under load.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
