package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"billed/internal/auth"
	"billed/internal/backend"
	"billed/internal/cli"
	"billed/internal/config"
	apphttp "billed/internal/http"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/middleware/ratelimit"
	"billed/internal/session"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	m := metrics.New()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	backendCfg.BillsCreated = m.BillsCreated
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	secret, err := cli.SessionSecret(logger, cfg)
	if err != nil {
		logger.Error("Failed to prepare sessions", log.FieldError, err)
		os.Exit(1)
	}
	sessions, err := session.NewManager(secret, cfg.SessionTTL, cfg.SessionSecure)
	if err != nil {
		logger.Error("Failed to prepare sessions", log.FieldError, err)
		os.Exit(1)
	}

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerMinute = cfg.RateLimit

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Bills:          res.Bills,
		Auth:           auth.NewPasswordAuthenticator(res.Users),
		Sessions:       sessions,
		Logger:         logger,
		Metrics:        m,
		RateLimit:      rl,
		UploadMaxBytes: cfg.UploadMaxBytes,
		ImageSrc:       res.ImageSrc,
		Ready:          res.Ready,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting billed server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
