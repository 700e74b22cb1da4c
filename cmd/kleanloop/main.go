// Package main запускает HTTP-сервер маркетплейса вторсырья KleanLoop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/kleanloop/internal/classifier"
	"github.com/mmeshcher/kleanloop/internal/config"
	"github.com/mmeshcher/kleanloop/internal/handler"
	"github.com/mmeshcher/kleanloop/internal/logging"
	"github.com/mmeshcher/kleanloop/internal/middleware"
	"github.com/mmeshcher/kleanloop/internal/repository"
	"github.com/mmeshcher/kleanloop/internal/service"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("application terminated with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("database initialization: %w", err)
	}

	var cls classifier.Classifier
	if cfg.ClassifierAddress != "" {
		cls = classifier.NewHTTPClient(cfg.ClassifierAddress)
		logger.Info("using remote plastic classifier", zap.String("addr", cfg.ClassifierAddress))
	} else {
		cls = classifier.NewRandom(nil)
		logger.Warn("classifier address is not set, using random mock")
	}

	svc := service.NewService(repo, cls, logger.Named("service"))
	defer svc.Close()

	if cfg.AuthSecret == "" {
		logger.Warn("auth secret is not set, sessions will not survive restart")
	}
	if cfg.AdminSecret == "" {
		logger.Warn("admin secret is not set, admin API is disabled")
	}

	h := handler.NewHandler(svc, logger.Named("http"),
		middleware.NewAuthMiddleware(cfg.AuthSecret),
		middleware.NewAdminMiddleware(cfg.AdminSecret),
	)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting kleanloop server", zap.String("addr", cfg.RunAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
