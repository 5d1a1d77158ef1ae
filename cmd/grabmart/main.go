// Package main запускает HTTP-сервер сервиса грабмарт.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/grabmart-system/internal/config"
	"github.com/mmeshcher/grabmart-system/internal/handler"
	"github.com/mmeshcher/grabmart-system/internal/ipinfo"
	"github.com/mmeshcher/grabmart-system/internal/middleware"
	"github.com/mmeshcher/grabmart-system/internal/repository"
	"github.com/mmeshcher/grabmart-system/internal/service"
	"github.com/mmeshcher/grabmart-system/internal/watch"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var ipClient *ipinfo.Client
	if cfg.IPInfoAddress != "" {
		ipClient = ipinfo.NewClient(cfg.IPInfoAddress)
	}

	svc := service.NewService(repo, ipClient, logger)
	defer svc.Close()

	if err := svc.LoadPolicy(context.Background()); err != nil {
		sugar.Fatalw("policy load error", "error", err.Error())
	}

	watcher := watch.New(repo.Pool(), logger)
	svc.Subscribe(watcher)

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Наблюдатель изменений базы данных для обновления кэша политики
	g.Go(func() error {
		return watcher.Run(ctx)
	})

	// Полуночный сброс дневных счётчиков заказов
	svc.StartDailyReset(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting grabmart server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
