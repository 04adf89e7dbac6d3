// Package server boots the application's infrastructure and runs the HTTP
// server until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/orderdesk/app/jobs"
	"github.com/shashiranjanraj/orderdesk/app/listeners"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/config"
	"github.com/shashiranjanraj/orderdesk/internal/kernel"
	"github.com/shashiranjanraj/orderdesk/pkg/cache"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/logger"
	"github.com/shashiranjanraj/orderdesk/pkg/queue"
	"github.com/shashiranjanraj/orderdesk/pkg/schedule"
	"github.com/shashiranjanraj/orderdesk/pkg/storage"
	"github.com/shashiranjanraj/orderdesk/pkg/ws"
)

const shutdownTimeout = 15 * time.Second

// Boot loads config and connects the database, the optional Redis cache,
// the storage disks and the queue driver. Every command that touches data
// calls it first.
func Boot(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("server: config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return err
	}

	if err := cache.Connect(ctx); err != nil {
		logger.Warn("redis unavailable, running without cache", "error", err)
	}
	storage.Connect(ctx)

	queue.UseDB(database.DB)
	if config.QueueDriver() == "redis" {
		if !cache.Available() {
			return errors.New("server: QUEUE_DRIVER=redis needs a reachable redis")
		}
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}
	jobs.Register()
	return nil
}

// Start boots the application, serves HTTP on APP_PORT and shuts down
// gracefully when ctx is done.
func Start(ctx context.Context) error {
	if err := Boot(ctx); err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := ws.NewHub()
	go feed.Run(ctx)
	listeners.Register(services.NewStatsService(), feed)

	k, err := kernel.NewHTTPKernel(feed)
	if err != nil {
		return err
	}

	// with the redis driver QUEUE_WORKERS=0 leaves jobs to queue:work;
	// the memory driver only reaches workers in this process.
	var workers *sync.WaitGroup
	n := config.Int("QUEUE_WORKERS", 2)
	if n < 1 && config.QueueDriver() != "redis" {
		n = 1
	}
	if n > 0 {
		workers = queue.StartWorkers(ctx, n)
	}

	sched := schedule.New()
	sched.Every(time.Minute).Name("rate-limiter-cleanup").Run(func(context.Context) error {
		k.Limiter().Cleanup(10 * time.Minute)
		return nil
	})
	sched.Cron("0 3 * * *").Name("exports-prune").WithoutOverlapping().Run(func(ctx context.Context) error {
		_, err := jobs.PruneExports(ctx, storage.Default(), config.Duration("EXPORT_RETENTION", 7*24*time.Hour))
		return err
	})
	sched.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("orderdesk listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	err = srv.Shutdown(shutdownCtx)

	cancel()
	sched.Wait()
	if workers != nil {
		workers.Wait()
	}
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
