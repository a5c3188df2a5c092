// Package bot implements startup orchestration for the GroupMe bot: the
// lifecycle state machine that brings the bot from unregistered to serving,
// the background scheduler, and the run loop tying the HTTP surface and the
// command-file watcher together.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Bot runs the serving components after setup has resolved the identity.
type Bot struct {
	logger    *slog.Logger
	server    *http.Server
	scheduler *Scheduler
}

// New creates the bot run loop around the HTTP handler (callback endpoint
// plus optional admin routes) and the background scheduler.
func New(logger *slog.Logger, addr string, handler http.Handler, scheduler *Scheduler) *Bot {
	return &Bot{
		logger: logger.With("component", "bot_orchestrator"),
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		scheduler: scheduler,
	}
}

// Run starts the HTTP server and the scheduler and blocks until the context
// is cancelled or a component fails. Shutdown is graceful: the server stops
// accepting, in-flight requests drain, and the scheduler waits for its
// running task.
func (b *Bot) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting callback server", "addr", b.server.Addr)
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping callback server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return b.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")
		return b.scheduler.Stop()
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot stopped gracefully.")
	return nil
}
