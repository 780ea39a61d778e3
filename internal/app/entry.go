package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tennisfel/compendium/internal/api"
	"github.com/tennisfel/compendium/internal/apperr"
	"github.com/tennisfel/compendium/internal/convert"
	"github.com/tennisfel/compendium/internal/index"
	"github.com/tennisfel/compendium/internal/sse"
	"github.com/tennisfel/compendium/internal/watch"
)

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Serve runs the preview server until ctx is cancelled. The index must exist,
// which means convert has to have run at least once with indexing enabled.
// With the watch option enabled, changes to the export re-run the pipeline
// and notify connected clients over SSE.
func Serve(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...Option) error {
	o := applyOptions(opts)

	if cfg.Index.Path == "" {
		return errors.New("app: serve requires an index path")
	}
	if _, err := os.Stat(cfg.Index.Path); err != nil {
		return fmt.Errorf("app: index not found at %s, run convert first: %w", cfg.Index.Path, apperr.ErrNotBuilt)
	}
	repo, err := index.Open(cfg.Index.Path)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	broker := sse.NewBroker()
	defer broker.Close()

	server := api.NewServer(repo, broker, cfg.Output.Dir, logger)
	httpServer := &http.Server{
		Handler:           server.Router(cfg.Auth.Token),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener := o.listener
	if listener == nil {
		listener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.App.HTTP.Port))
		if err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
	}
	logger.Info("preview server listening", slog.String("addr", listener.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if o.watch {
		// Rebuilds run on the group context so an in-flight conversion is
		// cancelled on shutdown.
		rebuild := func() {
			rep, err := convert.Run(ctx, cfg.ConvertOptions(), logger)
			if err != nil {
				logger.Error("rebuild failed", slog.String("error", err.Error()))
				broker.Publish(sse.Event{Type: "error", Data: err.Error()})
				return
			}
			rep.LogSummary(logger)
			broker.Publish(sse.Event{Type: "rebuild", Data: map[string]int{
				"journal_entries": rep.JournalEntries,
				"scenes":          rep.Scenes,
			}})
		}
		watcher, err := watch.New([]string{cfg.Export.Path}, rebuild, logger)
		if err != nil {
			return fmt.Errorf("app: watch: %w", err)
		}
		g.Go(func() error {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("app: watch: %w", err)
			}
			return nil
		})
		logger.Info("watching export for changes", slog.String("path", cfg.Export.Path))
	}

	return g.Wait()
}
