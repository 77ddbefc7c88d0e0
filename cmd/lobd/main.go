// lobd observes a single symbol's multi-venue limit order book.
//
// Architecture:
//
//	main.go              — entry point: loads config, wires components, waits for SIGINT/SIGTERM
//	internal/book        — the core: tick-indexed levels, dense-window NBBO cursor, order registry
//	internal/feed         — normalizes venue-aggregator wire messages into book.Event
//	internal/batch        — coalesces events, drives OrderBook.OnBatch, forwards notifications
//	internal/publisher    — fans out notifications over WebSocket, serves a /snapshot status endpoint
//	internal/persist      — periodic crash-safe JSON checkpointing of resting orders
//	internal/ratelimit    — token-bucket pacing for the REST snapshot loader
//
// The book itself holds no locks. Every component reaches it through the
// batch driver: the stream through the driver's event channel, the REST
// snapshot through ApplySync, and the publisher and persistence through
// the driver's accessors, all serialized by the driver's mutex.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lobd/internal/batch"
	"lobd/internal/book"
	"lobd/internal/config"
	"lobd/internal/feed"
	"lobd/internal/persist"
	"lobd/internal/publisher"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("LOB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(newLogHandler(cfg.Logging))

	ob := book.NewOrderBook(cfg.Book.TickSize)

	stream := feed.NewStream(cfg.Feed.StreamURL, cfg.Book.Symbol, cfg.Feed.ReconnectMinWait, cfg.Feed.ReconnectMaxWait, logger)

	// The driver owns every read and write against ob from here on; no
	// other component is allowed to touch ob directly. Its sink is wired
	// in below, once the publisher (which the sink forwards to) exists.
	driver := batch.New(ob, stream.Events(), nil, cfg.Batch.MaxEvents, cfg.Batch.MaxInterval, logger)

	var store *persist.Store
	if cfg.Persist.Enabled {
		store, err = persist.Open(cfg.Persist.DataDir)
		if err != nil {
			logger.Error("failed to open persist store", "error", err)
			os.Exit(1)
		}
		if found, err := store.Load(cfg.Book.Symbol, driver); err != nil {
			logger.Error("failed to load checkpoint", "error", err)
			os.Exit(1)
		} else if found {
			logger.Info("restored book from checkpoint", "symbol", cfg.Book.Symbol)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pub *publisher.Server
	if cfg.Publisher.Enabled {
		pub = publisher.NewServer(cfg.Publisher, cfg.Book.Symbol, driver, logger)
		driver.SetSink(batch.SinkFunc(func(n book.Notification) { publisher.PublishNotification(pub.Hub(), n) }))
		go func() {
			if err := pub.Start(); err != nil {
				logger.Error("publisher server failed", "error", err)
			}
		}()
	}

	if cfg.Feed.SnapshotURL != "" {
		loader := feed.NewSnapshotLoader(cfg.Feed.SnapshotURL, cfg.Feed.SnapshotRPS, cfg.Feed.SnapshotBurst, logger)
		snapCtx, snapCancel := context.WithTimeout(ctx, 30*time.Second)
		events, err := loader.Load(snapCtx, cfg.Book.Symbol)
		snapCancel()
		if err != nil {
			logger.Error("failed to load initial snapshot", "error", err)
		} else if err := driver.ApplySync(events); err != nil {
			logger.Error("failed to apply initial snapshot", "error", err)
		}
	}

	go func() {
		if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("feed stream stopped", "error", err)
		}
	}()

	go func() {
		if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("batch driver stopped", "error", err)
		}
	}()

	if cfg.Persist.Enabled {
		go runCheckpointLoop(ctx, store, cfg.Book.Symbol, driver, cfg.Persist.Interval, logger)
	}

	logger.Info("lobd started", "symbol", cfg.Book.Symbol, "tick_size", cfg.Book.TickSize)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()

	if pub != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pub.Stop(stopCtx); err != nil {
			logger.Error("failed to stop publisher", "error", err)
		}
		stopCancel()
	}

	if cfg.Persist.Enabled {
		if err := store.Save(cfg.Book.Symbol, driver); err != nil {
			logger.Error("failed to save final checkpoint", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func runCheckpointLoop(ctx context.Context, store *persist.Store, symbol string, d *batch.Driver, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Save(symbol, d); err != nil {
				logger.Error("periodic checkpoint failed", "error", err)
			}
		}
	}
}

func newLogHandler(cfg config.LoggingConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
