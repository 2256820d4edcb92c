package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/config"
	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/server"
	"github.com/Vaishnavi-Hegde17/enginetwin/store"
)

// runServe runs the background poller and the HTTP API until ctx is
// cancelled or either fails.
func runServe(ctx context.Context, t engine.Ticker, o Options) error {
	cfg := o.App
	metrics := engine.NewMetricsStore()
	detector := newDetector(cfg.Alerts)
	if events, err := engine.ReadEventLog(filepath.Join(o.DataDir, "events.jsonl")); err == nil {
		detector.LoadEvents(events)
	}

	opts := server.Options{
		Engine:         t.Base(),
		Metrics:        metrics,
		Detector:       detector,
		Exporter:       newExporter(cfg.Report),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AccessLog:      os.Stderr,
	}
	daemon := engine.DaemonConfig{
		DataDir:  o.DataDir,
		Interval: o.Interval(),
		Ticker:   engine.NewInstrumentedTicker(t, metrics),
		Alerts:   engine.AlertConfig{Webhook: cfg.Alerts.Webhook, Command: cfg.Alerts.Command},
		Detector: detector,
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Store.Enabled {
		path := cfg.Store.Path
		if path == "" {
			path = filepath.Join(o.DataDir, "enginetwin.db")
		}
		st, err := store.Open(path, storeOptions(cfg.Store)...)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		opts.Store = st
		daemon.Sink = st
		slog.Info("store opened", "path", path)
		if days := cfg.Store.RetentionDays; days > 0 {
			g.Go(func() error {
				pruneLoop(ctx, st, time.Duration(days)*24*time.Hour)
				return nil
			})
		}
	}
	if cfg.Server.SimulateBackend {
		opts.Backend = collector.NewSimulator(cfg.Feed.AircraftID, uint64(cfg.Feed.Seed))
	}

	g.Go(func() error {
		return engine.RunDaemon(ctx, daemon)
	})
	g.Go(func() error {
		err := server.New(opts).ListenAndServe(ctx, cfg.Server.Addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	return g.Wait()
}

// newDetector builds an event detector with the configured debounce.
func newDetector(ac config.AlertConfig) *engine.EventDetector {
	d := engine.NewEventDetector()
	if ac.Debounce > 0 {
		d.SetDebounce(ac.Debounce)
	}
	return d
}

// storeOptions maps the store config onto open options; zero values keep
// the store defaults.
func storeOptions(sc config.StoreConfig) []store.Option {
	opts := []store.Option{store.WithMkdirAll()}
	if sc.BusyTimeoutMs > 0 {
		opts = append(opts, store.WithBusyTimeout(sc.BusyTimeoutMs))
	}
	if sc.Synchronous != "" {
		opts = append(opts, store.WithSynchronous(sc.Synchronous))
	}
	return opts
}

// pruneLoop drops stored readings older than retention, hourly.
func pruneLoop(ctx context.Context, st *store.Store, retention time.Duration) {
	tk := time.NewTicker(time.Hour)
	defer tk.Stop()
	for {
		n, err := st.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			slog.Warn("prune store", "error", err)
		} else if n > 0 {
			slog.Info("pruned stored readings", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
		}
	}
}
