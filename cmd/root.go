package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/config"
	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/report"
	"github.com/Vaishnavi-Hegde17/enginetwin/ui"
)

// Version is set at build time via ldflags.
var Version = "0.4.0"

// Options holds CLI configuration.
type Options struct {
	JSONMode   bool
	Check      bool
	WatchMode  bool
	WatchCount int
	ServeMode  bool
	ExportPath string
	RecordPath string
	ReplayPath string
	DataDir    string
	StorePath  string
	LogJSON    bool

	App config.Config
}

// Interval returns the poll interval.
func (o Options) Interval() time.Duration { return o.App.Interval() }

// ExitCodeError signals a non-zero exit code without calling os.Exit directly.
type ExitCodeError struct{ Code int }

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `enginetwin v%s - engine health telemetry dashboard

Usage:
  enginetwin [OPTIONS] [INTERVAL]

Modes:
  (default)         Interactive TUI (bubbletea, fullscreen)
  -watch            CLI output mode, prints to terminal with auto-refresh
  -json             Single analyzed reading as JSON to stdout, then exit
  -export FILE      Poll, then write the PDF report to FILE and exit
  -serve            HTTP API + background poller (no TUI)
  -version          Print version and exit

Options:
  -interval N       Poll interval in seconds (default: 60)
  -history N        Readings kept per series (default: 40)
  -count N          Iterations for -watch, readings for -export (0 = infinite / 1)
  -check            With -json: exit 1 on WARNING, 2 on CRITICAL
  -feed KIND        Sensor feed: simulate, http, mqtt, kafka
  -url URL          Backend base URL for the http feed
  -seed N           Seed for the simulate feed (0 = random)
  -catalog FILE     YAML parameter range catalog
  -dump-catalog     Print the active range catalog as YAML and exit
  -config FILE      Config file (default: %s)
  -addr ADDR        Listen address for -serve
  -store FILE       SQLite database for readings and events (-serve)
  -datadir PATH     Data directory (default: ~/.enginetwin/)
  -section NAME     Start page for the TUI (overview, trends, ranges, events)
  -record FILE      Record analyzed readings to FILE
  -replay FILE      Replay a recorded file instead of polling a feed
  -log-level LEVEL  debug, info, warn, error
  -log-json         JSON log output

Examples:
  enginetwin                                  TUI over the simulated feed
  enginetwin -feed http -url http://127.0.0.1:5000 10
  enginetwin -watch -count 5 -interval 2
  enginetwin -json -check | jq '.analysis.worst'
  enginetwin -export prediction_report.pdf -count 40
  enginetwin -serve -addr :8080 -store /var/lib/enginetwin/readings.db
  enginetwin -dump-catalog > ranges.yaml      Start a custom catalog
  enginetwin -record flight.jsonl
  enginetwin -replay flight.jsonl
`, Version, config.Path())
}

// Run parses os.Args and starts the application.
func Run() error {
	return run(os.Args[1:], os.Stdout)
}

func run(args []string, stdout io.Writer) error {
	var o Options
	var (
		intervalSec int
		historySize int
		showVersion bool
		dumpCatalog bool
		configPath  string
		catalogPath string
		feedKind    string
		feedURL     string
		seed        int64
		addr        string
		section     string
		logLevel    string
	)

	fs := flag.NewFlagSet("enginetwin", flag.ContinueOnError)
	fs.IntVar(&intervalSec, "interval", 60, "Poll interval in seconds")
	fs.IntVar(&historySize, "history", 40, "Readings kept per series")
	fs.BoolVar(&o.JSONMode, "json", false, "Output a single analyzed reading and exit")
	fs.BoolVar(&o.Check, "check", false, "With -json, exit non-zero on an anomalous reading")
	fs.BoolVar(&o.WatchMode, "watch", false, "CLI output mode (no TUI)")
	fs.IntVar(&o.WatchCount, "count", 0, "Iterations for -watch, readings for -export")
	fs.BoolVar(&o.ServeMode, "serve", false, "Run the HTTP API and background poller")
	fs.StringVar(&o.ExportPath, "export", "", "Write the PDF report to FILE and exit")
	fs.StringVar(&o.RecordPath, "record", "", "Record analyzed readings to FILE")
	fs.StringVar(&o.ReplayPath, "replay", "", "Replay readings from a recorded FILE")
	fs.StringVar(&o.DataDir, "datadir", "", "Data directory (default: ~/.enginetwin/)")
	fs.StringVar(&o.StorePath, "store", "", "SQLite database path")
	fs.BoolVar(&o.LogJSON, "log-json", false, "JSON log output")
	fs.StringVar(&logLevel, "log-level", "", "Log level")
	fs.StringVar(&configPath, "config", "", "Config file")
	fs.StringVar(&catalogPath, "catalog", "", "YAML range catalog")
	fs.StringVar(&feedKind, "feed", "", "Sensor feed kind")
	fs.StringVar(&feedURL, "url", "", "Backend base URL for the http feed")
	fs.Int64Var(&seed, "seed", 0, "Seed for the simulate feed")
	fs.StringVar(&addr, "addr", "", "Listen address for -serve")
	fs.StringVar(&section, "section", "", "TUI start page")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&dumpCatalog, "dump-catalog", false, "Print the active range catalog as YAML and exit")
	fs.Usage = func() { printUsage(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Fprintf(stdout, "enginetwin v%s\n", Version)
		return nil
	}

	// Support positional arg for interval: `enginetwin 5` = `enginetwin -interval 5`
	if rest := fs.Args(); len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil && n > 0 {
			intervalSec = n
			fs.Set("interval", rest[0])
		}
	}

	if configPath == "" {
		configPath = config.Path()
	}
	o.App = config.LoadFile(configPath)

	// Explicit flags override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interval":
			o.App.IntervalSec = intervalSec
		case "history":
			o.App.HistorySize = historySize
		case "catalog":
			o.App.CatalogPath = catalogPath
		case "feed":
			o.App.Feed.Kind = feedKind
		case "url":
			o.App.Feed.URL = feedURL
		case "seed":
			o.App.Feed.Seed = seed
		case "addr":
			o.App.Server.Addr = addr
		case "section":
			o.App.Section = section
		case "log-level":
			o.App.LogLevel = logLevel
		case "store":
			o.App.Store.Enabled = true
			o.App.Store.Path = o.StorePath
		}
	})

	if o.RecordPath != "" && o.ReplayPath != "" {
		return fmt.Errorf("-record and -replay cannot be combined")
	}

	if o.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		o.DataDir = filepath.Join(home, ".enginetwin")
	}

	tui := !o.JSONMode && !o.WatchMode && !o.ServeMode && o.ExportPath == "" && !dumpCatalog
	closeLog, err := setupLogging(o, tui)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog := config.DefaultCatalog()
	if o.App.CatalogPath != "" {
		if catalog, err = config.LoadCatalog(o.App.CatalogPath); err != nil {
			return err
		}
	}

	if dumpCatalog {
		data, err := config.MarshalCatalog(catalog)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	ticker, cleanup, err := buildTicker(o, catalog)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case o.ServeMode:
		return runServe(ctx, ticker, o)
	case o.ExportPath != "":
		return runExport(ctx, ticker, o, stdout)
	case o.JSONMode:
		return runJSON(ctx, ticker, o.Check, stdout)
	case o.WatchMode:
		return runWatch(ctx, ticker, o, stdout)
	}

	m := ui.NewModel(ticker, o.Interval(), ui.Options{
		DataDir:    o.DataDir,
		ExportPath: o.App.Report.OutputPath,
		Exporter:   newExporter(o.App.Report),
		StartPage:  o.App.Section,
		Debounce:   o.App.Alerts.Debounce,
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// setupLogging installs the default slog handler. The TUI owns the terminal,
// so it logs to a file in the data dir instead of stderr.
func setupLogging(o Options, tui bool) (func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}
	if tui {
		if err := os.MkdirAll(o.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(o.DataDir, "enginetwin.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = func() { f.Close() }
	}
	slog.SetDefault(slog.New(newLogHandler(w, o.App.LogLevel, o.LogJSON)))
	return closer, nil
}

func newLogHandler(w io.Writer, level string, jsonFmt bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: config.ParseLevel(level)}
	if jsonFmt {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// buildTicker assembles the reading source: a player for -replay, otherwise
// an engine over the configured feed, wrapped in a recorder for -record.
func buildTicker(o Options, catalog model.Catalog) (engine.Ticker, func(), error) {
	var t engine.Ticker
	cleanup := func() {}

	if o.ReplayPath != "" {
		f, err := os.Open(o.ReplayPath)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open replay file: %w", err)
		}
		defer f.Close()
		player, err := engine.NewPlayer(f, catalog, o.App.HistorySize)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot parse replay file: %w", err)
		}
		if player.Len() == 0 {
			return nil, nil, fmt.Errorf("replay file %s has no frames", o.ReplayPath)
		}
		t = player
	} else {
		feed, err := newFeed(o.App.Feed, o.App.FeedTimeout())
		if err != nil {
			return nil, nil, err
		}
		t = engine.NewEngine(feed, catalog, o.App.HistorySize)
		cleanup = func() {
			if err := collector.Close(feed); err != nil {
				slog.Warn("close feed", "feed", feed.Name(), "error", err)
			}
		}
	}

	if o.RecordPath != "" {
		f, err := os.Create(o.RecordPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("cannot create record file: %w", err)
		}
		rec := engine.NewRecorder(t, f)
		closeFeed := cleanup
		cleanup = func() {
			closeFeed()
			f.Close()
			slog.Info("recording saved", "path", o.RecordPath, "frames", rec.Frames())
		}
		t = rec
	}
	return t, cleanup, nil
}

func newExporter(rc config.ReportConfig) *report.Exporter {
	page := report.PageGeometry{Width: rc.PageWidth, Height: rc.PageHeight, Margin: rc.Margin}
	if page.Width <= 0 || page.Height <= 0 {
		page = report.A4
	}
	return report.NewExporter(max(1, rc.Scale), page)
}

// runJSON outputs a single analyzed reading as JSON.
func runJSON(ctx context.Context, t engine.Ticker, check bool, w io.Writer) error {
	snap, result := t.Tick(ctx)
	if snap == nil {
		return errors.New("feed returned no data")
	}
	if result == nil {
		return fmt.Errorf("poll failed: %s", strings.Join(snap.Errors, "; "))
	}

	data := map[string]any{
		"timestamp": snap.Timestamp.Format(time.RFC3339),
		"snapshot":  snap,
		"analysis":  result,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return err
	}
	if check {
		return checkExit(result)
	}
	return nil
}

// checkExit maps health onto the -check exit codes.
func checkExit(result *model.AnalysisResult) error {
	switch result.Health {
	case model.HealthCritical:
		return ExitCodeError{Code: 2}
	case model.HealthWarning:
		return ExitCodeError{Code: 1}
	}
	return nil
}
