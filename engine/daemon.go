package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// Sink persists analyzed readings.
type Sink interface {
	Save(ctx context.Context, snap *model.Snapshot, result *model.AnalysisResult) error
}

// EventSink is a Sink that also persists closed events.
type EventSink interface {
	SaveEvent(ctx context.Context, e model.Event) error
}

// DaemonConfig holds background poller configuration.
type DaemonConfig struct {
	DataDir  string
	Interval time.Duration
	Ticker   Ticker
	Sink     Sink
	Alerts   AlertConfig
	Detector *EventDetector
}

// compactSummary is a minimal per-tick record for the rolling log.
type compactSummary struct {
	Timestamp time.Time `json:"ts"`
	Aircraft  string    `json:"aircraft,omitempty"`
	Health    string    `json:"health"`
	Label     string    `json:"label,omitempty"`
	Worst     string    `json:"worst,omitempty"`
	Score     float64   `json:"score"`
	OutOfBand []string  `json:"out_of_band,omitempty"`
}

// RunDaemon polls cfg.Ticker every cfg.Interval until ctx is cancelled,
// persisting readings, logging events and sending alerts. The first poll
// happens immediately.
func RunDaemon(ctx context.Context, cfg DaemonConfig) error {
	if cfg.Ticker == nil {
		return fmt.Errorf("daemon: no ticker")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("daemon: interval must be positive, got %s", cfg.Interval)
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	incidentDir := filepath.Join(cfg.DataDir, "incidents")
	if err := os.MkdirAll(incidentDir, 0700); err != nil {
		return fmt.Errorf("create incident dir: %w", err)
	}

	detector := cfg.Detector
	if detector == nil {
		detector = NewEventDetector()
	}
	d := &daemon{
		cfg:         cfg,
		detector:    detector,
		notifier:    NewNotifier(cfg.Alerts),
		eventWriter: NewEventLogWriter(filepath.Join(cfg.DataDir, "events.jsonl")),
		summaryPath: filepath.Join(cfg.DataDir, "current.jsonl"),
		incidentDir: incidentDir,
		prevHealth:  model.HealthUnknown,
	}

	slog.Info("poller started", "interval", cfg.Interval, "datadir", cfg.DataDir)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		d.step(ctx)
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

type daemon struct {
	cfg         DaemonConfig
	detector    *EventDetector
	notifier    *Notifier
	eventWriter *EventLogWriter
	summaryPath string
	incidentDir string
	prevHealth  model.HealthLevel
}

func (d *daemon) step(ctx context.Context) {
	snap, result := d.cfg.Ticker.Tick(ctx)
	if snap == nil {
		return
	}
	if result == nil {
		slog.Warn("poll failed", "errors", snap.Errors)
		return
	}

	if d.cfg.Sink != nil {
		if err := d.cfg.Sink.Save(ctx, snap, result); err != nil {
			slog.Error("persist reading", "error", err)
		}
	}

	if closed := d.detector.Process(snap, result); closed != nil {
		if err := d.eventWriter.Write(*closed); err != nil {
			slog.Error("write event", "error", err)
		} else {
			slog.Info("event closed", "id", closed.ID, "label", closed.Label,
				"duration_sec", closed.Duration, "worst", closed.WorstParam)
		}
		if es, ok := d.cfg.Sink.(EventSink); ok {
			if err := es.SaveEvent(ctx, *closed); err != nil {
				slog.Error("persist event", "error", err)
			}
		}
		d.notifier.Notify("event_closed", closed)
	}

	if result.Anomalous() && !d.prevHealth.Anomalous() {
		slog.Warn("anomaly detected", "label", result.Label, "worst", worstName(result))
		d.notifier.Notify("anomaly_detected", incidentOf(snap, result))
	}
	if result.Health == model.HealthCritical && d.prevHealth != model.HealthCritical {
		path := filepath.Join(d.incidentDir,
			fmt.Sprintf("incident-%s.json", snap.Timestamp.Format("2006-01-02T15-04-05")))
		if err := saveIncident(path, snap, result); err != nil {
			slog.Error("save incident", "error", err)
		} else {
			slog.Warn("incident saved", "path", path)
		}
	}
	if result.Health == model.HealthOK && d.prevHealth.Anomalous() {
		d.notifier.Notify("health_ok", map[string]any{"since": snap.Timestamp})
	}
	d.prevHealth = result.Health

	s := compactSummary{
		Timestamp: snap.Timestamp,
		Aircraft:  snap.Reading.Sample.AircraftID,
		Health:    result.Health.String(),
		Label:     result.Label,
	}
	if result.Worst != nil {
		s.Worst = result.Worst.Name
		s.Score = result.Worst.Score
	}
	for _, p := range OutOfBand(result) {
		s.OutOfBand = append(s.OutOfBand, p.Name)
	}
	writeSummaryLine(d.summaryPath, s)
}

func worstName(result *model.AnalysisResult) string {
	if result.Worst == nil {
		return ""
	}
	return result.Worst.Name
}

type incident struct {
	Timestamp     time.Time               `json:"timestamp"`
	Aircraft      string                  `json:"aircraft,omitempty"`
	Label         string                  `json:"label"`
	Probabilities map[string]float64      `json:"probabilities,omitempty"`
	Worst         *model.WorstParameter   `json:"worst,omitempty"`
	Sample        model.Sample            `json:"sample"`
	Parameters    []model.ParameterStatus `json:"parameters"`
}

func incidentOf(snap *model.Snapshot, result *model.AnalysisResult) incident {
	return incident{
		Timestamp:     snap.Timestamp,
		Aircraft:      snap.Reading.Sample.AircraftID,
		Label:         result.Label,
		Probabilities: result.Probabilities,
		Worst:         result.Worst,
		Sample:        snap.Reading.Sample,
		Parameters:    result.Parameters,
	}
}

// saveIncident writes a full snapshot to a JSON file.
func saveIncident(path string, snap *model.Snapshot, result *model.AnalysisResult) error {
	data, err := json.MarshalIndent(incidentOf(snap, result), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// writeSummaryLine appends a compact JSON line to the summary file.
// Rotates at 10MB.
func writeSummaryLine(path string, s compactSummary) {
	if info, err := os.Stat(path); err == nil && info.Size() > 10*1024*1024 {
		_ = os.Rename(path, path+".old")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		slog.Warn("open summary log", "error", err)
		return
	}
	defer f.Close()
	_ = json.NewEncoder(f).Encode(s)
}
