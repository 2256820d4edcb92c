package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config holds user-configurable defaults and integrations.
type Config struct {
	IntervalSec int          `json:"interval_sec"`
	HistorySize int          `json:"history_size"`
	Section     string       `json:"default_section"`
	LogLevel    string       `json:"log_level"`
	CatalogPath string       `json:"catalog_path,omitempty"`
	Feed        FeedConfig   `json:"feed"`
	Server      ServerConfig `json:"server"`
	Store       StoreConfig  `json:"store"`
	Report      ReportConfig `json:"report"`
	Alerts      AlertConfig  `json:"alerts"`
}

// FeedConfig selects and configures the sensor feed.
type FeedConfig struct {
	Kind       string   `json:"kind"` // http, mqtt, kafka, simulate
	URL        string   `json:"url"`
	Broker     string   `json:"broker"`
	Topic      string   `json:"topic"`
	Brokers    []string `json:"brokers,omitempty"`
	Group      string   `json:"group"`
	AircraftID string   `json:"aircraft_id"`
	Seed       int64    `json:"seed"`
	TimeoutSec int      `json:"timeout_sec"`
	// Session is the backend's session cookie value, needed unless the
	// backend allows anonymous access to /sensor/latest.
	Session string `json:"session,omitempty"`
}

type ServerConfig struct {
	Addr            string   `json:"addr"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty"`
	SimulateBackend bool     `json:"simulate_backend"`
}

type StoreConfig struct {
	Enabled       bool   `json:"enabled"`
	Path          string `json:"path"`
	RetentionDays int    `json:"retention_days"`
	BusyTimeoutMs int    `json:"busy_timeout_ms,omitempty"`
	Synchronous   string `json:"synchronous,omitempty"` // OFF, NORMAL, FULL, EXTRA
}

// ReportConfig describes the exported document page and raster resolution.
type ReportConfig struct {
	PageWidth  float64 `json:"page_width_mm"`
	PageHeight float64 `json:"page_height_mm"`
	Margin     float64 `json:"margin_mm"`
	Scale      int     `json:"raster_scale"`
	OutputPath string  `json:"output_path"`
}

type AlertConfig struct {
	Webhook string `json:"webhook"`
	Command string `json:"command"`
	// Debounce is how many consecutive anomalous readings open an event.
	Debounce int `json:"debounce"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		IntervalSec: 60,
		HistorySize: 40,
		Section:     "overview",
		LogLevel:    "info",
		Feed: FeedConfig{
			Kind:       "simulate",
			URL:        "http://127.0.0.1:5000",
			Broker:     "tcp://127.0.0.1:1883",
			Topic:      "engine/samples",
			Brokers:    []string{"127.0.0.1:9092"},
			Group:      "enginetwin",
			AircraftID: "HAL-HJT-01",
			TimeoutSec: 10,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Store: StoreConfig{
			RetentionDays: 30,
		},
		Report: ReportConfig{
			PageWidth:  210,
			PageHeight: 297,
			Margin:     10,
			Scale:      2,
			OutputPath: "prediction_report.pdf",
		},
		Alerts: AlertConfig{Debounce: 1},
	}
}

// Interval returns the poll interval as a duration.
func (c Config) Interval() time.Duration {
	if c.IntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.IntervalSec) * time.Second
}

// FeedTimeout returns the per-request feed timeout.
func (c Config) FeedTimeout() time.Duration {
	if c.Feed.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Feed.TimeoutSec) * time.Second
}

// Dir returns ~/.config/enginetwin (or under XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "enginetwin")
}

// Path returns the config file location.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// Load loads config from disk; returns defaults on error.
func Load() Config {
	return LoadFile(Path())
}

// LoadFile loads config from path, falling back to defaults for a missing
// file or unparsable content.
func LoadFile(path string) Config {
	cfg := Default()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("config parse error, using defaults", "path", path, "error", err)
		return Default()
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config to path.
func SaveFile(path string, cfg Config) error {
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ParseLevel maps a config log level onto slog.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
