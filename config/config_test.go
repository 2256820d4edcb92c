package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg := LoadFile(filepath.Join(dir, "missing.json"))
	if cfg.IntervalSec != 60 || cfg.HistorySize != 40 {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if cfg := LoadFile(bad); cfg.Feed.Kind != "simulate" {
		t.Errorf("bad file should yield defaults, got feed %q", cfg.Feed.Kind)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.IntervalSec = 5
	cfg.Feed.Kind = "http"
	cfg.Alerts.Webhook = "https://hooks.example.com/engine"

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got := LoadFile(path)
	if got.IntervalSec != 5 || got.Feed.Kind != "http" || got.Alerts.Webhook != cfg.Alerts.Webhook {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Interval() != 5*time.Second {
		t.Errorf("Interval() = %v", got.Interval())
	}
}

func TestPathHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := Path(); got != "/tmp/xdg/enginetwin/config.json" {
		t.Errorf("Path() = %q", got)
	}
}

func TestDefaultCatalogValid(t *testing.T) {
	cat := DefaultCatalog()
	if err := ValidateCatalog(cat); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	for _, name := range model.ParameterNames {
		if _, ok := cat.Lookup(name); !ok {
			t.Errorf("default catalog missing %s", name)
		}
	}
}

func TestCatalogYAMLRoundTrip(t *testing.T) {
	data, err := MarshalCatalog(DefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ranges.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if got, want := cat.Names(), DefaultCatalog().Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("order not preserved: %v vs %v", got, want)
	}
	egt, _ := cat.Lookup(model.ParamEGT)
	if egt.MinPossible != 200 || egt.MaxPossible != 900 {
		t.Errorf("EGT range = %+v", egt)
	}
}

func TestParseCatalogRejectsBadRanges(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "parameters: []", "no parameters"},
		{"degenerate", "parameters:\n  - {name: X, min: 1, max: 1, min_possible: 1, max_possible: 1}", "must exceed"},
		{"inverted", "parameters:\n  - {name: X, min: 5, max: 1, min_possible: 0, max_possible: 10}", "exceeds max"},
		{"outside scale", "parameters:\n  - {name: X, min: -1, max: 5, min_possible: 0, max_possible: 10}", "outside scale"},
		{"duplicate", "parameters:\n  - {name: X, min: 1, max: 2, min_possible: 0, max_possible: 3}\n  - {name: X, min: 1, max: 2, min_possible: 0, max_possible: 3}", "duplicate"},
		{"no name", "parameters:\n  - {min: 1, max: 2, min_possible: 0, max_possible: 3}", "missing name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("ParseCatalog error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadCatalogEmptyPath(t *testing.T) {
	cat, err := LoadCatalog("")
	if err != nil || len(cat.Entries) != 7 {
		t.Fatalf("LoadCatalog(\"\") = %d entries, %v", len(cat.Entries), err)
	}
}
