package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/config"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

func TestComputeWarningsNearLimit(t *testing.T) {
	tests := []struct {
		name     string
		egt      float64
		wantSev  string
		wantWarn bool
	}{
		{"mid band", 600, "", false},
		{"close to max", 740, "warn", true},
		{"at max", 749, "crit", true},
		{"close to min", 410, "warn", true},
		{"out of band", 800, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze(testReading("NORMAL", tt.egt), config.DefaultCatalog())
			warns := ComputeWarnings(result, nil)
			if !tt.wantWarn {
				if len(warns) != 0 {
					t.Fatalf("warnings = %+v, want none", warns)
				}
				return
			}
			if len(warns) != 1 {
				t.Fatalf("warnings = %+v, want one", warns)
			}
			w := warns[0]
			if w.Parameter != model.ParamEGT || w.Severity != tt.wantSev {
				t.Errorf("warning = %+v, want EGT %s", w, tt.wantSev)
			}
			if !strings.HasPrefix(w.Detail, "Near ") {
				t.Errorf("detail = %q", w.Detail)
			}
		})
	}
}

func TestComputeWarningsDrift(t *testing.T) {
	var readings []model.Reading
	for _, egt := range []float64{600, 620, 640, 660, 680} {
		readings = append(readings, testReading("NORMAL", egt))
	}
	eng := NewEngine(collector.NewStatic(readings...), config.DefaultCatalog(), 10)
	for range readings {
		eng.Tick(context.Background())
	}

	result := Analyze(testReading("NORMAL", 700), config.DefaultCatalog())
	warns := ComputeWarnings(result, eng.History)
	if len(warns) != 1 {
		t.Fatalf("warnings = %+v, want one drift warning", warns)
	}
	w := warns[0]
	if w.Parameter != model.ParamEGT || w.Detail != "Rising toward normal limit" {
		t.Errorf("warning = %+v", w)
	}
	if w.Severity != "warn" {
		t.Errorf("severity = %q, want warn", w.Severity)
	}

	// Flat history: no drift.
	flat := NewEngine(collector.NewStatic(testReading("NORMAL", 700), testReading("NORMAL", 700), testReading("NORMAL", 700)), config.DefaultCatalog(), 10)
	for range 3 {
		flat.Tick(context.Background())
	}
	if warns := ComputeWarnings(result, flat.History); len(warns) != 0 {
		t.Errorf("flat history warnings = %+v", warns)
	}
}

func TestSlope(t *testing.T) {
	tests := []struct {
		ys   []float64
		want float64
		ok   bool
	}{
		{[]float64{1, 2}, 0, false},
		{[]float64{1, 2, 3}, 1, true},
		{[]float64{10, 8, 6, 4}, -2, true},
		{[]float64{5, 5, 5}, 0, true},
	}
	for _, tt := range tests {
		got, ok := slope(tt.ys)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("slope(%v) = %v, %v; want %v, %v", tt.ys, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEngineAttachesOnsetChain(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	at := func(r model.Reading, i int) model.Reading {
		r.Sample.Timestamp = base.Add(time.Duration(i) * time.Minute)
		return r
	}
	hot := testReading("WARNING", 800)
	hotOil := hot
	hotOil.Sample.OilTemp = 95

	eng := NewEngine(collector.NewStatic(
		at(testReading("NORMAL", 600), 0),
		at(hot, 1),
		at(hotOil, 2),
		at(testReading("NORMAL", 600), 3),
	), config.DefaultCatalog(), 10)
	ctx := context.Background()

	if _, r := eng.Tick(ctx); r.Chain != nil {
		t.Fatalf("in-band reading has chain %+v", r.Chain)
	}
	_, r := eng.Tick(ctx)
	if r.Chain == nil || r.Chain.FirstMover != model.ParamEGT {
		t.Fatalf("chain = %+v, want EGT first", r.Chain)
	}
	_, r = eng.Tick(ctx)
	if r.Chain == nil || len(r.Chain.Onsets) != 2 {
		t.Fatalf("chain = %+v, want two onsets", r.Chain)
	}
	if want := "EGT (T+0s) → OilTemp (T+60s)"; r.Chain.Summary != want {
		t.Errorf("summary = %q, want %q", r.Chain.Summary, want)
	}
	if _, r = eng.Tick(ctx); r.Chain != nil {
		t.Errorf("recovered reading has chain %+v", r.Chain)
	}
}
