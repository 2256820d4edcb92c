package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/config"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// testReading returns an in-band reading with the given label and EGT.
func testReading(label string, egt float64) model.Reading {
	return model.Reading{
		Sample: model.Sample{
			AircraftID:  "HAL-HJT-01",
			EngineModel: "Adour Mk-821",
			Phase:       model.PhaseCruise,
			Throttle:    0.7,
			RPM:         3000,
			FuelFlow:    500,
			EGT:         egt,
			OilTemp:     70,
			OilPressure: 50,
			Vibration:   1.5,
		},
		Prediction: model.Prediction{
			Label:         label,
			Probabilities: map[string]float64{label: 0.9},
		},
	}
}

type failingFeed struct{ err error }

func (f failingFeed) Name() string { return "failing" }
func (f failingFeed) Collect(context.Context) (*model.Reading, error) {
	return nil, f.err
}

func TestAnalyze(t *testing.T) {
	r := testReading("WARNING", 830)
	r.Sample.Vibration = 4 // (4-3)/10 = 0.1
	result := Analyze(r, config.DefaultCatalog())

	if result.Health != model.HealthWarning || !result.Anomalous() {
		t.Errorf("health = %v", result.Health)
	}
	names := config.DefaultCatalog().Names()
	if len(result.Parameters) != len(names) {
		t.Fatalf("got %d parameters, want %d", len(result.Parameters), len(names))
	}
	for i, p := range result.Parameters {
		if p.Name != names[i] {
			t.Errorf("parameter %d = %s, want %s", i, p.Name, names[i])
		}
		if !p.HasRange {
			t.Errorf("%s has no range", p.Name)
		}
	}
	if result.Worst == nil || result.Worst.Name != model.ParamEGT {
		t.Fatalf("worst = %+v, want EGT", result.Worst)
	}
	if math.Abs(result.Worst.Score-80.0/700) > 0.001 {
		t.Errorf("EGT score = %v", result.Worst.Score)
	}
	oob := OutOfBand(result)
	if len(oob) != 2 || oob[0].Name != model.ParamEGT || oob[1].Name != model.ParamVibration {
		t.Errorf("out of band = %+v", oob)
	}
}

func TestAnalyzeAllInBand(t *testing.T) {
	result := Analyze(testReading("NORMAL", 600), config.DefaultCatalog())
	if result.Anomalous() {
		t.Error("NORMAL label should not be anomalous")
	}
	// Every score is 0; the first catalog entry wins the tie.
	if result.Worst == nil || result.Worst.Name != model.ParamEGT || result.Worst.Score != 0 {
		t.Errorf("worst = %+v", result.Worst)
	}
	if len(OutOfBand(result)) != 0 {
		t.Error("expected nothing out of band")
	}
}

func TestAnalyzeTieFollowsCatalogOrder(t *testing.T) {
	r := model.ParameterRange{Min: 0, Max: 10, MinPossible: 0, MaxPossible: 100}
	catalog := model.Catalog{Entries: []model.CatalogEntry{
		{Name: model.ParamOilTemp, Range: r},
		{Name: model.ParamEGT, Range: r},
	}}
	reading := testReading("NORMAL", 20)
	reading.Sample.OilTemp = 20 // both score (20-10)/100

	result := Analyze(reading, catalog)
	if result.Worst == nil || result.Worst.Name != model.ParamOilTemp {
		t.Fatalf("worst = %+v, want OilTemp (first in catalog)", result.Worst)
	}
	if len(result.Parameters) != len(model.ParameterNames) {
		t.Fatalf("got %d parameters, want %d", len(result.Parameters), len(model.ParameterNames))
	}
	if result.Parameters[0].Name != model.ParamOilTemp || result.Parameters[1].Name != model.ParamEGT {
		t.Errorf("ranged parameters not in catalog order: %s, %s", result.Parameters[0].Name, result.Parameters[1].Name)
	}
	for _, p := range result.Parameters[2:] {
		if p.HasRange {
			t.Errorf("%s has a range but is not in the catalog", p.Name)
		}
	}
}

func TestAnalyzeDeviationDoesNotRaiseAlert(t *testing.T) {
	result := Analyze(testReading("NORMAL", 890), config.DefaultCatalog())
	if result.Anomalous() || result.Health != model.HealthOK {
		t.Errorf("deviation alone raised health to %v", result.Health)
	}
	if result.Worst.Score <= 0 {
		t.Error("EGT should deviate")
	}
}

func TestEngineTick(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r := testReading("NORMAL", 600)
	r.Sample.Timestamp = ts
	eng := NewEngine(collector.NewStatic(r), config.DefaultCatalog(), 40)
	ctx := context.Background()

	snap, result := eng.Tick(ctx)
	if snap == nil || result == nil {
		t.Fatal("expected snapshot and result")
	}
	if !snap.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want sample time", snap.Timestamp)
	}
	if eng.History.Len() != 1 {
		t.Errorf("history len = %d", eng.History.Len())
	}

	snap, result = eng.Tick(ctx)
	if snap != nil || result != nil {
		t.Error("exhausted feed should produce no tick")
	}
	if eng.History.Len() != 1 {
		t.Error("empty tick should not touch history")
	}
}

func TestEngineTickFeedError(t *testing.T) {
	eng := NewEngine(failingFeed{errors.New("connection refused")}, config.DefaultCatalog(), 40)
	snap, result := eng.Tick(context.Background())
	if snap == nil || len(snap.Errors) != 1 {
		t.Fatalf("expected snapshot carrying the error, got %+v", snap)
	}
	if result != nil {
		t.Error("failed poll should have no result")
	}
	if eng.History.Len() != 0 {
		t.Error("failed poll should not be stored")
	}
}

func TestEngineWithoutFeed(t *testing.T) {
	eng := NewEngine(nil, config.DefaultCatalog(), 0)
	if snap, _ := eng.Tick(context.Background()); snap != nil {
		t.Error("feedless engine should not tick")
	}
	if eng.History.Cap() != 1 {
		t.Errorf("capacity = %d, want 1", eng.History.Cap())
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(40)
	for i := 0; i < 45; i++ {
		r := testReading("NORMAL", float64(500+i))
		h.Push(model.Snapshot{Timestamp: time.Unix(int64(i*60), 0), Reading: r}, model.AnalysisResult{})
	}
	if h.Len() != 40 {
		t.Fatalf("len = %d, want 40", h.Len())
	}
	series := h.Series(model.ParamEGT)
	if len(series) != 40 || series[0] != 505 || series[39] != 544 {
		t.Errorf("series = %v", series)
	}
	if snaps, results := h.Recent(3); len(snaps) != 3 || len(results) != 3 || snaps[2].Reading.Sample.EGT != 544 {
		t.Errorf("Recent(3) = %+v", snaps)
	}
	if h.Get(40) != nil || h.Get(-1) != nil {
		t.Error("out of range Get should be nil")
	}
}

func TestHistoryLatestReturnsCopy(t *testing.T) {
	h := NewHistory(4)
	h.Push(model.Snapshot{Timestamp: time.Unix(100, 0), Reading: testReading("NORMAL", 600)}, model.AnalysisResult{Label: "NORMAL"})

	got := h.Latest()
	if got == nil {
		t.Fatal("Latest() returned nil after Push")
	}
	h.Push(model.Snapshot{Timestamp: time.Unix(200, 0), Reading: testReading("NORMAL", 700)}, model.AnalysisResult{Label: "WARNING"})

	if got.Reading.Sample.EGT != 600 {
		t.Errorf("earlier Latest() changed to EGT=%v", got.Reading.Sample.EGT)
	}
	if h.LatestResult().Label != "WARNING" {
		t.Errorf("LatestResult = %+v", h.LatestResult())
	}
}

func TestHistoryScoreSeries(t *testing.T) {
	h := NewHistory(5)
	cat := config.DefaultCatalog()
	for _, egt := range []float64{600, 820, 900} {
		r := testReading("NORMAL", egt)
		h.Push(model.Snapshot{Reading: r}, *Analyze(r, cat))
	}
	scores := h.ScoreSeries(model.ParamEGT)
	if len(scores) != 3 || scores[0] != 0 || !(scores[1] > 0 && scores[2] > scores[1]) {
		t.Errorf("scores = %v", scores)
	}
}
