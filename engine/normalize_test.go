package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

var egt = model.ParameterRange{Min: 400, Max: 750, MinPossible: 200, MaxPossible: 900}

func TestNormalizeToPercent(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"at min possible", 200, 0},
		{"at max possible", 900, 100},
		{"midpoint", 550, 50},
		{"normal min", 400, 200.0 / 700 * 100},
		{"below scale", -50, 0},
		{"above scale", 5000, 100},
		{"quarter", 375, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeToPercent(tt.value, egt)
			if err != nil {
				t.Fatalf("NormalizeToPercent(%v): %v", tt.value, err)
			}
			if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
				t.Errorf("NormalizeToPercent(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalizeToPercentExactBounds(t *testing.T) {
	ranges := []model.ParameterRange{
		egt,
		{Min: 0.2, Max: 0.9, MinPossible: 0, MaxPossible: 1},
		{Min: 40, Max: 90, MinPossible: -20, MaxPossible: 150},
		{Min: 0.1, Max: 0.3, MinPossible: 0.1, MaxPossible: 0.7},
	}
	for _, r := range ranges {
		lo, err := NormalizeToPercent(r.MinPossible, r)
		if err != nil || lo != 0 {
			t.Errorf("min possible of %+v: got %v, %v; want exactly 0", r, lo, err)
		}
		hi, err := NormalizeToPercent(r.MaxPossible, r)
		if err != nil || hi != 100 {
			t.Errorf("max possible of %+v: got %v, %v; want exactly 100", r, hi, err)
		}
	}
}

func TestNormalizeToPercentStaysInScale(t *testing.T) {
	r := model.ParameterRange{Min: 20, Max: 80, MinPossible: 0, MaxPossible: 200}
	for v := r.MinPossible; v <= r.MaxPossible; v += 0.37 {
		got, err := NormalizeToPercent(v, r)
		if err != nil {
			t.Fatalf("value %v: %v", v, err)
		}
		if got < 0 || got > 100 {
			t.Fatalf("value %v normalized to %v, outside [0,100]", v, got)
		}
	}
}

func TestNormalizeErrors(t *testing.T) {
	flat := model.ParameterRange{Min: 5, Max: 5, MinPossible: 5, MaxPossible: 5}
	if _, err := NormalizeToPercent(5, flat); !errors.Is(err, ErrDegenerateRange) {
		t.Errorf("degenerate range: got %v, want ErrDegenerateRange", err)
	}
	if _, err := DeviationScore(1, flat); !errors.Is(err, ErrDegenerateRange) {
		t.Errorf("degenerate score: got %v, want ErrDegenerateRange", err)
	}
	if _, err := NormalizeToPercent(math.NaN(), egt); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NaN value: got %v, want ErrInvalidInput", err)
	}
	if _, err := DeviationScore(math.Inf(1), egt); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Inf value: got %v, want ErrInvalidInput", err)
	}
	bad := egt
	bad.MaxPossible = math.Inf(1)
	if _, err := NormalizeToPercent(300, bad); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Inf bound: got %v, want ErrInvalidInput", err)
	}
}

func TestNormalizeBand(t *testing.T) {
	band, err := NormalizeBand(model.ParameterRange{Min: 2000, Max: 8500, MinPossible: 0, MaxPossible: 10000})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(band.StartPct-20) > 1e-9 || math.Abs(band.EndPct-85) > 1e-9 {
		t.Errorf("band = %+v, want {20 85}", band)
	}

	inverted, err := NormalizeBand(model.ParameterRange{Min: 80, Max: 20, MinPossible: 0, MaxPossible: 100})
	if err != nil {
		t.Fatalf("inverted band should not fail: %v", err)
	}
	if inverted.StartPct <= inverted.EndPct {
		t.Errorf("inverted band = %+v, want start > end", inverted)
	}
}

func TestDeviationScore(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"at normal min", 400, 0},
		{"inside", 600, 0},
		{"at normal max", 750, 0},
		{"below", 330, 0.1},
		{"above", 820, 0.1},
		{"far above scale", 1500, 1.0714},
		{"far below scale", -600, 1.4286},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeviationScore(tt.value, egt)
			if err != nil {
				t.Fatal(err)
			}
			if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
				t.Errorf("DeviationScore(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDeviationScoreMonotonic(t *testing.T) {
	prev := 0.0
	for v := egt.Max; v < 3000; v += 10 {
		got, _ := DeviationScore(v, egt)
		if v > egt.Max && got <= prev {
			t.Fatalf("score not increasing above max at %v: %v <= %v", v, got, prev)
		}
		prev = got
	}
	prev = 0
	for v := egt.Min; v > -3000; v -= 10 {
		got, _ := DeviationScore(v, egt)
		if v < egt.Min && got <= prev {
			t.Fatalf("score not increasing below min at %v: %v <= %v", v, got, prev)
		}
		prev = got
	}
}

func TestWorstParameterTieKeepsFirst(t *testing.T) {
	unit := model.ParameterRange{Min: 0, Max: 0, MinPossible: 0, MaxPossible: 1}
	samples := []model.ParameterSample{
		{Name: "A", Value: 0.1, Range: &unit},
		{Name: "B", Value: 0.5, Range: &unit},
		{Name: "C", Value: 0.5, Range: &unit},
	}
	worst, ok := WorstParameter(samples)
	if !ok {
		t.Fatal("expected a worst parameter")
	}
	if worst.Name != "B" || worst.Score != 0.5 || worst.Value != 0.5 {
		t.Errorf("worst = %+v, want B with score 0.5", worst)
	}
}

func TestWorstParameterSkipsUnranged(t *testing.T) {
	samples := []model.ParameterSample{
		{Name: "Unknown", Value: 1e9},
		{Name: "EGT", Value: 600, Range: &egt},
	}
	worst, ok := WorstParameter(samples)
	if !ok {
		t.Fatal("expected EGT to be scored")
	}
	if worst.Name != "EGT" || worst.Score != 0 {
		t.Errorf("worst = %+v, want EGT with score 0", worst)
	}

	if _, ok := WorstParameter([]model.ParameterSample{{Name: "x", Value: 1}}); ok {
		t.Error("no declared ranges should report ok=false")
	}
	if _, ok := WorstParameter(nil); ok {
		t.Error("empty input should report ok=false")
	}
}

func TestWorstParameterIsolatesFailures(t *testing.T) {
	flat := model.ParameterRange{MinPossible: 1, MaxPossible: 1}
	samples := []model.ParameterSample{
		{Name: "Broken", Value: 10, Range: &flat},
		{Name: "NaN", Value: math.NaN(), Range: &egt},
		{Name: "EGT", Value: 820, Range: &egt},
	}
	worst, ok := WorstParameter(samples)
	if !ok || worst.Name != "EGT" {
		t.Fatalf("worst = %+v ok=%v, want EGT", worst, ok)
	}

	scores := ScoreAll(samples)
	if len(scores) != 3 {
		t.Fatalf("ScoreAll returned %d entries, want 3", len(scores))
	}
	if !errors.Is(scores[0].Err, ErrDegenerateRange) || !errors.Is(scores[1].Err, ErrInvalidInput) {
		t.Errorf("unexpected per-entry errors: %v, %v", scores[0].Err, scores[1].Err)
	}
}

func TestNormalizeStatus(t *testing.T) {
	st := Normalize(model.ParameterSample{Name: "EGT", Value: 820, Range: &egt})
	if !st.HasRange || st.Err != "" {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.InBand() {
		t.Error("820 is outside the EGT normal band")
	}
	if diff := st.ValuePct - 88.571; diff > 0.001 || diff < -0.001 {
		t.Errorf("ValuePct = %v", st.ValuePct)
	}

	none := Normalize(model.ParameterSample{Name: "Other", Value: 3})
	if none.HasRange || none.InBand() {
		t.Errorf("unranged status = %+v", none)
	}
}
