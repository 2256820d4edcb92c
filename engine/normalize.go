package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

var (
	// ErrDegenerateRange is returned when MaxPossible equals MinPossible and
	// the display scale has no width.
	ErrDegenerateRange = errors.New("degenerate range")
	// ErrInvalidInput is returned for NaN or infinite values and bounds.
	ErrInvalidInput = errors.New("invalid input")
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func checkRange(r model.ParameterRange) error {
	if !finite(r.Min, r.Max, r.MinPossible, r.MaxPossible) {
		return fmt.Errorf("range bounds: %w", ErrInvalidInput)
	}
	if r.MaxPossible == r.MinPossible {
		return fmt.Errorf("scale [%g, %g]: %w", r.MinPossible, r.MaxPossible, ErrDegenerateRange)
	}
	return nil
}

// NormalizeToPercent maps value onto the 0..100 display scale of r.
// The value is clamped to [MinPossible, MaxPossible] first and the result is
// clamped to [0, 100] again to absorb floating-point overshoot.
func NormalizeToPercent(value float64, r model.ParameterRange) (float64, error) {
	if err := checkRange(r); err != nil {
		return 0, err
	}
	if !finite(value) {
		return 0, fmt.Errorf("value %v: %w", value, ErrInvalidInput)
	}
	v := clamp(value, r.MinPossible, r.MaxPossible)
	pct := (v - r.MinPossible) / r.Span() * 100
	return clamp(pct, 0, 100), nil
}

// NormalizeBand returns where [Min, Max] falls on the display scale.
// The band is not reordered: a range with Min > Max yields StartPct > EndPct.
func NormalizeBand(r model.ParameterRange) (model.NormalizedBand, error) {
	start, err := NormalizeToPercent(r.Min, r)
	if err != nil {
		return model.NormalizedBand{}, err
	}
	end, err := NormalizeToPercent(r.Max, r)
	if err != nil {
		return model.NormalizedBand{}, err
	}
	return model.NormalizedBand{StartPct: start, EndPct: end}, nil
}

// DeviationScore returns 0 inside [Min, Max], otherwise the distance to the
// nearest bound divided by the possible span. Scores above 1 mean the value
// is outside the instrument scale.
func DeviationScore(value float64, r model.ParameterRange) (float64, error) {
	if err := checkRange(r); err != nil {
		return 0, err
	}
	if !finite(value) {
		return 0, fmt.Errorf("value %v: %w", value, ErrInvalidInput)
	}
	switch {
	case value < r.Min:
		return (r.Min - value) / r.Span(), nil
	case value > r.Max:
		return (value - r.Max) / r.Span(), nil
	}
	return 0, nil
}

// ParameterScore is the raw deviation score of one sample.
type ParameterScore struct {
	Name  string
	Value float64
	Score float64
	Err   error
}

// ScoreAll scores every sample that declares a range, in input order.
// Samples without a range are omitted. Failures are reported per entry.
func ScoreAll(samples []model.ParameterSample) []ParameterScore {
	out := make([]ParameterScore, 0, len(samples))
	for _, s := range samples {
		if s.Range == nil {
			continue
		}
		score, err := DeviationScore(s.Value, *s.Range)
		out = append(out, ParameterScore{Name: s.Name, Value: s.Value, Score: score, Err: err})
	}
	return out
}

// WorstParameter returns the sample with the strictly greatest deviation
// score. On ties the earliest sample wins. Samples without a range, or whose
// score cannot be computed, are skipped. ok is false when nothing could be
// scored; a zero score is still returned as a valid result.
func WorstParameter(samples []model.ParameterSample) (worst model.WorstParameter, ok bool) {
	for _, ps := range ScoreAll(samples) {
		if ps.Err != nil {
			continue
		}
		if !ok || ps.Score > worst.Score {
			worst = model.WorstParameter{Name: ps.Name, Score: ps.Score, Value: ps.Value}
			ok = true
		}
	}
	return worst, ok
}

// Normalize builds the full status of one sample.
func Normalize(ps model.ParameterSample) model.ParameterStatus {
	st := model.ParameterStatus{Name: ps.Name, Value: ps.Value}
	if ps.Range == nil {
		return st
	}
	st.HasRange = true
	st.Range = *ps.Range

	var err error
	if st.ValuePct, err = NormalizeToPercent(ps.Value, *ps.Range); err != nil {
		st.Err = err.Error()
		return st
	}
	if st.Band, err = NormalizeBand(*ps.Range); err != nil {
		st.Err = err.Error()
		return st
	}
	if st.Score, err = DeviationScore(ps.Value, *ps.Range); err != nil {
		st.Err = err.Error()
	}
	return st
}
