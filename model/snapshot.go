package model

import "time"

// Snapshot holds one polled reading.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Reading   Reading   `json:"reading"`
	Errors    []string  `json:"errors,omitempty"`
}

// HealthLevel is the engine health derived from the prediction label.
type HealthLevel int

const (
	HealthUnknown  HealthLevel = 0
	HealthOK       HealthLevel = 1
	HealthWarning  HealthLevel = 2
	HealthCritical HealthLevel = 3
)

func (h HealthLevel) String() string {
	switch h {
	case HealthOK:
		return "NORMAL"
	case HealthWarning:
		return "WARNING"
	case HealthCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// Anomalous reports whether h is WARNING or worse.
func (h HealthLevel) Anomalous() bool {
	return h >= HealthWarning
}

// HealthFromLabel maps a prediction label onto a HealthLevel.
// Labels other than NORMAL and WARNING count as critical.
func HealthFromLabel(label string) HealthLevel {
	switch label {
	case "":
		return HealthUnknown
	case LabelNormal:
		return HealthOK
	case "WARNING":
		return HealthWarning
	}
	return HealthCritical
}

// ParameterStatus is the normalized view of one parameter.
type ParameterStatus struct {
	Name     string         `json:"name"`
	Value    float64        `json:"value"`
	HasRange bool           `json:"has_range"`
	Range    ParameterRange `json:"range"`
	ValuePct float64        `json:"value_pct"`
	Band     NormalizedBand `json:"band"`
	Score    float64        `json:"score"`
	Err      string         `json:"error,omitempty"`
}

// InBand reports whether the value sits inside the normal band.
func (p ParameterStatus) InBand() bool {
	return p.HasRange && p.Err == "" && p.Score == 0
}

// WorstParameter is the parameter with the greatest deviation score.
type WorstParameter struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Value float64 `json:"value"`
}

// AnalysisResult is the per-tick output of the engine.
type AnalysisResult struct {
	Health        HealthLevel        `json:"health"`
	Label         string             `json:"label,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Parameters    []ParameterStatus  `json:"parameters"`
	Worst         *WorstParameter    `json:"worst,omitempty"`
	Warnings      []Warning          `json:"warnings,omitempty"`
	Chain         *OnsetChain        `json:"chain,omitempty"`
}

// Anomalous reports whether the prediction flags an anomaly. The deviation
// score does not feed into this.
func (r *AnalysisResult) Anomalous() bool {
	return r != nil && r.Label != "" && r.Label != LabelNormal
}

// Parameter returns the status for name.
func (r *AnalysisResult) Parameter(name string) (ParameterStatus, bool) {
	if r == nil {
		return ParameterStatus{}, false
	}
	for _, p := range r.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterStatus{}, false
}
