package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// ErrIncomplete is returned when a sample lacks one or more parameters.
var ErrIncomplete = errors.New("incomplete sample")

// wireSample is the backend's sample layout.
type wireSample struct {
	Timestamp   string   `json:"Timestamp"`
	AircraftID  string   `json:"Aircraft_ID"`
	EngineModel string   `json:"Engine_Model"`
	Phase       string   `json:"Phase"`
	Throttle    *float64 `json:"Throttle"`
	RPM         *float64 `json:"RPM"`
	FuelFlow    *float64 `json:"FuelFlow"`
	EGT         *float64 `json:"EGT"`
	OilTemp     *float64 `json:"OilTemp"`
	OilPressure *float64 `json:"OilPressure"`
	Vibration   *float64 `json:"Vibration"`
}

// wireReading is the body of GET /sensor/latest and of feed messages.
type wireReading struct {
	Sample        *wireSample        `json:"sample"`
	Prediction    *string            `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities"`
	Error         string             `json:"error,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// DecodeReading parses a backend reading. A sample without a timestamp is
// stamped with now.
func DecodeReading(data []byte, now time.Time) (*model.Reading, error) {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode reading: %w", err)
	}
	if w.Error != "" {
		return nil, fmt.Errorf("backend error: %s", w.Error)
	}
	if w.Sample == nil {
		return nil, fmt.Errorf("decode reading: %w: no sample", ErrIncomplete)
	}

	s := w.Sample
	var missing []string
	get := func(name string, p *float64) float64 {
		if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
			missing = append(missing, name)
			return 0
		}
		return *p
	}
	r := &model.Reading{Sample: model.Sample{
		AircraftID:  s.AircraftID,
		EngineModel: s.EngineModel,
		Phase:       model.Phase(s.Phase),
		Throttle:    get(model.ParamThrottle, s.Throttle),
		RPM:         get(model.ParamRPM, s.RPM),
		FuelFlow:    get(model.ParamFuelFlow, s.FuelFlow),
		EGT:         get(model.ParamEGT, s.EGT),
		OilTemp:     get(model.ParamOilTemp, s.OilTemp),
		OilPressure: get(model.ParamOilPressure, s.OilPressure),
		Vibration:   get(model.ParamVibration, s.Vibration),
	}}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	r.Sample.Timestamp = now
	if s.Timestamp != "" {
		ts, err := parseTimestamp(s.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("decode reading: %w", err)
		}
		r.Sample.Timestamp = ts
	}

	if w.Prediction != nil {
		r.Prediction.Label = *w.Prediction
	}
	r.Prediction.Probabilities = w.Probabilities
	return r, nil
}

// EncodeReading renders r in the backend layout.
func EncodeReading(r model.Reading) ([]byte, error) {
	s := r.Sample
	w := wireReading{
		Sample: &wireSample{
			Timestamp:   s.Timestamp.Format("2006-01-02T15:04:05.000000"),
			AircraftID:  s.AircraftID,
			EngineModel: s.EngineModel,
			Phase:       string(s.Phase),
			Throttle:    &s.Throttle,
			RPM:         &s.RPM,
			FuelFlow:    &s.FuelFlow,
			EGT:         &s.EGT,
			OilTemp:     &s.OilTemp,
			OilPressure: &s.OilPressure,
			Vibration:   &s.Vibration,
		},
		Probabilities: r.Prediction.Probabilities,
	}
	if r.Prediction.Label != "" {
		label := r.Prediction.Label
		w.Prediction = &label
	}
	return json.Marshal(w)
}
