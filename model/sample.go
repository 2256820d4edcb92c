package model

import "time"

// Parameter names as reported by the sensor feed.
const (
	ParamThrottle    = "Throttle"
	ParamRPM         = "RPM"
	ParamFuelFlow    = "FuelFlow"
	ParamEGT         = "EGT"
	ParamOilTemp     = "OilTemp"
	ParamOilPressure = "OilPressure"
	ParamVibration   = "Vibration"
)

// ParameterNames lists the engine parameters in display order.
var ParameterNames = []string{
	ParamThrottle,
	ParamRPM,
	ParamFuelFlow,
	ParamEGT,
	ParamOilTemp,
	ParamOilPressure,
	ParamVibration,
}

// Phase is the flight phase a sample was taken in.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseTakeoff Phase = "TAKEOFF"
	PhaseCruise  Phase = "CRUISE"
	PhaseDescent Phase = "DESCENT"
)

// Sample is one engine sensor sample.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	AircraftID  string    `json:"aircraft_id"`
	EngineModel string    `json:"engine_model"`
	Phase       Phase     `json:"phase"`
	Throttle    float64   `json:"throttle"`
	RPM         float64   `json:"rpm"`
	FuelFlow    float64   `json:"fuel_flow"`
	EGT         float64   `json:"egt"`
	OilTemp     float64   `json:"oil_temp"`
	OilPressure float64   `json:"oil_pressure"`
	Vibration   float64   `json:"vibration"`
}

// NamedValue pairs a parameter name with its raw value.
type NamedValue struct {
	Name  string
	Value float64
}

// Values returns the sample's parameters in ParameterNames order.
func (s Sample) Values() []NamedValue {
	return []NamedValue{
		{ParamThrottle, s.Throttle},
		{ParamRPM, s.RPM},
		{ParamFuelFlow, s.FuelFlow},
		{ParamEGT, s.EGT},
		{ParamOilTemp, s.OilTemp},
		{ParamOilPressure, s.OilPressure},
		{ParamVibration, s.Vibration},
	}
}

// Value looks up a parameter by name.
func (s Sample) Value(name string) (float64, bool) {
	for _, nv := range s.Values() {
		if nv.Name == name {
			return nv.Value, true
		}
	}
	return 0, false
}

// Prediction is the classification attached to a sample by the backend.
// Label is empty when no model ran.
type Prediction struct {
	Label         string             `json:"label,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// LabelNormal is the prediction label for a healthy engine.
const LabelNormal = "NORMAL"

// Anomalous reports whether the label flags an anomaly.
// An empty label means no prediction and is not an anomaly.
func (p Prediction) Anomalous() bool {
	return p.Label != "" && p.Label != LabelNormal
}

// Reading is what a feed delivers per poll.
type Reading struct {
	Sample     Sample     `json:"sample"`
	Prediction Prediction `json:"prediction"`
}
