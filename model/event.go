package model

import "time"

// Event represents a detected anomaly episode: consecutive readings whose
// prediction label was not NORMAL.
type Event struct {
	ID            string             `json:"id"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       time.Time          `json:"end_time,omitempty"`
	Duration      int                `json:"duration_sec,omitempty"`
	PeakHealth    HealthLevel        `json:"peak_health"`
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	WorstParam    string             `json:"worst_param,omitempty"`
	PeakScore     float64            `json:"peak_score,omitempty"`
	AircraftID    string             `json:"aircraft_id,omitempty"`
	Active        bool               `json:"active"`
	Timeline      []TimelineEntry    `json:"timeline,omitempty"`
}

// TimelineEntry is a timestamped milestone within an event.
type TimelineEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}
