package model

import "time"

// Warning is an early sign that an in-band parameter is drifting toward
// one of its limits.
type Warning struct {
	Severity  string `json:"severity"` // info, warn, crit
	Parameter string `json:"parameter"`
	Detail    string `json:"detail"`
	Value     string `json:"value"`
}

// Onset records when a parameter first left its normal band.
type Onset struct {
	Parameter string    `json:"parameter"`
	FirstSeen time.Time `json:"first_seen"`
	Sequence  int       `json:"sequence"`
}

// OnsetChain orders the currently out-of-band parameters by when they left
// their band, earliest first.
type OnsetChain struct {
	Onsets     []Onset `json:"onsets"`
	Summary    string  `json:"summary"`
	FirstMover string  `json:"first_mover"`
}
