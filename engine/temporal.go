package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// UpdateOnsets records when each parameter left its normal band and forgets
// parameters that are back inside it. Call once per analyzed reading with
// the reading's timestamp.
func UpdateOnsets(hist *History, result *model.AnalysisResult, at time.Time) {
	if hist == nil || result == nil {
		return
	}
	hist.mu.Lock()
	defer hist.mu.Unlock()

	out := make(map[string]bool)
	for _, p := range result.Parameters {
		if p.HasRange && p.Err == "" && p.Score > 0 {
			out[p.Name] = true
			if _, exists := hist.onsets[p.Name]; !exists {
				hist.onsets[p.Name] = at
			}
		}
	}
	for name := range hist.onsets {
		if !out[name] {
			delete(hist.onsets, name)
		}
	}
}

// ResetOnsets forgets all onset times, e.g. after seeking in a replay.
func (h *History) ResetOnsets() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.onsets)
}

// BuildOnsetChain orders the out-of-band parameters of result by onset,
// earliest first. Nil when every parameter is in band.
func BuildOnsetChain(result *model.AnalysisResult, hist *History) *model.OnsetChain {
	if hist == nil || result == nil {
		return nil
	}
	hist.mu.RLock()
	defer hist.mu.RUnlock()

	var onsets []model.Onset
	for _, p := range result.Parameters {
		if at, ok := hist.onsets[p.Name]; ok && p.Score > 0 {
			onsets = append(onsets, model.Onset{Parameter: p.Name, FirstSeen: at})
		}
	}
	if len(onsets) == 0 {
		return nil
	}

	// Stable keeps catalog order for parameters that left together.
	sort.SliceStable(onsets, func(i, j int) bool {
		return onsets[i].FirstSeen.Before(onsets[j].FirstSeen)
	})

	earliest := onsets[0].FirstSeen
	parts := make([]string, 0, min(len(onsets), 5))
	for i := range onsets {
		onsets[i].Sequence = i
		if i < 5 {
			offset := onsets[i].FirstSeen.Sub(earliest)
			parts = append(parts, fmt.Sprintf("%s (T+%ds)", onsets[i].Parameter, int(offset.Seconds())))
		}
	}

	return &model.OnsetChain{
		Onsets:     onsets,
		Summary:    strings.Join(parts, " → "),
		FirstMover: onsets[0].Parameter,
	}
}
