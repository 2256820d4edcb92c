package report

import (
	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// FromHistory builds a dashboard of the latest reading in h with the trend of
// every parameter. ok is false when h is empty.
func FromHistory(h *engine.History, events []model.Event) (d Dashboard, ok bool) {
	snap := h.Latest()
	result := h.LatestResult()
	if snap == nil || result == nil {
		return Dashboard{}, false
	}
	d = Dashboard{
		Snapshot: *snap,
		Result:   *result,
		Series:   make(map[string][]float64, len(result.Parameters)),
		Events:   events,
	}
	for _, p := range result.Parameters {
		d.Series[p.Name] = h.Series(p.Name)
	}
	return d, true
}
