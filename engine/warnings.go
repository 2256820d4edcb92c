package engine

import (
	"fmt"
	"math"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

const (
	// edgeMargin is the fraction of the normal band, measured from the
	// nearer limit, inside which an in-band value raises a warning.
	edgeMargin = 0.10
	// trendWindow is how many recent readings the drift estimate uses.
	trendWindow = 6
	// trendHorizon is how many readings ahead a drift must cross a limit
	// to be reported.
	trendHorizon = 5.0
)

// ComputeWarnings detects in-band parameters that sit close to a normal
// limit or are drifting toward one. history holds the readings before
// result, oldest first; it may be nil.
func ComputeWarnings(result *model.AnalysisResult, hist *History) []model.Warning {
	if result == nil {
		return nil
	}
	var warns []model.Warning
	for _, p := range result.Parameters {
		if !p.InBand() {
			continue
		}
		lo, hi := p.Range.Min, p.Range.Max
		width := hi - lo
		if width <= 0 {
			continue
		}

		// Proximity to the nearer limit.
		toLo, toHi := (p.Value-lo)/width, (hi-p.Value)/width
		if m := min(toLo, toHi); m < edgeMargin {
			side, limit := "upper", hi
			if toLo < toHi {
				side, limit = "lower", lo
			}
			warns = append(warns, model.Warning{
				Severity:  severity(1-m/edgeMargin, 0.5, 0.8),
				Parameter: p.Name,
				Detail:    fmt.Sprintf("Near %s normal limit", side),
				Value:     fmt.Sprintf("%s (limit %s)", util.FormatValue(p.Value), util.FormatValue(limit)),
			})
			continue
		}

		// Drift toward a limit.
		if hist == nil {
			continue
		}
		series := hist.Series(p.Name)
		if len(series) > trendWindow-1 {
			series = series[len(series)-(trendWindow-1):]
		}
		series = append(series, p.Value)
		grad, ok := slope(series)
		if !ok || grad == 0 {
			continue
		}
		remaining, dir := hi-p.Value, "Rising"
		if grad < 0 {
			remaining, dir = p.Value-lo, "Falling"
		}
		steps := remaining / math.Abs(grad)
		if steps > trendHorizon {
			continue
		}
		warns = append(warns, model.Warning{
			Severity:  severity(trendHorizon-steps, 2, 4),
			Parameter: p.Name,
			Detail:    fmt.Sprintf("%s toward normal limit", dir),
			Value:     fmt.Sprintf("%+.2f/reading, ~%.0f readings left", grad, steps),
		})
	}
	return warns
}

// slope is the least-squares gradient of ys against their index.
func slope(ys []float64) (float64, bool) {
	n := float64(len(ys))
	if n < 3 {
		return 0, false
	}
	var sx, sy, sxx, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, false
	}
	return (n*sxy - sx*sy) / den, true
}

func severity(value, warnThresh, critThresh float64) string {
	if value >= critThresh {
		return "crit"
	}
	if value >= warnThresh {
		return "warn"
	}
	return "info"
}
