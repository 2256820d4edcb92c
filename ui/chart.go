package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// areaChart renders a multi-line area chart with Y-axis labels, sub-cell
// resolution using fractional block characters, and per-cell coloring.
//
//	EGT                                               now: 742.0
//	 900│
//	 725│          ████
//	 550│        ████████       ██
//	 375│████████████████████████████████
//	    └────────────────────────────────────────
//	    16:30:00                        16:35:00
func areaChart(data []float64, label string, width, height int, minVal, maxVal float64,
	colorFn func(val float64) lipgloss.Style, startTime, endTime time.Time) string {

	height = max(2, height)
	if maxVal <= minVal {
		maxVal = minVal + 1
	}

	axisW := 5 // e.g. "9000│"
	chartW := max(10, width-axisW-1)
	resampled := resampleData(data, chartW)

	// Sub-block characters for fractional fill within a cell
	subBlocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var sb strings.Builder

	last := 0.0
	if len(resampled) > 0 {
		last = resampled[len(resampled)-1]
	}
	sb.WriteString(titleStyle.Render(label))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  now: %.1f", last)))
	sb.WriteString("\n")

	rangeVal := maxVal - minVal
	for row := height - 1; row >= 0; row-- {
		yVal := minVal + (float64(row+1)/float64(height))*rangeVal
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%4.0f│", yVal)))

		for _, val := range resampled {
			normalized := (val - minVal) / rangeVal * float64(height)
			cellBottom := float64(row)
			cellTop := float64(row + 1)

			var ch rune
			switch {
			case normalized >= cellTop:
				ch = '█'
			case normalized <= cellBottom:
				ch = ' '
			default:
				idx := int((normalized - cellBottom) * 8)
				ch = subBlocks[max(0, min(len(subBlocks)-1, idx))]
			}
			if ch == ' ' {
				sb.WriteRune(' ')
			} else {
				sb.WriteString(colorFn(val).Render(string(ch)))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(dimStyle.Render("    └" + strings.Repeat("─", len(resampled))))
	sb.WriteString("\n")

	if !startTime.IsZero() && !endTime.IsZero() {
		left := startTime.Format("15:04:05")
		right := endTime.Format("15:04:05")
		gap := max(1, len(resampled)-len(left)-len(right)+1)
		sb.WriteString(dimStyle.Render("    " + left + strings.Repeat(" ", gap) + right))
	}

	return sb.String()
}

// resampleData reduces or returns data to fit targetWidth columns.
func resampleData(data []float64, targetWidth int) []float64 {
	if len(data) <= targetWidth || targetWidth <= 0 {
		return data
	}
	result := make([]float64, targetWidth)
	for i := range targetWidth {
		// Average the bucket of source values that map to this column
		srcStart := i * len(data) / targetWidth
		srcEnd := min(len(data), (i+1)*len(data)/targetWidth)
		if srcStart >= srcEnd {
			srcStart = max(0, srcEnd-1)
		}
		sum := 0.0
		for _, v := range data[srcStart:srcEnd] {
			sum += v
		}
		if n := srcEnd - srcStart; n > 0 {
			result[i] = sum / float64(n)
		}
	}
	return result
}

// bandChartColor colors values against a parameter's normal band.
func bandChartColor(r model.ParameterRange) func(float64) lipgloss.Style {
	span := r.MaxPossible - r.MinPossible
	return func(v float64) lipgloss.Style {
		if r.Contains(v) || span <= 0 {
			return okStyle
		}
		dist := math.Min(math.Abs(v-r.Min), math.Abs(v-r.Max))
		if dist/span >= 0.1 {
			return critStyle
		}
		return warnStyle
	}
}

// chartBounds picks the Y axis for a series: the possible span when the
// parameter has one, otherwise the data extent with some headroom.
func chartBounds(data []float64, r model.ParameterRange, hasRange bool) (lo, hi float64) {
	if hasRange && r.MaxPossible > r.MinPossible {
		lo, hi = r.MinPossible, r.MaxPossible
	} else if len(data) > 0 {
		lo, hi = data[0], data[0]
	}
	for _, v := range data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= lo {
		hi = lo + 1
	}
	if !hasRange {
		pad := (hi - lo) * 0.15
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}
