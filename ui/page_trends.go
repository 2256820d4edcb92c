package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

func renderTrendsPage(history *engine.History, catalog model.Catalog, width int) string {
	var sb strings.Builder

	n := history.Len()
	if n < 2 {
		sb.WriteString(titleStyle.Render("TRENDS"))
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("  Need more data (collecting...)"))
		return sb.String()
	}

	var startTime, endTime time.Time
	if oldest, latest := history.Get(0), history.Latest(); oldest != nil && latest != nil {
		startTime, endTime = oldest.Timestamp, latest.Timestamp
	}
	sb.WriteString(titleStyle.Render("TRENDS"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf(" (%s, %d of %d samples)",
		util.FormatDuration(endTime.Sub(startTime)), n, history.Cap())))
	sb.WriteString("\n\n")

	chartW := max(30, width-4)
	for _, name := range model.ParameterNames {
		data := history.Series(name)
		r, ok := catalog.Lookup(name)
		lo, hi := chartBounds(data, r, ok)
		label := name
		if ok {
			label += dimStyle.Render(fmt.Sprintf("  normal %s - %s", util.FormatValue(r.Min), util.FormatValue(r.Max)))
		}
		sb.WriteString(areaChart(data, label, chartW, 5, lo, hi, bandChartColor(r), startTime, endTime))
		sb.WriteString("\n")
		if ok {
			sb.WriteString(scoreTrend(history.ScoreSeries(name), chartW))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// scoreTrend draws the deviation score history under a chart. The scale
// starts at 0.1 so in-band noise stays flat.
func scoreTrend(scores []float64, width int) string {
	peak := 0.1
	for _, v := range scores {
		peak = max(peak, v)
	}
	return styledPad(dimStyle.Render("  deviation"), colName) + " " +
		sparkline(scores, max(10, width-colName-12), 0, peak)
}
