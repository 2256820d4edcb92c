package ui

import (
	"fmt"
	"strings"

	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

func renderOverview(snap *model.Snapshot, result *model.AnalysisResult, history *engine.History, width int) string {
	var sb strings.Builder
	s := snap.Reading.Sample
	innerW := pageInnerW(width)

	sb.WriteString(titleStyle.Render("ENGINE HEALTH"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s  %s  %s  %s",
		s.AircraftID, s.EngineModel, s.Phase, snap.Timestamp.Format("2006-01-02 15:04:05"))))
	sb.WriteString("\n\n")

	sb.WriteString(" " + renderBanner(result))
	sb.WriteString("\n")
	if probs := util.FormatProbabilities(result.Probabilities, 1); probs != "" {
		sb.WriteString(" " + dimStyle.Render("Probabilities: ") + valueStyle.Render(probs))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	barW := max(10, innerW-colName-colVal-colRange-colPct-colScore-5)
	lines := []string{headerStyle.Render(fmt.Sprintf("%-*s %*s %-*s %*s %*s %s",
		colName, "PARAMETER", colVal, "VALUE", colRange, "NORMAL", colPct, "SCALE", colScore, "SCORE", "RANGE"))}
	for _, p := range result.Parameters {
		lines = append(lines, parameterRow(p, barW))
	}
	sb.WriteString(boxSection("PARAMETERS", lines, innerW))

	sb.WriteString(" " + worstLine(result))
	sb.WriteString("\n")
	if result.Chain != nil && len(result.Chain.Onsets) > 1 {
		sb.WriteString(" " + dimStyle.Render("Sequence: ") + orangeStyle.Render(result.Chain.Summary))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(result.Warnings) > 0 {
		var lines []string
		for _, w := range result.Warnings {
			lines = append(lines, fmt.Sprintf("%s %s %s %s",
				warnBadge(w.Severity),
				styledPad(valueStyle.Render(w.Parameter), colName),
				w.Detail,
				dimStyle.Render(w.Value)))
		}
		sb.WriteString(boxSection("EARLY WARNINGS", lines, innerW))
	}

	if history != nil && history.Len() > 1 {
		sparkW := max(10, innerW-colName-12)
		var trend []string
		for _, p := range result.Parameters {
			data := history.Series(p.Name)
			lo, hi := chartBounds(data, p.Range, p.HasRange)
			trend = append(trend, styledPad(valueStyle.Render(p.Name), colName)+" "+sparkline(data, sparkW, lo, hi))
		}
		sb.WriteString(boxSection(fmt.Sprintf("TRENDS (last %d)", history.Len()), trend, innerW))
	}
	return sb.String()
}

// renderBanner shows the alert when the prediction flags an anomaly. The
// deviation score never raises it.
func renderBanner(result *model.AnalysisResult) string {
	switch {
	case result.Label == "":
		return dimStyle.Render("No prediction")
	case result.Anomalous():
		return bannerStyle(result.Health).Render(fmt.Sprintf("ALERT: %s condition detected", result.Label))
	default:
		return bannerOK.Render("Status: " + result.Label)
	}
}

func parameterRow(p model.ParameterStatus, barW int) string {
	name := styledPad(valueStyle.Render(padRight(p.Name, colName)), colName)
	val := padLeft(util.FormatValue(p.Value), colVal)
	if !p.HasRange {
		return fmt.Sprintf("%s %s %s", name, val, dimStyle.Render("no range"))
	}
	if p.Err != "" {
		return fmt.Sprintf("%s %s %s", name, val, critStyle.Render(truncate(p.Err, 40)))
	}
	rng := padRight(fmt.Sprintf("%s - %s", util.FormatValue(p.Range.Min), util.FormatValue(p.Range.Max)), colRange)
	return fmt.Sprintf("%s %s %s %s %s %s",
		name, val, dimStyle.Render(rng),
		padLeft(fmtPct(p.ValuePct), colPct),
		styledPad(fmtScore(p.Score), colScore),
		rangeBar(p, barW))
}

func warnBadge(sev string) string {
	switch sev {
	case "crit":
		return critStyle.Render("CRIT")
	case "warn":
		return warnStyle.Render("WARN")
	}
	return dimStyle.Render("INFO")
}

func worstLine(result *model.AnalysisResult) string {
	w := result.Worst
	switch {
	case w == nil:
		return dimStyle.Render("Worst parameter: none scored")
	case w.Score == 0:
		return okStyle.Render("All parameters within normal range")
	}
	return fmt.Sprintf("%s %s %s",
		dimStyle.Render("Worst parameter:"),
		critStyle.Render(w.Name),
		dimStyle.Render(fmt.Sprintf("(value %s, score %.3f)", util.FormatValue(w.Value), w.Score)))
}
