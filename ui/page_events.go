package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

func renderEventsPage(active *model.Event, completed []model.Event, selected int, width int) string {
	var sb strings.Builder

	total := len(completed)
	if active != nil {
		total++
	}
	sb.WriteString(titleStyle.Render(fmt.Sprintf("EVENTS  (%d events)", total)))
	sb.WriteString("\n\n")

	if active != nil {
		sb.WriteString(critStyle.Render("  ACTIVE ANOMALY"))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  Started: %s  Label: %s  Worst: %s  Score: %s\n",
			valueStyle.Render(active.StartTime.Format("15:04:05")),
			healthColor(active.PeakHealth).Render(active.Label),
			warnStyle.Render(orDash(active.WorstParam)),
			fmtScore(active.PeakScore)))
		if probs := util.FormatProbabilities(active.Probabilities, 1); probs != "" {
			sb.WriteString("  " + dimStyle.Render(probs) + "\n")
		}
		sb.WriteString("\n")
	}

	if len(completed) == 0 {
		if active == nil {
			sb.WriteString(okStyle.Render("  No anomalies detected yet"))
			sb.WriteString("\n")
			sb.WriteString(dimStyle.Render("  Events open when the prediction label leaves NORMAL"))
		}
		return sb.String()
	}

	hdr := fmt.Sprintf("  %-10s %-17s %8s  %-10s %-12s %7s  %s",
		"STATUS", "TIME RANGE", "DURATION", "PEAK", "WORST", "SCORE", "AIRCRAFT")
	sb.WriteString(headerStyle.Render(hdr))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", max(10, width-4))))
	sb.WriteString("\n")

	for i, evt := range completed {
		timeRange := evt.StartTime.Format("15:04:05")
		if !evt.EndTime.IsZero() {
			timeRange += "-" + evt.EndTime.Format("15:04:05")
		}
		dur := util.FormatDuration(time.Duration(evt.Duration) * time.Second)

		line := fmt.Sprintf("  %s %-17s %8s  %s %-12s %s  %s",
			styledPad(okStyle.Render("RESOLVED"), 10), timeRange, dur,
			styledPad(healthBadge(evt.PeakHealth), 10),
			padRight(orDash(evt.WorstParam), 12),
			styledPad(fmtScore(evt.PeakScore), 7),
			evt.AircraftID)
		if i == selected {
			sb.WriteString(selectedStyle.Render(line))
		} else {
			sb.WriteString(line)
		}
		sb.WriteString("\n")

		if i == selected {
			for _, te := range evt.Timeline {
				sb.WriteString(fmt.Sprintf("    %s %s %s\n", dimStyle.Render("->"), te.Time.Format("15:04:05"), te.Message))
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  j/k: navigate"))
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
