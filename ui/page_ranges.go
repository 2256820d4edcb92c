package ui

import (
	"fmt"
	"strings"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

func renderRangesPage(result *model.AnalysisResult, width int) string {
	var sb strings.Builder
	innerW := pageInnerW(width)
	barW := max(20, innerW-2)

	sb.WriteString(titleStyle.Render("RANGES"))
	sb.WriteString(dimStyle.Render("  normal band ░  value ●  possible span ·"))
	sb.WriteString("\n\n")

	for _, p := range result.Parameters {
		var lines []string
		switch {
		case !p.HasRange:
			lines = append(lines, dimStyle.Render("no declared range"))
		case p.Err != "":
			lines = append(lines, critStyle.Render(p.Err))
		default:
			lines = append(lines,
				rangeBar(p, barW),
				fmt.Sprintf("%s %s  %s %s - %s  %s %s - %s",
					dimStyle.Render("value"), valueStyle.Render(util.FormatValue(p.Value)),
					dimStyle.Render("normal"), util.FormatValue(p.Range.Min), util.FormatValue(p.Range.Max),
					dimStyle.Render("possible"), util.FormatValue(p.Range.MinPossible), util.FormatValue(p.Range.MaxPossible)),
				fmt.Sprintf("%s %s  %s %s - %s  %s %s",
					dimStyle.Render("scale"), fmtPct(p.ValuePct),
					dimStyle.Render("band"), fmtPct(p.Band.StartPct), fmtPct(p.Band.EndPct),
					dimStyle.Render("score"), fmtScore(p.Score)),
			)
		}
		title := p.Name
		if result.Worst != nil && result.Worst.Name == p.Name && result.Worst.Score > 0 {
			title += "  (worst)"
		}
		sb.WriteString(boxSection(title, lines, innerW))
	}
	return sb.String()
}
