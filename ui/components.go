package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// Column widths used across all pages for consistent alignment.
const (
	colName  = 12 // parameter name: "OilPressure"
	colVal   = 9  // raw value
	colRange = 16 // "400 - 750"
	colPct   = 7  // "53.6%"
	colScore = 7  // "0.100"
)

// styledPad pads a styled string to the given visual width using spaces.
// Unlike fmt.Sprintf("%-Xs"), this accounts for ANSI escape codes.
func styledPad(styled string, width int) string {
	visW := lipgloss.Width(styled)
	if visW >= width {
		return styled
	}
	return styled + strings.Repeat(" ", width-visW)
}

// ─── BOX DRAWING HELPERS ─────────────────────────────────────────────────────

// boxTop renders the top border of a rounded box.
// Total visual width = innerW + 5 (1 indent + 1 corner + innerW+2 dashes + 1 corner).
func boxTop(innerW int) string {
	return " " + dimStyle.Render("╭"+strings.Repeat("─", innerW+2)+"╮")
}

// boxBot renders the bottom border of a rounded box.
func boxBot(innerW int) string {
	return " " + dimStyle.Render("╰"+strings.Repeat("─", innerW+2)+"╯")
}

// boxMid renders a horizontal divider inside a box.
func boxMid(innerW int) string {
	return " " + dimStyle.Render("├"+strings.Repeat("─", innerW+2)+"┤")
}

// boxRow renders one content line inside a box, padded to innerW.
func boxRow(content string, innerW int) string {
	pad := max(0, innerW-lipgloss.Width(content))
	return " " + dimStyle.Render("│") + " " + content + strings.Repeat(" ", pad) + " " + dimStyle.Render("│")
}

// boxSection renders a titled section inside a bordered box.
func boxSection(title string, lines []string, innerW int) string {
	var sb strings.Builder
	sb.WriteString(boxTop(innerW) + "\n")
	sb.WriteString(boxRow(headerStyle.Render(title), innerW) + "\n")
	sb.WriteString(boxMid(innerW) + "\n")
	for _, line := range lines {
		sb.WriteString(boxRow(line, innerW) + "\n")
	}
	sb.WriteString(boxBot(innerW) + "\n")
	return sb.String()
}

// pageInnerW computes box inner width from terminal width.
func pageInnerW(termWidth int) int {
	return max(60, termWidth-6)
}

// bar renders a percentage bar of given width.
func bar(pct float64, width int) string {
	if width < 1 {
		width = 10
	}
	pct = math.Max(0, math.Min(100, pct))
	filled := min(width, int(pct/100*float64(width)))
	b := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case pct >= 80:
		return critStyle.Render(b)
	case pct >= 50:
		return warnStyle.Render(b)
	default:
		return okStyle.Render(b)
	}
}

// rangeBar draws the possible span of a parameter as width cells: the
// normal band shaded, the rest dotted, and a marker at the value.
//
//	····░░░░░░░░░░░░●░░░······
func rangeBar(p model.ParameterStatus, width int) string {
	if width < 3 {
		width = 3
	}
	if !p.HasRange || p.Err != "" {
		return dimStyle.Render(strings.Repeat("·", width))
	}
	cell := func(pct float64) int {
		return min(width-1, max(0, int(pct/100*float64(width))))
	}
	start, end := p.Band.StartPct, p.Band.EndPct
	if start > end {
		start, end = end, start
	}
	lo, hi, mark := cell(start), cell(end), cell(p.ValuePct)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == mark:
			sb.WriteString(scoreColor(p.Score).Render("●"))
		case i >= lo && i <= hi:
			sb.WriteString(okStyle.Render("░"))
		default:
			sb.WriteString(dimStyle.Render("·"))
		}
	}
	return sb.String()
}

// padRight pads or truncates s to width runes, adding an ellipsis when
// there is room for one.
func padRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		if len(r) == width {
			return s
		}
		if width > 3 {
			return string(r[:width-3]) + "..."
		}
		return string(r[:max(0, width)])
	}
	return s + strings.Repeat(" ", width-len(r))
}

// truncate shortens s to maxLen runes with ellipsis if needed.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(0, maxLen)])
	}
	return string(r[:maxLen-3]) + "..."
}

func padLeft(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return strings.Repeat(" ", width-len(r)) + s
}

// sparkline renders a single-line chart of data scaled to [minVal, maxVal].
func sparkline(data []float64, width int, minVal, maxVal float64) string {
	if len(data) == 0 {
		return dimStyle.Render(strings.Repeat("░", width) + " no data")
	}
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	if maxVal <= minVal {
		maxVal = minVal + 1
	}

	resampled := resampleData(data, width)

	var sb strings.Builder
	for _, v := range resampled {
		ratio := math.Max(0, math.Min(1, (v-minVal)/(maxVal-minVal)))
		idx := min(len(blocks)-1, int(ratio*float64(len(blocks)-1)))
		switch {
		case ratio > 0.8:
			sb.WriteString(critStyle.Render(string(blocks[idx])))
		case ratio > 0.4:
			sb.WriteString(warnStyle.Render(string(blocks[idx])))
		default:
			sb.WriteString(okStyle.Render(string(blocks[idx])))
		}
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf(" now=%.1f", data[len(data)-1])))
	return sb.String()
}

// healthBadge returns the styled health label.
func healthBadge(h model.HealthLevel) string {
	return healthColor(h).Render(h.String())
}

func fmtPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func fmtScore(s float64) string {
	return scoreColor(s).Render(fmt.Sprintf("%.3f", s))
}
