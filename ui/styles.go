package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

var (
	// Colors
	colorRed     = lipgloss.Color("#FF5555")
	colorYellow  = lipgloss.Color("#F1FA8C")
	colorGreen   = lipgloss.Color("#50FA7B")
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorMagenta = lipgloss.Color("#FF79C6")
	colorOrange  = lipgloss.Color("#FFB86C")
	colorWhite   = lipgloss.Color("#F8F8F2")
	colorGray    = lipgloss.Color("#6272A4")
	colorPanel   = lipgloss.Color("#44475A")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	valueStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	warnStyle     = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(colorGreen)
	headerStyle   = lipgloss.NewStyle().Foreground(colorMagenta).Bold(true)
	selectedStyle = lipgloss.NewStyle().Background(colorPanel).Foreground(colorWhite)
	helpStyle     = lipgloss.NewStyle().Foreground(colorGray)
	dimStyle      = lipgloss.NewStyle().Foreground(colorGray)
	orangeStyle   = lipgloss.NewStyle().Foreground(colorOrange)

	bannerOK   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#282A36")).Background(colorGreen).Padding(0, 1)
	bannerWarn = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#282A36")).Background(colorYellow).Padding(0, 1)
	bannerCrit = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorRed).Padding(0, 1)
)

// healthColor maps a health level onto the status classes.
func healthColor(h model.HealthLevel) lipgloss.Style {
	switch h {
	case model.HealthOK:
		return okStyle
	case model.HealthWarning:
		return warnStyle
	case model.HealthCritical:
		return critStyle
	default:
		return dimStyle
	}
}

func bannerStyle(h model.HealthLevel) lipgloss.Style {
	switch h {
	case model.HealthWarning:
		return bannerWarn
	case model.HealthCritical:
		return bannerCrit
	default:
		return bannerOK
	}
}

// scoreColor colors a deviation score. Zero is in band; a tenth of the
// possible span outside the band is treated as severe.
func scoreColor(score float64) lipgloss.Style {
	switch {
	case score >= 0.1:
		return critStyle
	case score > 0:
		return warnStyle
	default:
		return okStyle
	}
}
