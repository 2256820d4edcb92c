package util

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatProbabilities renders class probabilities as "LABEL: 12.3%" pairs
// joined by " | ", sorted by label. decimals is the percent precision.
func FormatProbabilities(probs map[string]float64, decimals int) string {
	if len(probs) == 0 {
		return ""
	}
	labels := make([]string, 0, len(probs))
	for k := range probs {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	parts := make([]string, 0, len(labels))
	for _, k := range labels {
		parts = append(parts, fmt.Sprintf("%s: %.*f%%", k, decimals, probs[k]*100))
	}
	return strings.Join(parts, " | ")
}

// FormatValue prints a sensor value with precision suited to its magnitude.
func FormatValue(v float64) string {
	switch {
	case v == 0:
		return "0"
	case v < 0 && v > -10, v > 0 && v < 10:
		return fmt.Sprintf("%.2f", v)
	case v > -1000 && v < 1000:
		return fmt.Sprintf("%.1f", v)
	}
	return humanize.CommafWithDigits(v, 0)
}

// FormatSize renders a byte count (e.g. "1.2 MB").
func FormatSize(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatAge renders how long ago t was ("3 minutes ago").
func FormatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatDuration renders d compactly ("45s", "3m05s", "1h02m").
func FormatDuration(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	switch {
	case s < 0:
		s = 0
		fallthrough
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm%02ds", s/60, s%60)
	}
	return fmt.Sprintf("%dh%02dm", s/3600, (s%3600)/60)
}
