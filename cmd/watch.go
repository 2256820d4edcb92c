package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

// ── ANSI color/style codes ──────────────────────────────────────────────────

const (
	R = "\033[0m" // reset
	B = "\033[1m" // bold
	D = "\033[2m" // dim

	FRed = "\033[31m"
	FGrn = "\033[32m"
	FYel = "\033[33m"
	FCyn = "\033[36m"

	FBRed = "\033[91m"
	FBGrn = "\033[92m"
	FBYel = "\033[93m"
	FBWht = "\033[97m"

	BRed = "\033[41m"
	BGrn = "\033[42m"
	BYel = "\033[43m"
	BBlu = "\033[44m"
)

// ── Styling helpers ─────────────────────────────────────────────────────────

func healthBadge(h model.HealthLevel) string {
	switch h {
	case model.HealthOK:
		return fmt.Sprintf("%s%s NORMAL %s", B, BGrn+FBWht, R)
	case model.HealthWarning:
		return fmt.Sprintf("%s%s WARNING %s", B, BYel, R)
	case model.HealthCritical:
		return fmt.Sprintf("%s%s CRITICAL %s", B, BRed+FBWht, R)
	}
	return fmt.Sprintf("%s UNKNOWN %s", D, R)
}

func cscore(s float64) string {
	switch {
	case s >= 0.1:
		return fmt.Sprintf("%s%s%6.3f%s", B, FBRed, s, R)
	case s > 0:
		return fmt.Sprintf("%s%6.3f%s", FBYel, s, R)
	default:
		return fmt.Sprintf("%s%6.3f%s", FBGrn, s, R)
	}
}

// rangeBar draws the possible span as w cells with the normal band as '-'
// and the value as '|'.
func rangeBar(p model.ParameterStatus, w int) string {
	if !p.HasRange || p.Err != "" {
		return D + strings.Repeat(".", w) + R
	}
	cell := func(pct float64) int { return min(w-1, max(0, int(pct/100*float64(w)))) }
	lo, hi, mark := cell(min(p.Band.StartPct, p.Band.EndPct)), cell(max(p.Band.StartPct, p.Band.EndPct)), cell(p.ValuePct)

	var sb strings.Builder
	sb.WriteString(D + "[" + R)
	for i := range w {
		switch {
		case i == mark && p.Score > 0:
			sb.WriteString(B + FBRed + "|" + R)
		case i == mark:
			sb.WriteString(B + FBGrn + "|" + R)
		case i >= lo && i <= hi:
			sb.WriteString(FGrn + "-" + R)
		default:
			sb.WriteString(D + "." + R)
		}
	}
	sb.WriteString(D + "]" + R)
	return sb.String()
}

func hr() string {
	return D + strings.Repeat("─", 78) + R
}

// runWatch polls immediately, then every interval, printing the overview
// until ctx is cancelled or -count iterations have printed.
func runWatch(ctx context.Context, t engine.Ticker, o Options, w io.Writer) error {
	tk := time.NewTicker(o.Interval())
	defer tk.Stop()

	iteration := 0
	for {
		snap, result := t.Tick(ctx)
		if snap != nil {
			iteration++
			fmt.Fprint(w, "\033[2J\033[H")

			iter := fmt.Sprintf("#%d", iteration)
			if o.WatchCount > 0 {
				iter = fmt.Sprintf("#%d/%d", iteration, o.WatchCount)
			}
			fmt.Fprintf(w, " %s%s enginetwin v%s %s  %s  %severy %s%s  %s\n",
				B, BBlu+FBWht, Version, R,
				B+snap.Timestamp.Format("15:04:05")+R,
				D, util.FormatDuration(o.Interval()), R,
				D+iter+R)
			fmt.Fprintln(w, hr())

			if result == nil {
				fmt.Fprintf(w, "\n %s%sPoll failed:%s %s\n", B, FRed, R, strings.Join(snap.Errors, "; "))
			} else {
				watchOverview(w, snap, result)
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, hr())
			fmt.Fprintf(w, " %sCtrl+C%s to quit\n", B, R)

			if o.WatchCount > 0 && iteration >= o.WatchCount {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			fmt.Fprintf(w, "\n%sStopped.%s\n", D, R)
			return nil
		case <-tk.C:
		}
	}
}

func watchOverview(w io.Writer, snap *model.Snapshot, result *model.AnalysisResult) {
	s := snap.Reading.Sample
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %sAircraft%s %s  %sEngine%s %s  %sPhase%s %s\n",
		D, R, s.AircraftID, D, R, s.EngineModel, D, R, s.Phase)
	fmt.Fprintln(w)

	switch {
	case result.Label == "":
		fmt.Fprintf(w, " %sNo prediction%s\n", D, R)
	case result.Anomalous():
		fmt.Fprintf(w, " %s  %s%sALERT: %s condition detected%s\n", healthBadge(result.Health), B, FBRed, result.Label, R)
	default:
		fmt.Fprintf(w, " %s\n", healthBadge(result.Health))
	}
	if probs := util.FormatProbabilities(result.Probabilities, 1); probs != "" {
		fmt.Fprintf(w, " %sProbabilities:%s %s\n", D, R, probs)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, " %s%-12s %9s  %-15s %6s  %6s  %s%s\n", B+FCyn, "PARAMETER", "VALUE", "NORMAL", "SCALE", "SCORE", "RANGE", R)
	for _, p := range result.Parameters {
		switch {
		case !p.HasRange:
			fmt.Fprintf(w, " %-12s %9s  %sno range%s\n", p.Name, util.FormatValue(p.Value), D, R)
		case p.Err != "":
			fmt.Fprintf(w, " %-12s %9s  %s%s%s\n", p.Name, util.FormatValue(p.Value), FRed, p.Err, R)
		default:
			normal := fmt.Sprintf("%s - %s", util.FormatValue(p.Range.Min), util.FormatValue(p.Range.Max))
			fmt.Fprintf(w, " %-12s %9s  %-15s %5.1f%%  %s  %s\n",
				p.Name, util.FormatValue(p.Value), normal, p.ValuePct, cscore(p.Score), rangeBar(p, 24))
		}
	}
	fmt.Fprintln(w)

	switch wp := result.Worst; {
	case wp == nil:
		fmt.Fprintf(w, " %sWorst parameter: none scored%s\n", D, R)
	case wp.Score == 0:
		fmt.Fprintf(w, " %sAll parameters within normal range%s\n", FBGrn, R)
	default:
		fmt.Fprintf(w, " Worst parameter: %s%s%s%s (value %s, score %.3f)\n",
			B, FBRed, wp.Name, R, util.FormatValue(wp.Value), wp.Score)
	}
	if oob := engine.OutOfBand(result); len(oob) > 1 {
		names := make([]string, len(oob))
		for i, p := range oob {
			names[i] = p.Name
		}
		fmt.Fprintf(w, " %sOut of band:%s %s%s%s\n", D, R, FYel, strings.Join(names, ", "), R)
	}
	if result.Chain != nil && len(result.Chain.Onsets) > 1 {
		fmt.Fprintf(w, " %sSequence:%s %s\n", D, R, result.Chain.Summary)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, " %sEARLY WARNINGS%s\n", B+FCyn, R)
		for _, wn := range result.Warnings {
			fmt.Fprintf(w, "  %s %-12s %s  %s%s%s\n", warnBadge(wn.Severity), wn.Parameter, wn.Detail, D, wn.Value, R)
		}
	}
}

func warnBadge(sev string) string {
	switch sev {
	case "crit":
		return B + FBRed + "[CRIT]" + R
	case "warn":
		return FBYel + "[WARN]" + R
	}
	return D + "[INFO]" + R
}
