package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/report"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

// runExport collects readings into history and writes the PDF report.
// A replay exports the whole recording; a simulated feed is polled without
// waiting; a live feed is polled -count times, one interval apart.
func runExport(ctx context.Context, t engine.Ticker, o Options, w io.Writer) error {
	samples := max(1, o.WatchCount)
	wait := o.Interval()
	if p, ok := t.(*engine.Player); ok {
		samples = p.Len()
		wait = 0
	} else if _, ok := t.Base().Feed().(*collector.Simulator); ok {
		wait = 0
	}

	detector := newDetector(o.App.Alerts)
	for i := range samples {
		if i > 0 && wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		snap, result := t.Tick(ctx)
		if snap != nil && result == nil {
			slog.Warn("poll failed", "errors", snap.Errors)
			continue
		}
		detector.Process(snap, result)
	}

	events := detector.Events()
	if active := detector.ActiveEvent(); active != nil {
		events = append([]model.Event{*active}, events...)
	}
	d, ok := report.FromHistory(t.Base().History, events)
	if !ok {
		return fmt.Errorf("no readings to export")
	}
	res, err := newExporter(o.App.Report).Export(ctx, d, o.ExportPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Exported %s (%d pages, %s, %d readings)\n",
		res.Path, res.Pages(), util.FormatSize(res.Bytes), t.Base().History.Len())
	return nil
}
