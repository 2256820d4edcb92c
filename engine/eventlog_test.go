package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/config"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

func tick(d *EventDetector, at int, label string, egt float64) *model.Event {
	r := testReading(label, egt)
	snap := &model.Snapshot{Timestamp: time.Unix(int64(at), 0), Reading: r}
	return d.Process(snap, Analyze(r, config.DefaultCatalog()))
}

func TestEventDetectorLifecycle(t *testing.T) {
	d := NewEventDetector()

	if ev := tick(d, 0, "NORMAL", 600); ev != nil || d.ActiveEvent() != nil {
		t.Fatal("NORMAL reading opened an event")
	}
	tick(d, 60, "WARNING", 800)
	active := d.ActiveEvent()
	if active == nil || active.Label != "WARNING" || active.AircraftID != "HAL-HJT-01" {
		t.Fatalf("active = %+v", active)
	}
	tick(d, 120, "CRITICAL", 880)
	active = d.ActiveEvent()
	if active.PeakHealth != model.HealthCritical || active.Label != "CRITICAL" {
		t.Errorf("peak not escalated: %+v", active)
	}
	if active.WorstParam != model.ParamEGT {
		t.Errorf("worst = %q", active.WorstParam)
	}

	closed := tick(d, 180, "NORMAL", 600)
	if closed == nil {
		t.Fatal("NORMAL after anomaly should close the event")
	}
	if closed.Active || closed.Duration != 120 {
		t.Errorf("closed = %+v", closed)
	}
	if len(closed.Timeline) != 3 {
		t.Errorf("timeline = %+v", closed.Timeline)
	}
	if d.ActiveEvent() != nil || len(d.Events()) != 1 {
		t.Error("event should move to completed")
	}
}

func TestEventDetectorDebounce(t *testing.T) {
	d := NewEventDetector()
	d.SetDebounce(2)
	tick(d, 0, "WARNING", 800)
	if d.ActiveEvent() != nil {
		t.Fatal("single anomalous reading opened event with debounce 2")
	}
	tick(d, 60, "WARNING", 800)
	if d.ActiveEvent() == nil {
		t.Fatal("second anomalous reading should open event")
	}
}

func TestEventDetectorIgnoresUnlabelled(t *testing.T) {
	d := NewEventDetector()
	tick(d, 0, "WARNING", 800)
	if ev := tick(d, 60, "", 600); ev != nil || d.ActiveEvent() == nil {
		t.Error("reading without prediction should not close the event")
	}
}

func TestEventLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	w := NewEventLogWriter(path)
	for _, id := range []string{"a", "b"} {
		if err := w.Write(model.Event{ID: id, Label: "WARNING"}); err != nil {
			t.Fatal(err)
		}
	}
	events, err := ReadEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != "a" || events[1].ID != "b" {
		t.Errorf("events = %+v", events)
	}

	d := NewEventDetector()
	d.LoadEvents(events)
	if got := d.Events(); len(got) != 2 || got[0].ID != "b" {
		t.Errorf("Events() = %+v, want newest first", got)
	}

	missing, err := ReadEventLog(filepath.Join(t.TempDir(), "none.jsonl"))
	if err != nil || missing != nil {
		t.Errorf("missing log = %v, %v", missing, err)
	}
}
