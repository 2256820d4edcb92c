package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func reading(at time.Time, label string, egt float64) (*model.Snapshot, *model.AnalysisResult) {
	snap := &model.Snapshot{
		Timestamp: at,
		Reading: model.Reading{
			Sample: model.Sample{
				Timestamp:  at,
				AircraftID: "HAL-HJT-01",
				Phase:      model.PhaseCruise,
				EGT:        egt,
			},
			Prediction: model.Prediction{Label: label},
		},
	}
	result := &model.AnalysisResult{
		Health: model.HealthFromLabel(label),
		Label:  label,
		Worst:  &model.WorstParameter{Name: model.ParamEGT, Score: 0.1, Value: egt},
	}
	return snap, result
}

func TestSaveAndRecent(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	labels := []string{"NORMAL", "NORMAL", "WARNING", "CRITICAL"}
	for i, l := range labels {
		snap, result := reading(base.Add(time.Duration(i)*time.Minute), l, float64(600+i))
		if err := s.Save(ctx, snap, result); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	recs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].Snapshot.Reading.Sample.EGT != 602 || recs[1].Result.Label != "CRITICAL" {
		t.Errorf("recent = %+v", recs)
	}
	if !recs[1].Snapshot.Timestamp.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("timestamp = %v", recs[1].Snapshot.Timestamp)
	}
	if recs[1].Result.Worst == nil || recs[1].Result.Worst.Name != model.ParamEGT {
		t.Errorf("worst lost: %+v", recs[1].Result.Worst)
	}

	counts, err := s.LabelCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["NORMAL"] != 2 || counts["WARNING"] != 1 || counts["CRITICAL"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	pruned, err := s.Prune(ctx, base.Add(2*time.Minute))
	if err != nil || pruned != 2 {
		t.Errorf("Prune = %d, %v", pruned, err)
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openMemory(t)
	recs, err := s.Recent(context.Background(), 10)
	if err != nil || len(recs) != 0 {
		t.Errorf("Recent on empty store = %v, %v", recs, err)
	}
}

func TestEvents(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := model.Event{ID: "e1", StartTime: start, EndTime: start.Add(time.Minute), Label: "WARNING"}
	if err := s.SaveEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}
	ev.Label = "CRITICAL"
	if err := s.SaveEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEvent(ctx, model.Event{ID: "e2", StartTime: start.Add(time.Hour), Label: "WARNING"}); err != nil {
		t.Fatal(err)
	}
	events, err := s.Events(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != "e2" || events[1].Label != "CRITICAL" {
		t.Errorf("events = %+v", events)
	}
}

func TestFileStoreAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "enginetwin.db")
	s, err := Open(path, WithMkdirAll(), WithBusyTimeout(5000))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	snap, result := reading(time.Now(), "NORMAL", 600)
	if err := s.Save(context.Background(), snap, result); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), snap, result); !errors.Is(err, ErrClosed) {
		t.Errorf("Save after Close = %v, want ErrClosed", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if n, _ := s2.Count(context.Background()); n != 1 {
		t.Errorf("reopened count = %d", n)
	}
}

func TestOpenSynchronous(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "full.db"), WithSynchronous("full"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	var mode int
	if err := s.db.QueryRow("PRAGMA synchronous").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != 2 { // FULL
		t.Errorf("synchronous = %d, want 2", mode)
	}

	if _, err := Open(filepath.Join(dir, "bad.db"), WithSynchronous("NORMAL; DROP TABLE readings")); err == nil {
		t.Error("Open accepted an unknown synchronous mode")
	}
}
