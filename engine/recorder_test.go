package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/config"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

func TestPlayerTickReplaysFrames(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	ts1 := time.Unix(1000, 0)
	ts2 := time.Unix(1060, 0)

	f1 := recordFrame{
		Snapshot: model.Snapshot{Timestamp: ts1, Reading: testReading("NORMAL", 600)},
	}
	f2 := recordFrame{
		Snapshot: model.Snapshot{Timestamp: ts2, Reading: testReading("WARNING", 820)},
	}

	if err := enc.Encode(f1); err != nil {
		t.Fatalf("encode f1: %v", err)
	}
	buf.WriteString("not json\n")
	if err := enc.Encode(f2); err != nil {
		t.Fatalf("encode f2: %v", err)
	}

	player, err := NewPlayer(bytes.NewReader(buf.Bytes()), config.DefaultCatalog(), 10)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if player.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", player.Len())
	}

	ctx := context.Background()
	s1, r1 := player.Tick(ctx)
	if s1 == nil || !s1.Timestamp.Equal(ts1) {
		t.Fatalf("expected ts1, got %v", s1)
	}
	if r1 == nil || r1.Health != model.HealthOK {
		t.Fatalf("frame without result should be re-analyzed, got %+v", r1)
	}
	s2, r2 := player.Tick(ctx)
	if s2 == nil || !s2.Timestamp.Equal(ts2) {
		t.Fatalf("expected ts2, got %v", s2)
	}
	if r2.Worst == nil || r2.Worst.Name != model.ParamEGT {
		t.Errorf("worst = %+v, want EGT", r2.Worst)
	}
	if !player.Done() {
		t.Error("player should be done")
	}
	s3, _ := player.Tick(ctx)
	if s3 == nil || !s3.Timestamp.Equal(ts2) {
		t.Errorf("tick past end should repeat last frame, got %v", s3)
	}

	if player.Engine.History.Len() != 2 {
		t.Fatalf("expected history len 2, got %d", player.Engine.History.Len())
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	feed := collector.NewStatic(testReading("NORMAL", 600), testReading("CRITICAL", 800))
	eng := NewEngine(feed, config.DefaultCatalog(), 10)

	var buf bytes.Buffer
	rec := NewRecorder(eng, &buf)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rec.Tick(ctx)
	}
	if rec.Frames() != 2 {
		t.Fatalf("recorded %d frames, want 2", rec.Frames())
	}
	if rec.Base() != eng {
		t.Error("Base should return the wrapped engine")
	}

	player, err := NewPlayer(&buf, config.DefaultCatalog(), 10)
	if err != nil {
		t.Fatal(err)
	}
	snap, result := player.Seek(1)
	if snap.Reading.Sample.EGT != 800 || result.Label != "CRITICAL" {
		t.Errorf("seek(1) = %v / %+v", snap.Reading.Sample.EGT, result)
	}
	if snap, _ := player.Seek(99); snap.Reading.Sample.EGT != 800 {
		t.Errorf("seek past end should clamp to last frame")
	}
}
