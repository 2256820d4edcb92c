package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// recordFrame is one snapshot frame written to disk.
type recordFrame struct {
	Snapshot model.Snapshot        `json:"snapshot"`
	Result   *model.AnalysisResult `json:"result,omitempty"`
}

// Recorder wraps a ticker and records every analyzed tick as a JSON line.
type Recorder struct {
	inner  Ticker
	writer *json.Encoder
	frames int
	mu     sync.Mutex
}

// NewRecorder creates a recorder that writes JSON lines to w.
func NewRecorder(inner Ticker, w io.Writer) *Recorder {
	return &Recorder{
		inner:  inner,
		writer: json.NewEncoder(w),
	}
}

// Base returns the underlying engine.
func (r *Recorder) Base() *Engine {
	return r.inner.Base()
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Tick calls the inner ticker and records the result. Failed polls are not
// recorded.
func (r *Recorder) Tick(ctx context.Context) (*model.Snapshot, *model.AnalysisResult) {
	snap, result := r.inner.Tick(ctx)
	if snap != nil && result != nil {
		r.mu.Lock()
		if err := r.writer.Encode(recordFrame{Snapshot: *snap, Result: result}); err != nil {
			slog.Warn("record frame failed", "error", err)
		} else {
			r.frames++
		}
		r.mu.Unlock()
	}
	return snap, result
}

// Player replays recorded frames through a feedless engine.
type Player struct {
	Engine *Engine
	frames []recordFrame
	idx    int
	mu     sync.Mutex
	last   *recordFrame
}

// NewPlayer loads a recording. Malformed lines are skipped. Frames recorded
// without an analysis are re-analyzed against catalog.
func NewPlayer(r io.Reader, catalog model.Catalog, historySize int) (*Player, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var frames []recordFrame
	skipped := 0
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame recordFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			skipped++
			continue
		}
		if frame.Result == nil {
			frame.Result = Analyze(frame.Snapshot.Reading, catalog)
		}
		frames = append(frames, frame)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		slog.Warn("skipped malformed frames", "count", skipped)
	}

	return &Player{
		Engine: NewEngine(nil, catalog, historySize),
		frames: frames,
	}, nil
}

// Base returns the underlying engine.
func (p *Player) Base() *Engine {
	return p.Engine
}

// Tick replays the next recorded frame (or the last frame if at EOF).
func (p *Player) Tick(context.Context) (*model.Snapshot, *model.AnalysisResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) == 0 {
		return nil, nil
	}
	if p.idx >= len(p.frames) {
		return &p.last.Snapshot, p.last.Result
	}
	return p.play(p.idx)
}

func (p *Player) play(i int) (*model.Snapshot, *model.AnalysisResult) {
	f := &p.frames[i]
	p.idx = i + 1
	p.last = f
	// Feed history for trends
	annotate(p.Engine.History, &f.Snapshot, f.Result)
	p.Engine.History.Push(f.Snapshot, *f.Result)
	return &f.Snapshot, f.Result
}

// Len returns the number of frames available.
func (p *Player) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

// Index returns the next frame index.
func (p *Player) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx
}

// Done reports whether every frame has been played.
func (p *Player) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx >= len(p.frames)
}

// Seek jumps to a frame index and returns that frame.
func (p *Player) Seek(i int) (*model.Snapshot, *model.AnalysisResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return nil, nil
	}
	i = max(0, min(i, len(p.frames)-1))
	p.Engine.History.ResetOnsets()
	return p.play(i)
}
