package engine

import (
	"sync"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// History is a ring buffer of snapshots and their analysis, used for trend
// charts and the report sparklines.
type History struct {
	buf       []model.Snapshot
	resultBuf []model.AnalysisResult
	head      int
	size      int
	cap       int
	mu        sync.RWMutex

	onsets map[string]time.Time // parameter -> first out-of-band timestamp
}

// NewHistory creates a ring buffer with the given capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		buf:       make([]model.Snapshot, capacity),
		resultBuf: make([]model.AnalysisResult, capacity),
		cap:       capacity,
		onsets:    make(map[string]time.Time),
	}
}

// Push adds a snapshot and its analysis, evicting the oldest when full.
func (h *History) Push(snap model.Snapshot, result model.AnalysisResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.head] = snap
	h.resultBuf[h.head] = result
	h.head = (h.head + 1) % h.cap
	if h.size < h.cap {
		h.size++
	}
}

// Len returns the number of snapshots stored.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap returns the buffer capacity.
func (h *History) Cap() int {
	return h.cap
}

// Latest returns a copy of the most recent snapshot.
func (h *History) Latest() *model.Snapshot {
	return h.Get(h.Len() - 1)
}

// LatestResult returns a copy of the most recent analysis.
func (h *History) LatestResult() *model.AnalysisResult {
	return h.GetResult(h.Len() - 1)
}

func (h *History) index(i int) int {
	return (h.head - h.size + i + h.cap) % h.cap
}

// Get returns a copy of the snapshot at position i (0 = oldest in buffer).
func (h *History) Get(i int) *model.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= h.size {
		return nil
	}
	snap := h.buf[h.index(i)] // copy
	return &snap
}

// GetResult returns a copy of the analysis at position i (0 = oldest).
func (h *History) GetResult(i int) *model.AnalysisResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= h.size {
		return nil
	}
	r := h.resultBuf[h.index(i)] // copy
	return &r
}

// Recent returns up to n most recent snapshots and their results, oldest
// first, read under one lock so the pairs stay aligned while ticks push.
// n <= 0 returns everything.
func (h *History) Recent(n int) ([]model.Snapshot, []model.AnalysisResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > h.size {
		n = h.size
	}
	snaps := make([]model.Snapshot, 0, n)
	results := make([]model.AnalysisResult, 0, n)
	for i := h.size - n; i < h.size; i++ {
		snaps = append(snaps, h.buf[h.index(i)])
		results = append(results, h.resultBuf[h.index(i)])
	}
	return snaps, results
}

// Series returns the values of one parameter across the buffer, oldest first.
func (h *History) Series(name string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]float64, 0, h.size)
	for i := 0; i < h.size; i++ {
		if v, ok := h.buf[h.index(i)].Reading.Sample.Value(name); ok {
			out = append(out, v)
		}
	}
	return out
}

// ScoreSeries returns the deviation score of one parameter across the
// buffer, oldest first. Positions without a score contribute 0.
func (h *History) ScoreSeries(name string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]float64, 0, h.size)
	for i := 0; i < h.size; i++ {
		var score float64
		for _, p := range h.resultBuf[h.index(i)].Parameters {
			if p.Name == name {
				score = p.Score
				break
			}
		}
		out = append(out, score)
	}
	return out
}
