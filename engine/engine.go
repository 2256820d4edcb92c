package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// Engine orchestrates polling and analysis.
type Engine struct {
	feed    collector.Feed
	catalog model.Catalog
	History *History
	now     func() time.Time
	tickMu  sync.Mutex // serializes Tick() calls so overlapping polls don't race
}

// NewEngine creates an engine polling feed and scoring against catalog.
// feed may be nil for engines that are only fed through History.
func NewEngine(feed collector.Feed, catalog model.Catalog, historySize int) *Engine {
	if historySize < 1 {
		historySize = 1
	}
	return &Engine{
		feed:    feed,
		catalog: catalog,
		History: NewHistory(historySize),
		now:     time.Now,
	}
}

// Catalog returns the ranges the engine scores against.
func (e *Engine) Catalog() model.Catalog {
	return e.catalog
}

// Feed returns the engine's data source.
func (e *Engine) Feed() collector.Feed {
	return e.feed
}

// Tick performs one poll + analysis cycle.
// A feed with nothing new yields (nil, nil). A failed poll yields a snapshot
// carrying the error and a nil result; history is left untouched so the last
// good reading stays on screen.
func (e *Engine) Tick(ctx context.Context) (*model.Snapshot, *model.AnalysisResult) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if e.feed == nil {
		return nil, nil
	}

	snap := &model.Snapshot{Timestamp: e.now()}
	reading, err := e.feed.Collect(ctx)
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			return nil, nil
		}
		snap.Errors = append(snap.Errors, err.Error())
		return snap, nil
	}

	snap.Reading = *reading
	if !reading.Sample.Timestamp.IsZero() {
		snap.Timestamp = reading.Sample.Timestamp
	}
	result := Analyze(*reading, e.catalog)
	annotate(e.History, snap, result)
	e.History.Push(*snap, *result)
	return snap, result
}

// annotate attaches the history-derived warnings and onset chain to result.
// Run it before the reading is pushed so the drift estimate sees only
// earlier readings.
func annotate(h *History, snap *model.Snapshot, result *model.AnalysisResult) {
	result.Warnings = ComputeWarnings(result, h)
	UpdateOnsets(h, result, snap.Timestamp)
	result.Chain = BuildOnsetChain(result, h)
}
