package engine

import (
	"context"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// Ticker abstracts a data source that can produce analyzed snapshots.
type Ticker interface {
	Tick(ctx context.Context) (*model.Snapshot, *model.AnalysisResult)
	Base() *Engine
}

// Base returns itself for the default engine ticker.
func (e *Engine) Base() *Engine {
	return e
}
