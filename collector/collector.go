package collector

import (
	"context"
	"errors"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// ErrNoData is returned by Collect when the feed has nothing new since the
// previous call. Callers skip the tick.
var ErrNoData = errors.New("no new data")

// Feed is a source of engine sensor readings.
type Feed interface {
	Name() string
	Collect(ctx context.Context) (*model.Reading, error)
}

// Closer is a feed holding a connection that must be released.
type Closer interface {
	Close() error
}

// Close releases f if it holds resources.
func Close(f Feed) error {
	if c, ok := f.(Closer); ok {
		return c.Close()
	}
	return nil
}

// Static replays a fixed sequence of readings, then reports ErrNoData.
type Static struct {
	readings []model.Reading
	idx      int
}

// NewStatic creates a feed over readings.
func NewStatic(readings ...model.Reading) *Static {
	return &Static{readings: readings}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Collect(ctx context.Context) (*model.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.idx >= len(s.readings) {
		return nil, ErrNoData
	}
	r := s.readings[s.idx]
	s.idx++
	return &r, nil
}
