package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// EventDetector tracks prediction-label transitions and groups consecutive
// anomalous readings into events.
type EventDetector struct {
	mu sync.Mutex

	active    *model.Event
	completed []model.Event

	// Debounce: require consecutive anomalous ticks before opening
	streak   int
	debounce int
}

// NewEventDetector creates a detector that opens an event on the first
// anomalous reading.
func NewEventDetector() *EventDetector {
	return &EventDetector{debounce: 1}
}

// SetDebounce sets how many consecutive anomalous readings open an event.
func (d *EventDetector) SetDebounce(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.debounce = max(1, n)
}

// Process is called every tick with the current analysis result.
// It returns the event closed by this tick, if any.
func (d *EventDetector) Process(snap *model.Snapshot, result *model.AnalysisResult) *model.Event {
	if result == nil || snap == nil || result.Health == model.HealthUnknown {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	anomalous := result.Anomalous()
	now := snap.Timestamp

	if anomalous {
		d.streak++
	} else {
		d.streak = 0
	}

	if d.active != nil {
		if !anomalous {
			d.active.Active = false
			d.active.EndTime = now
			d.active.Duration = int(now.Sub(d.active.StartTime).Seconds())
			d.active.Timeline = append(d.active.Timeline, model.TimelineEntry{
				Time: now, Message: "prediction back to " + result.Label,
			})
			closed := *d.active
			d.completed = append(d.completed, closed)
			d.active = nil
			return &closed
		}
		d.update(snap, result)
		return nil
	}

	if anomalous && d.streak >= d.debounce {
		d.active = &model.Event{
			ID:         uuid.NewString(),
			StartTime:  now,
			PeakHealth: result.Health,
			Label:      result.Label,
			AircraftID: snap.Reading.Sample.AircraftID,
			Active:     true,
			Timeline: []model.TimelineEntry{{
				Time: now, Message: "prediction " + result.Label,
			}},
		}
		d.update(snap, result)
	}
	return nil
}

func (d *EventDetector) update(snap *model.Snapshot, result *model.AnalysisResult) {
	ev := d.active
	if result.Health > ev.PeakHealth {
		ev.PeakHealth = result.Health
		ev.Label = result.Label
		ev.Timeline = append(ev.Timeline, model.TimelineEntry{
			Time: snap.Timestamp, Message: "escalated to " + result.Label,
		})
	}
	ev.Probabilities = maps.Clone(result.Probabilities)
	if w := result.Worst; w != nil && (ev.WorstParam == "" || w.Score > ev.PeakScore) {
		ev.WorstParam = w.Name
		ev.PeakScore = w.Score
	}
}

// ActiveEvent returns a copy of the current active event, or nil.
func (d *EventDetector) ActiveEvent() *model.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil
	}
	cpy := *d.active
	return &cpy
}

// Events returns completed events in reverse chronological order.
func (d *EventDetector) Events() []model.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Event, len(d.completed))
	for i, e := range d.completed {
		out[len(d.completed)-1-i] = e
	}
	return out
}

// LoadEvents adds externally loaded events (e.g., from the serve log).
func (d *EventDetector) LoadEvents(events []model.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completed = append(append([]model.Event(nil), events...), d.completed...)
}

// EventLogWriter appends events to a JSONL file.
type EventLogWriter struct {
	path string
	mu   sync.Mutex
}

// NewEventLogWriter creates a writer for the given path.
func NewEventLogWriter(path string) *EventLogWriter {
	return &EventLogWriter{path: path}
}

// Write appends an event to the log file.
func (w *EventLogWriter) Write(e model.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(e)
}

// ReadEventLog reads all events from a JSONL file. A missing file is empty.
func ReadEventLog(path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []model.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line limit
	for scanner.Scan() {
		var e model.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue // skip malformed lines
		}
		events = append(events, e)
	}
	return events, scanner.Err()
}
