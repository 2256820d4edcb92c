package model

// ParameterRange declares the normal band [Min, Max] of a parameter and the
// display scale [MinPossible, MaxPossible] it is drawn on.
type ParameterRange struct {
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	MinPossible float64 `json:"min_possible" yaml:"min_possible"`
	MaxPossible float64 `json:"max_possible" yaml:"max_possible"`
}

// Span returns MaxPossible - MinPossible.
func (r ParameterRange) Span() float64 {
	return r.MaxPossible - r.MinPossible
}

// Contains reports whether v lies inside the normal band.
func (r ParameterRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ParameterSample is a named value with its declared range, if any.
type ParameterSample struct {
	Name  string
	Value float64
	Range *ParameterRange
}

// NormalizedBand is where the normal band falls on the 0-100 display scale.
// StartPct > EndPct is possible when the range invariant is violated.
type NormalizedBand struct {
	StartPct float64 `json:"start_pct"`
	EndPct   float64 `json:"end_pct"`
}

// CatalogEntry is one named range in a Catalog.
type CatalogEntry struct {
	Name  string         `json:"name"`
	Range ParameterRange `json:"range"`
}

// Catalog is an ordered set of parameter ranges.
type Catalog struct {
	Entries []CatalogEntry `json:"entries"`
}

// Lookup returns the range declared for name.
func (c Catalog) Lookup(name string) (ParameterRange, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e.Range, true
		}
	}
	return ParameterRange{}, false
}

// Names returns entry names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		names = append(names, e.Name)
	}
	return names
}

// Samples pairs values with their ranges in catalog order, so catalog order
// decides WorstParameter ties. Values the catalog does not name follow in
// their original order with a nil Range.
func (c Catalog) Samples(values []NamedValue) []ParameterSample {
	out := make([]ParameterSample, 0, len(values))
	used := make([]bool, len(values))
	for _, e := range c.Entries {
		for i, nv := range values {
			if !used[i] && nv.Name == e.Name {
				r := e.Range
				out = append(out, ParameterSample{Name: nv.Name, Value: nv.Value, Range: &r})
				used[i] = true
				break
			}
		}
	}
	for i, nv := range values {
		if !used[i] {
			out = append(out, ParameterSample{Name: nv.Name, Value: nv.Value})
		}
	}
	return out
}
