package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// catalogFile is the YAML layout of a range catalog file.
type catalogFile struct {
	Parameters []catalogParam `yaml:"parameters"`
}

type catalogParam struct {
	Name                 string `yaml:"name"`
	model.ParameterRange `yaml:",inline"`
}

// DefaultCatalog returns the built-in normal ranges and display scales of
// the seven engine parameters.
func DefaultCatalog() model.Catalog {
	return model.Catalog{Entries: []model.CatalogEntry{
		{Name: model.ParamEGT, Range: model.ParameterRange{Min: 400, Max: 750, MinPossible: 200, MaxPossible: 900}},
		{Name: model.ParamRPM, Range: model.ParameterRange{Min: 2000, Max: 8500, MinPossible: 0, MaxPossible: 10000}},
		{Name: model.ParamVibration, Range: model.ParameterRange{Min: 0, Max: 3, MinPossible: 0, MaxPossible: 10}},
		{Name: model.ParamOilTemp, Range: model.ParameterRange{Min: 40, Max: 90, MinPossible: -20, MaxPossible: 150}},
		{Name: model.ParamOilPressure, Range: model.ParameterRange{Min: 20, Max: 80, MinPossible: 0, MaxPossible: 200}},
		{Name: model.ParamFuelFlow, Range: model.ParameterRange{Min: 200, Max: 800, MinPossible: 0, MaxPossible: 2000}},
		{Name: model.ParamThrottle, Range: model.ParameterRange{Min: 0.2, Max: 0.9, MinPossible: 0, MaxPossible: 1}},
	}}
}

// LoadCatalog reads a YAML range catalog and validates it. An empty path
// returns DefaultCatalog.
func LoadCatalog(path string) (model.Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates YAML catalog content.
func ParseCatalog(data []byte) (model.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	cat := model.Catalog{Entries: make([]model.CatalogEntry, 0, len(f.Parameters))}
	for _, p := range f.Parameters {
		cat.Entries = append(cat.Entries, model.CatalogEntry{Name: p.Name, Range: p.ParameterRange})
	}
	if err := ValidateCatalog(cat); err != nil {
		return model.Catalog{}, err
	}
	return cat, nil
}

// MarshalCatalog encodes a catalog in the YAML layout LoadCatalog reads.
func MarshalCatalog(cat model.Catalog) ([]byte, error) {
	f := catalogFile{Parameters: make([]catalogParam, 0, len(cat.Entries))}
	for _, e := range cat.Entries {
		f.Parameters = append(f.Parameters, catalogParam{Name: e.Name, ParameterRange: e.Range})
	}
	return yaml.Marshal(f)
}

// ValidateCatalog checks every entry against
// MinPossible <= Min <= Max <= MaxPossible and MaxPossible > MinPossible.
func ValidateCatalog(cat model.Catalog) error {
	if len(cat.Entries) == 0 {
		return errors.New("catalog: no parameters")
	}
	seen := make(map[string]bool, len(cat.Entries))
	var errs []error
	for i, e := range cat.Entries {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("catalog entry %d: missing name", i))
			continue
		}
		if seen[e.Name] {
			errs = append(errs, fmt.Errorf("catalog %s: duplicate name", e.Name))
			continue
		}
		seen[e.Name] = true
		if err := validateRange(e.Range); err != nil {
			errs = append(errs, fmt.Errorf("catalog %s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateRange(r model.ParameterRange) error {
	for _, v := range []float64{r.Min, r.Max, r.MinPossible, r.MaxPossible} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite bound")
		}
	}
	if r.MaxPossible <= r.MinPossible {
		return fmt.Errorf("max_possible %g must exceed min_possible %g", r.MaxPossible, r.MinPossible)
	}
	if r.Min > r.Max {
		return fmt.Errorf("min %g exceeds max %g", r.Min, r.Max)
	}
	if r.Min < r.MinPossible || r.Max > r.MaxPossible {
		return fmt.Errorf("normal band [%g, %g] outside scale [%g, %g]", r.Min, r.Max, r.MinPossible, r.MaxPossible)
	}
	return nil
}
