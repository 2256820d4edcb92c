package engine

import "github.com/Vaishnavi-Hegde17/enginetwin/model"

// Analyze normalizes every parameter of the reading against the catalog and
// picks the worst one, ties going to the earlier catalog entry. Health
// follows the prediction label only.
func Analyze(r model.Reading, catalog model.Catalog) *model.AnalysisResult {
	samples := catalog.Samples(r.Sample.Values())

	result := &model.AnalysisResult{
		Health:        model.HealthFromLabel(r.Prediction.Label),
		Label:         r.Prediction.Label,
		Probabilities: r.Prediction.Probabilities,
		Parameters:    make([]model.ParameterStatus, 0, len(samples)),
	}
	for _, ps := range samples {
		result.Parameters = append(result.Parameters, Normalize(ps))
	}
	if worst, ok := WorstParameter(samples); ok {
		result.Worst = &worst
	}
	return result
}

// OutOfBand returns the parameters whose value is outside the normal band,
// in catalog order.
func OutOfBand(result *model.AnalysisResult) []model.ParameterStatus {
	if result == nil {
		return nil
	}
	var out []model.ParameterStatus
	for _, p := range result.Parameters {
		if p.HasRange && p.Err == "" && p.Score > 0 {
			out = append(out, p)
		}
	}
	return out
}
