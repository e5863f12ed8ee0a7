// Package engine is the facade the embedding application calls: one entry
// point for dose recommendations and one for glucose forecasts. All calls
// are pure, synchronous and safe for concurrent use; the caller owns
// whatever session or storage access produced the inputs.
package engine

import (
	"github.com/mrcode/glucose-engine/internal/dosing"
	"github.com/mrcode/glucose-engine/internal/forecast"
	"github.com/mrcode/glucose-engine/internal/models"
	"github.com/mrcode/glucose-engine/internal/residual"
)

// CalculateDose turns a calculation input into a dose recommendation, or a
// validation error for malformed input.
func CalculateDose(in models.CalculationInput) (*models.CalculationResult, error) {
	return dosing.Calculate(in)
}

// SimulateForecast projects glucose over horizonMinutes. When a residual
// model bundle and features are supplied, the physiological series is
// blended with the model's correction; otherwise it is returned as-is with
// Applied=false.
func SimulateForecast(
	params forecast.Params,
	events models.ForecastEvents,
	horizonMinutes int,
	bundle *residual.Bundle,
	features map[int]residual.Features,
) (*models.ForecastResponse, *residual.Result, error) {
	resp, err := forecast.Simulate(params, events, horizonMinutes)
	if err != nil {
		return nil, nil, err
	}

	blend := residual.Adjust(resp.Points, bundle, features)
	if blend.Applied {
		adjusted := *resp
		adjusted.Points = blend.Series
		adjusted.Summary = summarize(params.StartBG, blend.Series)
		return &adjusted, &blend, nil
	}
	return resp, &blend, nil
}

// summarize recomputes the series summary after adjustment
func summarize(startBG float64, points []models.ForecastPoint) models.ForecastSummary {
	s := models.ForecastSummary{BGNow: startBG, MinBG: startBG, MaxBG: startBG, EndingBG: startBG}
	for _, p := range points {
		if p.BG < s.MinBG {
			s.MinBG = p.BG
		}
		if p.BG > s.MaxBG {
			s.MaxBG = p.BG
		}
		s.EndingBG = p.BG
	}
	return s
}
