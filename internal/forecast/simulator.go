// Package forecast time-steps a glucose trajectory by summing basal, bolus
// and carbohydrate impacts at a fixed one-minute resolution.
package forecast

import (
	"math"

	"github.com/mrcode/glucose-engine/internal/carbs"
	"github.com/mrcode/glucose-engine/internal/insulin"
	"github.com/mrcode/glucose-engine/internal/models"
)

// Simulation step and bounds
const (
	StepMinutes = 1
	// MaxHorizonMinutes caps work per call; each run is bounded and needs no
	// cancellation semantics.
	MaxHorizonMinutes = 1440

	// Physiological clamp window for projected values (mg/dL)
	minBG = 20
	maxBG = 500
)

// Params configures one simulation run
type Params struct {
	StartBG float64 `json:"startBg"` // mg/dL at t=0

	ISF float64 `json:"isf"` // mg/dL drop per unit
	ICR float64 `json:"icr"` // grams per unit

	Insulin insulin.Profile `json:"insulin"`
	Carbs   carbs.Config    `json:"carbs"`

	BasalDrift      models.BasalDriftMode `json:"basalDrift"`
	BasalDailyUnits float64               `json:"basalDailyUnits"` // Reference rate = daily units / 24
	ActiveBasalRate float64               `json:"activeBasalRate"` // Units per hour actually delivered
}

// Simulate projects glucose from t=0 to horizonMinutes. Events are read-only
// inputs; the function is pure and safe for concurrent use.
func Simulate(params Params, events models.ForecastEvents, horizonMinutes int) (*models.ForecastResponse, error) {
	if horizonMinutes <= 0 {
		return nil, models.NewValidationError("horizonMinutes", "must be > 0, got %d", horizonMinutes)
	}
	if horizonMinutes > MaxHorizonMinutes {
		return nil, models.NewValidationError("horizonMinutes", "must be <= %d, got %d", MaxHorizonMinutes, horizonMinutes)
	}
	if params.ISF <= 0 {
		return nil, models.NewValidationError("isf", "must be > 0, got %g", params.ISF)
	}
	if params.ICR <= 0 {
		return nil, models.NewValidationError("icr", "must be > 0, got %g", params.ICR)
	}
	switch params.BasalDrift {
	case models.BasalNeutral, models.BasalStandard:
	default:
		return nil, models.NewValidationError("basalDrift", "unknown mode %q", params.BasalDrift)
	}
	for _, ev := range events.Insulin {
		if ev.Units < 0 {
			return nil, models.NewValidationError("events.insulin", "units must be >= 0, got %g", ev.Units)
		}
	}

	curve, err := insulin.NewCurve(params.Insulin)
	if err != nil {
		return nil, err
	}

	// Derive each meal's absorption profile once, honoring its hint
	carbParams := make([]carbs.Params, len(events.Carbs))
	for i, ev := range events.Carbs {
		p, err := carbs.ParamsFromMeal(ev, params.Carbs)
		if err != nil {
			return nil, err
		}
		carbParams[i] = p
	}

	csf := params.ISF / params.ICR // mg/dL per gram

	basalPerMin := 0.0
	if params.BasalDrift == models.BasalStandard {
		// Under-basalization drifts glucose up, over-basalization down
		deficitRate := params.ActiveBasalRate - params.BasalDailyUnits/24
		basalPerMin = params.ISF * -deficitRate / 60
	}

	bg := params.StartBG
	var basalCum, bolusCum, carbCum float64

	resp := &models.ForecastResponse{
		Points: make([]models.ForecastPoint, 0, horizonMinutes/StepMinutes),
	}
	summary := models.ForecastSummary{BGNow: params.StartBG, MinBG: params.StartBG, MaxBG: params.StartBG}

	for t := StepMinutes; t <= horizonMinutes; t += StepMinutes {
		bolusDelta := 0.0
		for _, ev := range events.Insulin {
			consumed := insulin.ActivityRate(curve, float64(t-StepMinutes)-ev.TMin, float64(t)-ev.TMin)
			bolusDelta -= params.ISF * consumed * ev.Units
		}

		carbDelta := 0.0
		for i, ev := range events.Carbs {
			absorbed := carbs.Absorbed(float64(t)-ev.TMin, carbParams[i]) -
				carbs.Absorbed(float64(t-StepMinutes)-ev.TMin, carbParams[i])
			if absorbed > 0 {
				carbDelta += csf * absorbed
			}
		}

		basalDelta := basalPerMin * StepMinutes

		bg = clampBG(bg + bolusDelta + carbDelta + basalDelta)
		basalCum += basalDelta
		bolusCum += bolusDelta
		carbCum += carbDelta

		point := models.ForecastPoint{
			TMin:        t,
			BG:          math.Round(bg*10) / 10,
			BasalImpact: math.Round(basalCum*10) / 10,
			BolusImpact: math.Round(bolusCum*10) / 10,
			CarbImpact:  math.Round(carbCum*10) / 10,
		}
		resp.Points = append(resp.Points, point)

		if point.BG < summary.MinBG {
			summary.MinBG = point.BG
		}
		if point.BG > summary.MaxBG {
			summary.MaxBG = point.BG
		}
		summary.EndingBG = point.BG
	}

	resp.Summary = summary
	return resp, nil
}

func clampBG(v float64) float64 {
	return math.Max(minBG, math.Min(maxBG, v))
}
