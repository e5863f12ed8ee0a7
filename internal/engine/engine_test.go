package engine

import (
	"testing"

	"github.com/mrcode/glucose-engine/internal/carbs"
	"github.com/mrcode/glucose-engine/internal/forecast"
	"github.com/mrcode/glucose-engine/internal/insulin"
	"github.com/mrcode/glucose-engine/internal/models"
	"github.com/mrcode/glucose-engine/internal/residual"
)

func forecastParams() forecast.Params {
	return forecast.Params{
		StartBG:    140,
		ISF:        50,
		ICR:        10,
		Insulin:    insulin.DefaultProfile(),
		Carbs:      carbs.DefaultConfig(),
		BasalDrift: models.BasalNeutral,
	}
}

func TestCalculateDose(t *testing.T) {
	res, err := CalculateDose(models.CalculationInput{
		Glucose:    &models.GlucoseReading{MgDL: 150, AgeMinutes: 3},
		CarbsGrams: 60,
		IOBUnits:   1,
		IOBKnown:   true,
		Slot:       models.Midday,
		Settings:   models.DefaultTherapySettings(),
	})
	if err != nil {
		t.Fatalf("CalculateDose failed: %v", err)
	}
	if res.TotalUnits != 6.0 {
		t.Errorf("TotalUnits = %g, want 6.0", res.TotalUnits)
	}
}

func TestSimulateForecast_WithoutModel(t *testing.T) {
	resp, blend, err := SimulateForecast(forecastParams(), models.ForecastEvents{}, 60, nil, nil)
	if err != nil {
		t.Fatalf("SimulateForecast failed: %v", err)
	}
	if blend.Applied {
		t.Error("Applied = true without a model bundle")
	}
	if len(resp.Points) != 60 {
		t.Errorf("got %d points, want 60", len(resp.Points))
	}
	if resp.Summary.EndingBG != 140 {
		t.Errorf("EndingBG = %g, want flat 140", resp.Summary.EndingBG)
	}
}

func TestSimulateForecast_WithModelRecomputesSummary(t *testing.T) {
	bundle := &residual.Bundle{
		MLReady:        true,
		Version:        "test",
		Intercept:      30,
		Weights:        map[string]float64{"trend": 0},
		ResidualStd:    2,
		MaxAbsResidual: 50,
	}
	features := map[int]residual.Features{
		30: {"trend": 1},
	}

	resp, blend, err := SimulateForecast(forecastParams(), models.ForecastEvents{}, 60, bundle, features)
	if err != nil {
		t.Fatalf("SimulateForecast failed: %v", err)
	}

	if !blend.Applied {
		t.Fatal("Applied = false, want true")
	}
	// The flat 140 series gets +30 at t=30; the summary must see the bump
	if resp.Summary.MaxBG != 170 {
		t.Errorf("MaxBG = %g, want 170 after adjustment", resp.Summary.MaxBG)
	}
	if resp.Summary.EndingBG != 140 {
		t.Errorf("EndingBG = %g, want 140 (last point unadjusted)", resp.Summary.EndingBG)
	}
	if blend.BandHalfWidth != 1.96*2 {
		t.Errorf("BandHalfWidth = %g, want %g", blend.BandHalfWidth, 1.96*2)
	}
}

func TestSimulateForecast_PropagatesValidation(t *testing.T) {
	if _, _, err := SimulateForecast(forecastParams(), models.ForecastEvents{}, 0, nil, nil); !models.IsValidationError(err) {
		t.Errorf("error = %v, want validation error", err)
	}
}
