package forecast

import (
	"math"
	"testing"

	"github.com/mrcode/glucose-engine/internal/carbs"
	"github.com/mrcode/glucose-engine/internal/insulin"
	"github.com/mrcode/glucose-engine/internal/models"
)

func baseParams() Params {
	return Params{
		StartBG:    120,
		ISF:        50,
		ICR:        10,
		Insulin:    insulin.DefaultProfile(),
		Carbs:      carbs.DefaultConfig(),
		BasalDrift: models.BasalNeutral,
	}
}

func TestSimulate_NeutralNoEventsIsFlat(t *testing.T) {
	resp, err := Simulate(baseParams(), models.ForecastEvents{}, 60)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if len(resp.Points) != 60 {
		t.Fatalf("got %d points, want 60", len(resp.Points))
	}
	for i, p := range resp.Points {
		if p.TMin != i+1 {
			t.Errorf("point %d: TMin = %d, want %d", i, p.TMin, i+1)
		}
		if p.BG != 120 {
			t.Errorf("t=%d: BG = %g, want flat 120", p.TMin, p.BG)
		}
		if p.BasalImpact != 0 || p.BolusImpact != 0 || p.CarbImpact != 0 {
			t.Errorf("t=%d: impacts %g/%g/%g, want all 0", p.TMin, p.BasalImpact, p.BolusImpact, p.CarbImpact)
		}
	}
	if resp.Summary.BGNow != 120 || resp.Summary.EndingBG != 120 {
		t.Errorf("summary = %+v, want flat at 120", resp.Summary)
	}
}

func TestSimulate_StandardDriftUnderBasalized(t *testing.T) {
	params := baseParams()
	params.BasalDrift = models.BasalStandard
	params.BasalDailyUnits = 24 // reference 1 U/h
	params.ActiveBasalRate = 0.5

	resp, err := Simulate(params, models.ForecastEvents{}, 60)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	// Deficit 0.5 U/h at ISF 50 adds 25 mg/dL over an hour
	if got, want := resp.Summary.EndingBG, 145.0; math.Abs(got-want) > 0.5 {
		t.Errorf("EndingBG = %g, want ~%g", got, want)
	}
	last := resp.Points[len(resp.Points)-1]
	if last.BasalImpact <= 0 {
		t.Errorf("BasalImpact = %g, want positive for under-basalization", last.BasalImpact)
	}

	t.Run("matched basal stays flat", func(t *testing.T) {
		params.ActiveBasalRate = 1.0
		resp, err := Simulate(params, models.ForecastEvents{}, 60)
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		if resp.Summary.EndingBG != 120 {
			t.Errorf("EndingBG = %g, want 120 when basal matches the reference", resp.Summary.EndingBG)
		}
	})
}

func TestSimulate_BolusLowersGlucose(t *testing.T) {
	params := baseParams()
	params.StartBG = 200
	events := models.ForecastEvents{
		Insulin: []models.InsulinEvent{{ID: "b1", TMin: 0, Units: 2}},
	}

	resp, err := Simulate(params, events, 360)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	// Past the insulin's full duration the drop is exactly ISF * units
	if got, want := resp.Summary.EndingBG, 100.0; math.Abs(got-want) > 0.5 {
		t.Errorf("EndingBG = %g, want ~%g after 2 U at ISF 50", got, want)
	}
	last := resp.Points[len(resp.Points)-1]
	if got, want := last.BolusImpact, -100.0; math.Abs(got-want) > 0.5 {
		t.Errorf("BolusImpact = %g, want ~%g", got, want)
	}

	// Never rises while only insulin acts
	prev := params.StartBG
	for _, p := range resp.Points {
		if p.BG > prev+0.11 {
			t.Fatalf("t=%d: BG rose from %g to %g under insulin only", p.TMin, prev, p.BG)
		}
		prev = p.BG
	}
}

func TestSimulate_CarbsRaiseGlucose(t *testing.T) {
	params := baseParams()
	params.StartBG = 100
	events := models.ForecastEvents{
		Carbs: []models.CarbEvent{{ID: "m1", TMin: 0, CarbsGrams: 30}},
	}

	resp, err := Simulate(params, events, 1440)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	// 30 g at CSF = ISF/ICR = 5 mg/dL per gram raises 150 once fully absorbed
	if got, want := resp.Summary.EndingBG, 250.0; math.Abs(got-want) > 2 {
		t.Errorf("EndingBG = %g, want ~%g after 30 g", got, want)
	}
	last := resp.Points[len(resp.Points)-1]
	if got, want := last.CarbImpact, 150.0; math.Abs(got-want) > 2 {
		t.Errorf("CarbImpact = %g, want ~%g", got, want)
	}
}

func TestSimulate_CoveredMealReturnsNearStart(t *testing.T) {
	params := baseParams()
	params.StartBG = 110
	events := models.ForecastEvents{
		Insulin: []models.InsulinEvent{{ID: "b1", TMin: 0, Units: 6}},
		Carbs:   []models.CarbEvent{{ID: "m1", TMin: 0, CarbsGrams: 60}},
	}

	resp, err := Simulate(params, events, 1440)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	// 60 g / ICR 10 covered by 6 U: effects cancel by the end
	if math.Abs(resp.Summary.EndingBG-110) > 3 {
		t.Errorf("EndingBG = %g, want near 110 for a covered meal", resp.Summary.EndingBG)
	}
}

func TestSimulate_FutureEventHasNoEarlyEffect(t *testing.T) {
	params := baseParams()
	events := models.ForecastEvents{
		Insulin: []models.InsulinEvent{{ID: "b1", TMin: 30, Units: 3}},
	}

	resp, err := Simulate(params, events, 120)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for _, p := range resp.Points {
		if p.TMin <= 30 && p.BolusImpact != 0 {
			t.Errorf("t=%d: BolusImpact = %g before the bolus lands", p.TMin, p.BolusImpact)
		}
		if p.TMin == 120 && p.BolusImpact >= 0 {
			t.Errorf("t=120: BolusImpact = %g, want negative once acting", p.BolusImpact)
		}
	}
}

func TestSimulate_ClampsToPhysiologicalFloor(t *testing.T) {
	params := baseParams()
	params.StartBG = 90
	events := models.ForecastEvents{
		Insulin: []models.InsulinEvent{{ID: "b1", TMin: 0, Units: 10}},
	}

	resp, err := Simulate(params, events, 360)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for _, p := range resp.Points {
		if p.BG < minBG {
			t.Fatalf("t=%d: BG = %g below floor %d", p.TMin, p.BG, minBG)
		}
	}
	if resp.Summary.MinBG != minBG {
		t.Errorf("MinBG = %g, want pinned at %d", resp.Summary.MinBG, minBG)
	}
}

func TestSimulate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		events  models.ForecastEvents
		horizon int
	}{
		{"zero horizon", nil, models.ForecastEvents{}, 0},
		{"horizon over cap", nil, models.ForecastEvents{}, MaxHorizonMinutes + 1},
		{"zero isf", func(p *Params) { p.ISF = 0 }, models.ForecastEvents{}, 60},
		{"zero icr", func(p *Params) { p.ICR = 0 }, models.ForecastEvents{}, 60},
		{"unknown drift mode", func(p *Params) { p.BasalDrift = "chaotic" }, models.ForecastEvents{}, 60},
		{"negative bolus", nil, models.ForecastEvents{
			Insulin: []models.InsulinEvent{{ID: "b1", TMin: 0, Units: -1}},
		}, 60},
		{"negative meal carbs", nil, models.ForecastEvents{
			Carbs: []models.CarbEvent{{ID: "m1", TMin: 0, CarbsGrams: -5}},
		}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := baseParams()
			if tt.mutate != nil {
				tt.mutate(&params)
			}
			if _, err := Simulate(params, tt.events, tt.horizon); !models.IsValidationError(err) {
				t.Errorf("Simulate error = %v, want validation error", err)
			}
		})
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	params := baseParams()
	events := models.ForecastEvents{
		Insulin: []models.InsulinEvent{{ID: "b1", TMin: -30, Units: 1.5}},
		Carbs:   []models.CarbEvent{{ID: "m1", TMin: 15, CarbsGrams: 45, FiberGrams: 5}},
	}

	a, err := Simulate(params, events, 240)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	b, err := Simulate(params, events, 240)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("point %d differs between identical runs: %+v vs %+v", i, a.Points[i], b.Points[i])
		}
	}
}
