package dosing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/mrcode/glucose-engine/internal/models"
)

// Calculate produces a dose recommendation from one calculation input. It is
// a pure function: identical input yields identical output, and nothing is
// cached or persisted between calls.
//
// Computation order: safety gate, meal component, correction component, IOB
// offset, exercise adjustment, safety clamps, rounding, extended split.
// Every branch appends a line to the result's Breakdown.
func Calculate(in models.CalculationInput) (*models.CalculationResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	res := &models.CalculationResult{}

	// Safety gate: never compound insulin into an active low. A stale low
	// reading still blocks; understating the danger is the unsafe direction.
	if in.Glucose != nil && in.Glucose.MgDL < in.Settings.HypoFloorMgDL {
		res.SafetyBlocked = true
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("glucose %.0f mg/dL is below the hypo floor %.0f mg/dL: dose withheld", in.Glucose.MgDL, in.Settings.HypoFloorMgDL))
		res.Breakdown = append(res.Breakdown,
			fmt.Sprintf("hypo block: glucose %.0f < floor %.0f, recommendation suppressed", in.Glucose.MgDL, in.Settings.HypoFloorMgDL))
		return res, nil
	}

	cr, isf, target := resolveRatios(in)

	// Meal component
	mealU := in.CarbsGrams / cr.Value
	res.Breakdown = append(res.Breakdown,
		fmt.Sprintf("meal: %.1f g / CR %.1f (%s) = %.2f U", in.CarbsGrams, cr.Value, cr.Tier, mealU))

	// Correction component
	corrU := 0.0
	switch {
	case in.Glucose == nil:
		res.Warnings = append(res.Warnings, "no glucose reading available: correction skipped")
		res.Breakdown = append(res.Breakdown, "correction: skipped, no glucose reading")
	default:
		if in.Glucose.IsStale(in.Settings.StaleAfterMinutes) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("glucose reading is %.0f min old (stale after %.0f min): confirm before dosing", in.Glucose.AgeMinutes, in.Settings.StaleAfterMinutes))
		}

		effISF := isf.Value
		if in.Settings.AutosensEnabled {
			ratio := clampAutosens(in.Settings.AutosensRatio)
			effISF *= ratio
			res.Breakdown = append(res.Breakdown,
				fmt.Sprintf("autosens: ISF %.1f x ratio %.2f = %.1f", isf.Value, ratio, effISF))
		}

		corrU = math.Max(0, (in.Glucose.MgDL-target.Value)/effISF)
		res.Breakdown = append(res.Breakdown,
			fmt.Sprintf("correction: (BG %.0f - target %.0f (%s)) / ISF %.1f (%s) = %.2f U",
				in.Glucose.MgDL, target.Value, target.Tier, effISF, isf.Tier, corrU))

		if corrU > in.Settings.MaxCorrectionUnits {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("correction %.2f U clamped to max correction %.2f U", corrU, in.Settings.MaxCorrectionUnits))
			corrU = in.Settings.MaxCorrectionUnits
			res.Breakdown = append(res.Breakdown,
				fmt.Sprintf("correction clamp: limited to %.2f U", corrU))
		}
	}

	// IOB offset
	iobU := in.IOBUnits
	if !in.IOBKnown {
		iobU = 0
		res.Warnings = append(res.Warnings, "active insulin unknown: assuming 0 IOB")
	}
	rawTotal := math.Max(0, mealU+corrU-iobU)
	res.Breakdown = append(res.Breakdown,
		fmt.Sprintf("total: meal %.2f + correction %.2f - IOB %.2f = %.2f U", mealU, corrU, iobU, rawTotal))

	// Exercise adjustment reduces the meal contribution
	if in.Exercise.Planned {
		pct, bucket := exerciseReduction(in.Exercise, in.Settings.ExerciseReductions)
		if pct > 0 {
			reduction := mealU * pct
			rawTotal = math.Max(0, rawTotal-reduction)
			res.Breakdown = append(res.Breakdown,
				fmt.Sprintf("exercise: %s for %.0f min (bucket %d) reduces meal dose by %.0f%% (-%.2f U) -> %.2f U",
					in.Exercise.Intensity, in.Exercise.DurationMinutes, bucket, pct*100, reduction, rawTotal))
		}
	}

	// Bolus ceiling
	if rawTotal > in.Settings.MaxBolusUnits {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("dose %.2f U clamped to max bolus %.2f U", rawTotal, in.Settings.MaxBolusUnits))
		rawTotal = in.Settings.MaxBolusUnits
		res.Breakdown = append(res.Breakdown, fmt.Sprintf("max bolus clamp: limited to %.2f U", rawTotal))
	}

	// Round down, never up, to the pump's delivery step
	total := floorToStep(rawTotal, in.Settings.RoundStepUnits)
	if !total.Equal(decimal.NewFromFloat(rawTotal)) {
		res.Breakdown = append(res.Breakdown,
			fmt.Sprintf("rounding: %.2f U floored to %s U (step %.2f)", rawTotal, total.String(), in.Settings.RoundStepUnits))
	}

	// Extended split
	if in.Extended.Enabled && total.IsPositive() {
		upfront := floorToStep(total.InexactFloat64()*in.Extended.UpfrontFraction, in.Settings.RoundStepUnits)
		later := total.Sub(upfront)
		res.TotalUnits = total.InexactFloat64()
		res.UpfrontUnits = upfront.InexactFloat64()
		res.LaterUnits = later.InexactFloat64()
		res.DurationMinutes = in.Extended.DurationMinutes
		res.Breakdown = append(res.Breakdown,
			fmt.Sprintf("extended bolus: %s U now, %s U over %.0f min", upfront.String(), later.String(), in.Extended.DurationMinutes))
	} else {
		res.TotalUnits = total.InexactFloat64()
		res.UpfrontUnits = res.TotalUnits
		res.Breakdown = append(res.Breakdown, fmt.Sprintf("recommended dose: %s U", total.String()))
	}

	return res, nil
}

func validate(in models.CalculationInput) error {
	if in.CarbsGrams < 0 {
		return models.NewValidationError("carbsGrams", "must be >= 0, got %g", in.CarbsGrams)
	}
	if in.Settings.DefaultCarbRatio <= 0 {
		return models.NewValidationError("settings.defaultCarbRatio", "must be > 0, got %g", in.Settings.DefaultCarbRatio)
	}
	if in.Settings.DefaultISF <= 0 {
		return models.NewValidationError("settings.defaultIsf", "must be > 0, got %g", in.Settings.DefaultISF)
	}
	if in.Settings.MaxBolusUnits <= 0 {
		return models.NewValidationError("settings.maxBolusUnits", "must be > 0, got %g", in.Settings.MaxBolusUnits)
	}
	if in.Settings.RoundStepUnits <= 0 {
		return models.NewValidationError("settings.roundStepUnits", "must be > 0, got %g", in.Settings.RoundStepUnits)
	}
	if in.CarbRatioOverride != nil && *in.CarbRatioOverride <= 0 {
		return models.NewValidationError("carbRatioOverride", "must be > 0, got %g", *in.CarbRatioOverride)
	}
	if in.ISFOverride != nil && *in.ISFOverride <= 0 {
		return models.NewValidationError("isfOverride", "must be > 0, got %g", *in.ISFOverride)
	}
	if in.TargetOverride != nil && *in.TargetOverride <= 0 {
		return models.NewValidationError("targetOverride", "must be > 0, got %g", *in.TargetOverride)
	}
	if in.Extended.Enabled && (in.Extended.UpfrontFraction < 0 || in.Extended.UpfrontFraction > 1) {
		return models.NewValidationError("extended.upfrontFraction", "must be in [0, 1], got %g", in.Extended.UpfrontFraction)
	}
	if in.Settings.AutosensEnabled && in.Settings.AutosensRatio <= 0 {
		return models.NewValidationError("settings.autosensRatio", "must be > 0, got %g", in.Settings.AutosensRatio)
	}
	if in.IOBKnown && in.IOBUnits < 0 {
		return models.NewValidationError("iobUnits", "must be >= 0, got %g", in.IOBUnits)
	}
	return nil
}

func clampAutosens(ratio float64) float64 {
	return math.Max(models.AutosensMin, math.Min(models.AutosensMax, ratio))
}

// floorToStep rounds units down to the nearest multiple of step. Decimal
// arithmetic keeps the upfront/later split exact: a float floor here would
// let upfront + later drift off total by one ulp.
func floorToStep(units, step float64) decimal.Decimal {
	d := decimal.NewFromFloat(units)
	s := decimal.NewFromFloat(step)
	return d.Div(s).Floor().Mul(s)
}
