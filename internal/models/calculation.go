// Package models contains data structures used throughout the engine
package models

// ExercisePlan describes physical activity planned around the dose
type ExercisePlan struct {
	Planned         bool              `json:"planned"`
	Intensity       ExerciseIntensity `json:"intensity"`
	DurationMinutes float64           `json:"durationMinutes"`
}

// ExtendedBolus configures the split of a dose into an immediate and a
// delayed portion for slow meals
type ExtendedBolus struct {
	Enabled         bool    `json:"enabled"`
	UpfrontFraction float64 `json:"upfrontFraction"` // Share delivered immediately, in [0, 1]
	DurationMinutes float64 `json:"durationMinutes"` // Delivery window for the later portion
}

// CalculationInput carries everything needed for one dosing decision. It is
// transient: created per request and never persisted by the engine.
type CalculationInput struct {
	Glucose *GlucoseReading `json:"glucose,omitempty"` // nil when no reading is available

	CarbsGrams float64 `json:"carbsGrams"`

	// Active insulin already aggregated by the caller. IOBKnown=false means
	// no live IOB source was reachable; the calculator then assumes zero and
	// warns rather than reusing a possibly stale estimate.
	IOBUnits float64 `json:"iobUnits"`
	IOBKnown bool    `json:"iobKnown"`

	Slot     MealSlot        `json:"slot"`
	Settings TherapySettings `json:"settings"`

	// Per-request overrides; nil means "use settings"
	CarbRatioOverride *float64 `json:"carbRatioOverride,omitempty"`
	ISFOverride       *float64 `json:"isfOverride,omitempty"`
	TargetOverride    *float64 `json:"targetOverride,omitempty"`

	Exercise ExercisePlan  `json:"exercise"`
	Extended ExtendedBolus `json:"extended"`
}

// CalculationResult is the outcome of a dosing calculation. The invariant
// UpfrontUnits + LaterUnits == TotalUnits holds exactly, and TotalUnits is
// within [0, MaxBolusUnits].
type CalculationResult struct {
	TotalUnits      float64 `json:"totalUnits"`
	UpfrontUnits    float64 `json:"upfrontUnits"`
	LaterUnits      float64 `json:"laterUnits"`
	DurationMinutes float64 `json:"durationMinutes"` // Delivery window of the later portion, 0 if not split

	// SafetyBlocked is set when the hypo gate withheld the dose. Withholding
	// is a normal result state, not an error.
	SafetyBlocked bool `json:"safetyBlocked"`

	// Breakdown lists one human-readable line per computation branch so the
	// recommendation is fully reconstructable from the result alone.
	Breakdown []string `json:"breakdown"`

	// Warnings surface degraded inputs (missing/stale glucose, unknown IOB,
	// clamped components) for the caller to present to the user.
	Warnings []string `json:"warnings"`
}
