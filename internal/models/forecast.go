// Package models contains data structures used throughout the engine
package models

import "github.com/google/uuid"

// BasalDriftMode selects how the simulator treats the gap between the
// user's active basal dose and their reference metabolic rate
type BasalDriftMode string

const (
	// BasalNeutral applies no net drift regardless of the active-basal vs.
	// reference-basal mismatch (basal assumed already tuned).
	BasalNeutral BasalDriftMode = "neutral"
	// BasalStandard drifts glucose up when under-basalized and down when
	// over-basalized, relative to basal_daily_units/24.
	BasalStandard BasalDriftMode = "standard"
)

// AbsorptionHint tags a carb event with an expected absorption speed
type AbsorptionHint string

const (
	AbsorptionDefault AbsorptionHint = ""
	AbsorptionFast    AbsorptionHint = "fast"
	AbsorptionSlow    AbsorptionHint = "slow"
)

// InsulinEvent is a bolus placed on the simulation timeline. TMin is the
// minute offset relative to simulation start; negative offsets are boluses
// given before the simulation window.
type InsulinEvent struct {
	ID    string  `json:"id"`
	TMin  float64 `json:"tMin"`
	Units float64 `json:"units"`
}

// NewInsulinEvent creates a bolus event with a generated ID
func NewInsulinEvent(tMin, units float64) InsulinEvent {
	return InsulinEvent{ID: uuid.NewString(), TMin: tMin, Units: units}
}

// CarbEvent is a meal placed on the simulation timeline, with the macros
// needed to derive its absorption profile.
type CarbEvent struct {
	ID           string         `json:"id"`
	TMin         float64        `json:"tMin"`
	CarbsGrams   float64        `json:"carbsGrams"`
	FiberGrams   float64        `json:"fiberGrams"`
	FatGrams     float64        `json:"fatGrams"`
	ProteinGrams float64        `json:"proteinGrams"`
	Hint         AbsorptionHint `json:"hint,omitempty"`
}

// NewCarbEvent creates a carb event with a generated ID
func NewCarbEvent(tMin, grams float64) CarbEvent {
	return CarbEvent{ID: uuid.NewString(), TMin: tMin, CarbsGrams: grams}
}

// ForecastEvents are the read-only inputs to one simulation run
type ForecastEvents struct {
	Insulin []InsulinEvent `json:"insulin"`
	Carbs   []CarbEvent    `json:"carbs"`
}

// ForecastPoint is one simulation tick. The impact fields are cumulative
// mg/dL contributions of each effect since simulation start, recorded so
// callers can audit which effect dominates at any timestamp.
type ForecastPoint struct {
	TMin int     `json:"tMin"`
	BG   float64 `json:"bg"`

	BasalImpact float64 `json:"basalImpact"`
	BolusImpact float64 `json:"bolusImpact"`
	CarbImpact  float64 `json:"carbImpact"`
}

// ForecastSummary aggregates the full series including the starting value
type ForecastSummary struct {
	BGNow    float64 `json:"bgNow"`
	MinBG    float64 `json:"minBg"`
	MaxBG    float64 `json:"maxBg"`
	EndingBG float64 `json:"endingBg"`
}

// ForecastResponse is an ordered glucose projection plus its summary
type ForecastResponse struct {
	Points  []ForecastPoint `json:"points"`
	Summary ForecastSummary `json:"summary"`
}
