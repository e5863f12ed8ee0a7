// Package models contains data structures used throughout the engine
package models

import "time"

// MealSlot represents different times of day for per-slot therapy settings
type MealSlot string

const (
	Morning MealSlot = "morning" // 6:00 - 11:00
	Midday  MealSlot = "midday"  // 11:00 - 17:00
	Evening MealSlot = "evening" // 17:00 - 22:00
	Night   MealSlot = "night"   // 22:00 - 6:00
)

// SlotForTime returns the meal slot for a given time
func SlotForTime(t time.Time) MealSlot {
	hour := t.Hour()
	switch {
	case hour >= 6 && hour < 11:
		return Morning
	case hour >= 11 && hour < 17:
		return Midday
	case hour >= 17 && hour < 22:
		return Evening
	default:
		return Night
	}
}

// SlotSettings holds per-meal-slot overrides of the global therapy values.
// A zero field means the slot does not override that value.
type SlotSettings struct {
	CarbRatio        float64 `json:"carbRatio"`        // Grams per unit
	CorrectionFactor float64 `json:"correctionFactor"` // mg/dL per unit (ISF)
	TargetMgDL       float64 `json:"targetMgdl"`       // Correction target
}

// ExerciseIntensity classifies planned physical activity
type ExerciseIntensity string

const (
	ExerciseLight    ExerciseIntensity = "light"
	ExerciseModerate ExerciseIntensity = "moderate"
	ExerciseIntense  ExerciseIntensity = "intense"
)

// TherapySettings contains the user-configured dosing parameters. They are
// read-only inputs to a calculation; the engine never mutates or persists
// them.
type TherapySettings struct {
	// Global ratios, used when no slot value or request override applies
	DefaultCarbRatio float64 `json:"defaultCarbRatio"` // Grams per unit
	DefaultISF       float64 `json:"defaultIsf"`       // mg/dL per unit

	// Target range (mg/dL); corrections aim at the midpoint unless a slot
	// or request target is set
	TargetLowMgDL  float64 `json:"targetLow"`
	TargetHighMgDL float64 `json:"targetHigh"`

	// Per-meal-slot overrides
	Slots map[MealSlot]SlotSettings `json:"slots,omitempty"`

	// Safety limits
	MaxBolusUnits      float64 `json:"maxBolusUnits"`
	MaxCorrectionUnits float64 `json:"maxCorrectionUnits"`
	RoundStepUnits     float64 `json:"roundStepUnits"`
	HypoFloorMgDL      float64 `json:"hypoFloorMgdl"`
	StaleAfterMinutes  float64 `json:"staleAfterMinutes"`

	// Autosens: multiplier on effective ISF derived from recent
	// glucose-response history. Clamped to [0.7, 1.2] when applied.
	AutosensEnabled bool    `json:"autosensEnabled"`
	AutosensRatio   float64 `json:"autosensRatio"`

	// Meal-dose reduction for planned exercise, keyed by intensity and
	// duration bucket (minutes). Values are fractions in [0, 1).
	ExerciseReductions map[ExerciseIntensity]map[int]float64 `json:"exerciseReductions,omitempty"`
}

// Autosens safety limits
const (
	AutosensMin = 0.7
	AutosensMax = 1.2
)

// DefaultTherapySettings returns settings with conservative default values
func DefaultTherapySettings() TherapySettings {
	return TherapySettings{
		DefaultCarbRatio: 10, // 1 unit covers 10 g
		DefaultISF:       50, // 1 unit lowers BG by 50 mg/dL

		TargetLowMgDL:  90,
		TargetHighMgDL: 110,

		MaxBolusUnits:      10,
		MaxCorrectionUnits: 5,
		RoundStepUnits:     0.5,
		HypoFloorMgDL:      70,
		StaleAfterMinutes:  15,

		AutosensEnabled: false,
		AutosensRatio:   1.0,

		ExerciseReductions: DefaultExerciseReductions(),
	}
}

// DefaultExerciseReductions returns the built-in {intensity x duration}
// meal-dose reduction table. Keys are duration bucket boundaries in minutes.
func DefaultExerciseReductions() map[ExerciseIntensity]map[int]float64 {
	return map[ExerciseIntensity]map[int]float64{
		ExerciseLight:    {30: 0.10, 60: 0.20, 120: 0.30},
		ExerciseModerate: {30: 0.20, 60: 0.30, 120: 0.40},
		ExerciseIntense:  {30: 0.30, 60: 0.40, 120: 0.50},
	}
}

// MidTarget returns the midpoint of the configured target range, the
// last-resort correction target.
func (s TherapySettings) MidTarget() float64 {
	return (s.TargetLowMgDL + s.TargetHighMgDL) / 2
}

// SlotFor returns the settings for a meal slot, if configured.
func (s TherapySettings) SlotFor(slot MealSlot) (SlotSettings, bool) {
	if s.Slots == nil {
		return SlotSettings{}, false
	}
	v, ok := s.Slots[slot]
	return v, ok
}
