// Package carbs models carbohydrate absorption. A meal's macros are reduced
// to a two-compartment profile: a fast fraction absorbing early and a slow
// remainder peaking later, plus an optional fat/protein glucose-equivalent
// compartment (the Warsaw method) for high-energy meals.
package carbs

import (
	"math"

	"github.com/mrcode/glucose-engine/internal/models"
)

// Config holds the tunable absorption constants
type Config struct {
	// BaseFastFraction is the share of carbs absorbed through the fast
	// compartment for a fiber-free meal.
	BaseFastFraction float64 `json:"baseFastFraction"`
	// FiberShift scales how strongly fiber moves mass from the fast to the
	// slow compartment: f = base - shift * (fiber/carbs).
	FiberShift float64 `json:"fiberShift"`
	// MinFastFraction floors the fast fraction so it never collapses to 0.
	MinFastFraction float64 `json:"minFastFraction"`

	FastPeakMinutes float64 `json:"fastPeakMinutes"`
	SlowPeakMinutes float64 `json:"slowPeakMinutes"`

	// WarsawThresholdKcal triggers the fat/protein compartment once
	// 9*fat + 4*protein exceeds it.
	WarsawThresholdKcal float64 `json:"warsawThresholdKcal"`
	// WarsawFactor scales the fat/protein glucose-equivalent contribution;
	// 1.0 is full conversion, 0 disables the feature.
	WarsawFactor float64 `json:"warsawFactor"`
	// WarsawPeakMinutes is where the delayed fat/protein impulse peaks.
	WarsawPeakMinutes float64 `json:"warsawPeakMinutes"`
	// SlowPeakExtensionMax caps how far a high-energy meal pushes out the
	// slow compartment's peak.
	SlowPeakExtensionMax float64 `json:"slowPeakExtensionMax"`
}

// DefaultConfig returns the built-in absorption constants
func DefaultConfig() Config {
	return Config{
		BaseFastFraction:     0.7,
		FiberShift:           1.0,
		MinFastFraction:      0.2,
		FastPeakMinutes:      40,
		SlowPeakMinutes:      120,
		WarsawThresholdKcal:  50,
		WarsawFactor:         1.0,
		WarsawPeakMinutes:    240,
		SlowPeakExtensionMax: 60,
	}
}

// Params is the derived absorption profile for one meal
type Params struct {
	CarbGrams    float64
	FastFraction float64
	FastPeakMin  float64
	SlowPeakMin  float64

	// Delayed fat/protein glucose equivalents (Warsaw method); zero when the
	// meal is below the energy threshold or the feature is disabled.
	FPUGrams   float64
	FPUPeakMin float64
}

// ParamsFromMeal derives the absorption profile from a carb event's macros.
// More fiber shifts mass to the slow compartment; large fat/protein loads
// extend the slow tail and add a delayed glucose-equivalent impulse.
func ParamsFromMeal(ev models.CarbEvent, cfg Config) (Params, error) {
	if ev.CarbsGrams < 0 {
		return Params{}, models.NewValidationError("carbs.carbsGrams", "must be >= 0, got %g", ev.CarbsGrams)
	}
	if ev.FiberGrams < 0 || ev.FatGrams < 0 || ev.ProteinGrams < 0 {
		return Params{}, models.NewValidationError("carbs.macros", "fiber/fat/protein must be >= 0")
	}

	f := cfg.BaseFastFraction
	if ev.CarbsGrams > 0 {
		ratio := math.Min(1, ev.FiberGrams/ev.CarbsGrams)
		f -= cfg.FiberShift * ratio
	}
	if f < cfg.MinFastFraction {
		f = cfg.MinFastFraction
	}

	p := Params{
		CarbGrams:    ev.CarbsGrams,
		FastFraction: f,
		FastPeakMin:  cfg.FastPeakMinutes,
		SlowPeakMin:  cfg.SlowPeakMinutes,
	}

	kcal := 9*ev.FatGrams + 4*ev.ProteinGrams
	if kcal > cfg.WarsawThresholdKcal && cfg.WarsawFactor > 0 {
		// 100 kcal of fat/protein behaves like ~10 g of glucose, released
		// slowly; the slow carb tail stretches with the meal's energy load.
		p.FPUGrams = kcal / 10 * cfg.WarsawFactor
		p.FPUPeakMin = cfg.WarsawPeakMinutes
		extension := math.Min(cfg.SlowPeakExtensionMax, kcal*0.2)
		p.SlowPeakMin += extension
	}

	switch ev.Hint {
	case models.AbsorptionFast:
		p.FastPeakMin *= 0.75
		p.SlowPeakMin *= 0.75
	case models.AbsorptionSlow:
		p.FastPeakMin *= 1.25
		p.SlowPeakMin *= 1.25
	}

	return p, nil
}

// kernelRate is the per-minute absorption rate of a unit mass through one
// compartment peaking at tau minutes: (t/tau^2)*exp(-t/tau). Its integral
// over [0, inf) is 1.
func kernelRate(t, tau float64) float64 {
	if t <= 0 || tau <= 0 {
		return 0
	}
	return t / (tau * tau) * math.Exp(-t/tau)
}

// kernelCumulative is the closed-form integral of kernelRate over [0, t]
func kernelCumulative(t, tau float64) float64 {
	if t <= 0 || tau <= 0 {
		return 0
	}
	return 1 - (1+t/tau)*math.Exp(-t/tau)
}

// AbsorptionRate returns the glucose-equivalent absorption rate in g/min at
// tMin minutes after the meal. Non-negative; its integral over the modeled
// horizon approaches the meal's total glucose-equivalent mass.
func AbsorptionRate(tMin float64, p Params) float64 {
	rate := p.CarbGrams * (p.FastFraction*kernelRate(tMin, p.FastPeakMin) +
		(1-p.FastFraction)*kernelRate(tMin, p.SlowPeakMin))
	if p.FPUGrams > 0 {
		rate += p.FPUGrams * kernelRate(tMin, p.FPUPeakMin)
	}
	return rate
}

// Absorbed returns the glucose-equivalent grams absorbed by tMin
func Absorbed(tMin float64, p Params) float64 {
	total := p.CarbGrams * (p.FastFraction*kernelCumulative(tMin, p.FastPeakMin) +
		(1-p.FastFraction)*kernelCumulative(tMin, p.SlowPeakMin))
	if p.FPUGrams > 0 {
		total += p.FPUGrams * kernelCumulative(tMin, p.FPUPeakMin)
	}
	return total
}

// COB returns the glucose-equivalent grams not yet absorbed at tMin
func COB(tMin float64, p Params) float64 {
	remaining := p.CarbGrams + p.FPUGrams - Absorbed(tMin, p)
	if remaining < 0 {
		return 0
	}
	return math.Round(remaining*10) / 10
}
