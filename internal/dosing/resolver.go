// Package dosing turns a calculation input into a single bolus
// recommendation with a fully auditable breakdown.
package dosing

import (
	"sort"

	"github.com/mrcode/glucose-engine/internal/models"
)

// Tier identifies which fallback level supplied a resolved setting. The
// chain is: explicit request override, then the per-meal-slot value, then
// the global default.
type Tier int

const (
	TierDefault Tier = iota
	TierSlot
	TierOverride
)

func (t Tier) String() string {
	switch t {
	case TierOverride:
		return "override"
	case TierSlot:
		return "slot"
	default:
		return "default"
	}
}

// Resolved is a setting value together with the tier that supplied it, so
// the fallback chain stays observable in breakdowns and tests.
type Resolved struct {
	Value float64
	Tier  Tier
}

// Resolve walks the override -> slot -> default chain. A slotValue of 0
// means the slot does not configure the setting.
func Resolve(override *float64, slotValue, defaultValue float64) Resolved {
	if override != nil {
		return Resolved{Value: *override, Tier: TierOverride}
	}
	if slotValue > 0 {
		return Resolved{Value: slotValue, Tier: TierSlot}
	}
	return Resolved{Value: defaultValue, Tier: TierDefault}
}

// resolveRatios resolves CR, ISF and target for the request's meal slot
func resolveRatios(in models.CalculationInput) (cr, isf, target Resolved) {
	slot, _ := in.Settings.SlotFor(in.Slot)
	cr = Resolve(in.CarbRatioOverride, slot.CarbRatio, in.Settings.DefaultCarbRatio)
	isf = Resolve(in.ISFOverride, slot.CorrectionFactor, in.Settings.DefaultISF)
	target = Resolve(in.TargetOverride, slot.TargetMgDL, in.Settings.MidTarget())
	return cr, isf, target
}

// exerciseReduction looks up the meal-dose reduction fraction for a planned
// exercise, bucketing the duration to the nearest configured boundary.
func exerciseReduction(plan models.ExercisePlan, table map[models.ExerciseIntensity]map[int]float64) (float64, int) {
	buckets, ok := table[plan.Intensity]
	if !ok || len(buckets) == 0 {
		return 0, 0
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	best := keys[0]
	for _, k := range keys[1:] {
		if absInt(int(plan.DurationMinutes)-k) < absInt(int(plan.DurationMinutes)-best) {
			best = k
		}
	}
	return buckets[best], best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
