// Package models contains data structures used throughout the engine
package models

// GlucoseReading is a point-in-time glucose observation supplied by the
// caller, usually from a CGM. A nil *GlucoseReading means no reading is
// available at all.
type GlucoseReading struct {
	MgDL         float64 `json:"mgdl"`         // Glucose value in mg/dL
	AgeMinutes   float64 `json:"ageMinutes"`   // Minutes since the reading was taken
	TrendPer5Min float64 `json:"trendPer5Min"` // Rate of change (mg/dL per 5 min)
}

// IsStale reports whether the reading is older than maxAgeMinutes.
func (g *GlucoseReading) IsStale(maxAgeMinutes float64) bool {
	return g.AgeMinutes > maxAgeMinutes
}

// ValueMmolL returns the glucose value in mmol/L
func (g *GlucoseReading) ValueMmolL() float64 {
	return ToMmol(g.MgDL)
}

// ToMmol converts a mg/dL value to mmol/L
func ToMmol(mgdl float64) float64 {
	return mgdl / 18.0182
}

// ToMgdl converts a mmol/L value to mg/dL
func ToMgdl(mmol float64) float64 {
	return mmol * 18.0182
}
