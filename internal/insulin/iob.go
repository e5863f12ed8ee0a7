package insulin

import (
	"math"

	"github.com/mrcode/glucose-engine/internal/models"
)

// TotalIOB aggregates the insulin still active at minute nowMin for a set of
// bolus events on the same timeline. Boluses administered in the future
// (relative to nowMin) contribute their full dose.
func TotalIOB(c Curve, events []models.InsulinEvent, nowMin float64) float64 {
	var iob float64
	for _, ev := range events {
		iob += c.RemainingIOB(nowMin-ev.TMin, ev.Units)
	}
	return math.Round(iob*100) / 100
}
