package residual

import (
	"math"

	"github.com/mrcode/glucose-engine/internal/models"
)

// Features holds the model inputs for one forecast offset, keyed by the
// feature names the bundle was trained with.
type Features map[string]float64

// Result is the blender output. When Applied is false the series is the
// baseline, unchanged.
type Result struct {
	Series  []models.ForecastPoint `json:"series"`
	Applied bool                   `json:"applied"`

	// Residuals maps adjusted minute offsets to the model's predicted
	// residual at that offset.
	Residuals map[int]float64 `json:"residuals,omitempty"`

	// BandHalfWidth is the half-width of the 95% confidence band around
	// adjusted points, 0 when no adjustment was applied.
	BandHalfWidth float64 `json:"bandHalfWidth,omitempty"`
}

// Adjust applies the residual model to a baseline forecast. If the bundle is
// absent or not ready, or no features are supplied, the baseline passes
// through untouched. Otherwise each baseline point with a complete feature
// row gets the predicted residual added; points without one are left alone.
func Adjust(baseline []models.ForecastPoint, bundle *Bundle, features map[int]Features) Result {
	series := make([]models.ForecastPoint, len(baseline))
	copy(series, baseline)

	res := Result{Series: series}
	if bundle == nil || !bundle.MLReady || len(features) == 0 {
		return res
	}

	residuals := make(map[int]float64)
	for i, p := range series {
		row, ok := features[p.TMin]
		if !ok {
			continue
		}

		r, ok := bundle.predict(row)
		if !ok {
			continue
		}

		series[i].BG = math.Round((p.BG+r)*10) / 10
		residuals[p.TMin] = r
	}

	if len(residuals) > 0 {
		res.Applied = true
		res.Residuals = residuals
		res.BandHalfWidth = 1.96 * bundle.ResidualStd
	}
	return res
}

// predict evaluates the linear residual model on one feature row. A row
// missing any trained feature is incomplete and yields no prediction.
func (b *Bundle) predict(row Features) (float64, bool) {
	r := b.Intercept
	for name, w := range b.Weights {
		x, ok := row[name]
		if !ok {
			return 0, false
		}
		r += w * x
	}

	if b.MaxAbsResidual > 0 {
		r = math.Max(-b.MaxAbsResidual, math.Min(b.MaxAbsResidual, r))
	}
	return r, true
}
