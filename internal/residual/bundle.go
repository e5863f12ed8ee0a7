// Package residual optionally blends the physiological forecast with a
// pre-trained residual-correction model. The model is an external artifact
// produced by a separate training pipeline; the engine only reads it, and
// the physiological simulation is always the safe fallback.
package residual

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Bundle is the trained-model artifact. MLReady is set by the training
// pipeline once the model has passed its validation gates; a bundle that is
// not ready is treated the same as no bundle at all.
type Bundle struct {
	MLReady   bool      `json:"ml_ready"`
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trained_at"`

	// Linear residual model: residual = Intercept + sum(Weights[f] * x[f])
	Intercept float64            `json:"intercept"`
	Weights   map[string]float64 `json:"weights"`

	// Confidence metadata
	ResidualStd    float64 `json:"residual_std"`
	MaxAbsResidual float64 `json:"max_abs_residual"`
}

// Load reads a bundle artifact from disk. The file is loaded once per
// process and treated as immutable for the duration of a simulation run.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Artifact path is supplied by the operator, not user input
	if err != nil {
		return nil, fmt.Errorf("read model bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode model bundle: %w", err)
	}

	if b.MLReady && len(b.Weights) == 0 {
		return nil, fmt.Errorf("model bundle %q marked ready but has no weights", b.Version)
	}

	return &b, nil
}
