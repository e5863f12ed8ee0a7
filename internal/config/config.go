// Package config loads engine defaults from the environment, falling back
// to built-in values when a variable is unset.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mrcode/glucose-engine/internal/carbs"
	"github.com/mrcode/glucose-engine/internal/insulin"
	"github.com/mrcode/glucose-engine/internal/models"
)

// Config contains the engine defaults an embedding application starts from.
// User-specific therapy settings override these per request.
type Config struct {
	DIAMinutes         float64
	InsulinPeakMinutes float64

	HypoFloorMgDL      float64
	MaxBolusUnits      float64
	MaxCorrectionUnits float64
	RoundStepUnits     float64
	StaleAfterMinutes  float64

	Carbs carbs.Config
}

// Load reads configuration from the environment, preferring a .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found, using defaults")
	}

	cfg := &Config{
		DIAMinutes:         getEnvFloat("ENGINE_DIA_MINUTES", 300),
		InsulinPeakMinutes: getEnvFloat("ENGINE_INSULIN_PEAK_MINUTES", 75),
		HypoFloorMgDL:      getEnvFloat("ENGINE_HYPO_FLOOR_MGDL", 70),
		MaxBolusUnits:      getEnvFloat("ENGINE_MAX_BOLUS_UNITS", 10),
		MaxCorrectionUnits: getEnvFloat("ENGINE_MAX_CORRECTION_UNITS", 5),
		RoundStepUnits:     getEnvFloat("ENGINE_ROUND_STEP_UNITS", 0.5),
		StaleAfterMinutes:  getEnvFloat("ENGINE_STALE_AFTER_MINUTES", 15),
		Carbs:              carbs.DefaultConfig(),
	}

	cfg.Carbs.WarsawThresholdKcal = getEnvFloat("ENGINE_WARSAW_THRESHOLD_KCAL", cfg.Carbs.WarsawThresholdKcal)
	cfg.Carbs.WarsawFactor = getEnvFloat("ENGINE_WARSAW_FACTOR", cfg.Carbs.WarsawFactor)

	return cfg, nil
}

// TherapySettings builds default therapy settings from the loaded config
func (c *Config) TherapySettings() models.TherapySettings {
	s := models.DefaultTherapySettings()
	s.HypoFloorMgDL = c.HypoFloorMgDL
	s.MaxBolusUnits = c.MaxBolusUnits
	s.MaxCorrectionUnits = c.MaxCorrectionUnits
	s.RoundStepUnits = c.RoundStepUnits
	s.StaleAfterMinutes = c.StaleAfterMinutes
	return s
}

// InsulinProfile builds the default insulin action profile
func (c *Config) InsulinProfile() insulin.Profile {
	return insulin.Profile{
		Kind:        insulin.KindWalshExponential,
		DIAMinutes:  c.DIAMinutes,
		PeakMinutes: c.InsulinPeakMinutes,
	}
}

// getEnvFloat gets a float environment variable or returns the default
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logrus.Warnf("invalid %s=%q, using default %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}
