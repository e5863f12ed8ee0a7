// Command simulate runs the dosing calculator and forecast simulator
// against a YAML scenario file, deterministically and offline. It is the
// engine's embedding/debugging surface: structured logs go to stderr, the
// forecast JSON to stdout.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mrcode/glucose-engine/internal/config"
	"github.com/mrcode/glucose-engine/internal/engine"
	"github.com/mrcode/glucose-engine/internal/forecast"
	"github.com/mrcode/glucose-engine/internal/models"
	"github.com/mrcode/glucose-engine/internal/residual"
)

// scenario is the YAML input shape
type scenario struct {
	Glucose *struct {
		MgDL         float64 `yaml:"mgdl"`
		AgeMinutes   float64 `yaml:"ageMinutes"`
		TrendPer5Min float64 `yaml:"trendPer5Min"`
	} `yaml:"glucose"`

	CarbsGrams float64 `yaml:"carbsGrams"`
	IOBUnits   float64 `yaml:"iobUnits"`
	IOBKnown   bool    `yaml:"iobKnown"`
	Slot       string  `yaml:"slot"`

	HorizonMinutes  int     `yaml:"horizonMinutes"`
	BasalDrift      string  `yaml:"basalDrift"`
	BasalDailyUnits float64 `yaml:"basalDailyUnits"`
	ActiveBasalRate float64 `yaml:"activeBasalRate"`

	Events struct {
		Insulin []struct {
			TMin  float64 `yaml:"tMin"`
			Units float64 `yaml:"units"`
		} `yaml:"insulin"`
		Carbs []struct {
			TMin         float64 `yaml:"tMin"`
			CarbsGrams   float64 `yaml:"carbsGrams"`
			FiberGrams   float64 `yaml:"fiberGrams"`
			FatGrams     float64 `yaml:"fatGrams"`
			ProteinGrams float64 `yaml:"proteinGrams"`
			Hint         string  `yaml:"hint"`
		} `yaml:"carbs"`
	} `yaml:"events"`

	// Features for the residual model, keyed by minute offset
	Features map[int]map[string]float64 `yaml:"features"`
}

func main() {
	scenarioPath := flag.String("scenario", "scenario.yaml", "Path to the scenario YAML file")
	modelPath := flag.String("model", "", "Optional path to a residual model bundle")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	runID := uuid.NewString()
	log := logger.WithField("run", runID)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	data, err := os.ReadFile(*scenarioPath) //nolint:gosec // Path is an operator-supplied flag
	if err != nil {
		log.Fatalf("read scenario: %v", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		log.Fatalf("parse scenario: %v", err)
	}

	var bundle *residual.Bundle
	if *modelPath != "" {
		bundle, err = residual.Load(*modelPath)
		if err != nil {
			log.Fatalf("load residual model: %v", err)
		}
		log.WithField("version", bundle.Version).Info("residual model loaded")
	}

	in := buildInput(sc, cfg)
	dose, err := engine.CalculateDose(in)
	if err != nil {
		log.Fatalf("calculate dose: %v", err)
	}
	log.WithFields(logrus.Fields{
		"totalUnits":    dose.TotalUnits,
		"upfrontUnits":  dose.UpfrontUnits,
		"safetyBlocked": dose.SafetyBlocked,
		"warnings":      dose.Warnings,
	}).Info("dose calculated")
	for _, line := range dose.Breakdown {
		log.Debug(line)
	}

	params, events := buildSimulation(sc, cfg)
	features := make(map[int]residual.Features, len(sc.Features))
	for t, row := range sc.Features {
		features[t] = residual.Features(row)
	}

	resp, blend, err := engine.SimulateForecast(params, events, sc.HorizonMinutes, bundle, features)
	if err != nil {
		log.Fatalf("simulate forecast: %v", err)
	}
	log.WithFields(logrus.Fields{
		"points":    len(resp.Points),
		"minBg":     resp.Summary.MinBG,
		"maxBg":     resp.Summary.MaxBG,
		"endingBg":  resp.Summary.EndingBG,
		"mlApplied": blend.Applied,
	}).Info("forecast complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		RunID     string                    `json:"runId"`
		Dose      *models.CalculationResult `json:"dose"`
		Forecast  *models.ForecastResponse  `json:"forecast"`
		MLApplied bool                      `json:"mlApplied"`
	}{runID, dose, resp, blend.Applied}); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func buildInput(sc scenario, cfg *config.Config) models.CalculationInput {
	in := models.CalculationInput{
		CarbsGrams: sc.CarbsGrams,
		IOBUnits:   sc.IOBUnits,
		IOBKnown:   sc.IOBKnown,
		Slot:       models.MealSlot(sc.Slot),
		Settings:   cfg.TherapySettings(),
	}
	if sc.Glucose != nil {
		in.Glucose = &models.GlucoseReading{
			MgDL:         sc.Glucose.MgDL,
			AgeMinutes:   sc.Glucose.AgeMinutes,
			TrendPer5Min: sc.Glucose.TrendPer5Min,
		}
	}
	return in
}

func buildSimulation(sc scenario, cfg *config.Config) (forecast.Params, models.ForecastEvents) {
	settings := cfg.TherapySettings()
	params := forecast.Params{
		ISF:             settings.DefaultISF,
		ICR:             settings.DefaultCarbRatio,
		Insulin:         cfg.InsulinProfile(),
		Carbs:           cfg.Carbs,
		BasalDrift:      models.BasalDriftMode(sc.BasalDrift),
		BasalDailyUnits: sc.BasalDailyUnits,
		ActiveBasalRate: sc.ActiveBasalRate,
	}
	if sc.Glucose != nil {
		params.StartBG = sc.Glucose.MgDL
	}
	if params.BasalDrift == "" {
		params.BasalDrift = models.BasalNeutral
	}

	var events models.ForecastEvents
	for _, ev := range sc.Events.Insulin {
		events.Insulin = append(events.Insulin, models.NewInsulinEvent(ev.TMin, ev.Units))
	}
	for _, ev := range sc.Events.Carbs {
		carb := models.NewCarbEvent(ev.TMin, ev.CarbsGrams)
		carb.FiberGrams = ev.FiberGrams
		carb.FatGrams = ev.FatGrams
		carb.ProteinGrams = ev.ProteinGrams
		carb.Hint = models.AbsorptionHint(ev.Hint)
		events.Carbs = append(events.Carbs, carb)
	}
	return params, events
}
