package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/Linecast/models"
)

// EnvironmentModel projects the total from scoring environment: park factors,
// temperature, wind, and altitude applied to a league-average game.
type EnvironmentModel struct {
	baseModel
}

func NewEnvironmentModel(decisionBoundary float64) *EnvironmentModel {
	return &EnvironmentModel{baseModel{
		name:        "environment",
		version:     "2.0.1",
		description: "Park factor and weather scoring environment model",
		params: map[string]float64{
			"decision_boundary": decisionBoundary,
			"league_avg_total":  8.7,
			"temp_baseline_f":   70.0,
			"temp_runs_per_10f": 0.25,
			"wind_out_per_mph":  0.04,
			"wind_in_per_mph":   0.05,
			"altitude_per_kft":  0.35,
		},
		required: []string{
			"park_factors.run_factor",
			"weather.temperature_f",
		},
		optional: []string{
			"weather.wind_speed_mph",
			"park_factors.hr_factor",
			"park_factors.altitude_ft",
		},
	}}
}

func (m *EnvironmentModel) Validate(input *models.ModelInput) *models.ValidationResult {
	var warnings []string
	if input != nil {
		if input.Game.Weather.Precipitation {
			warnings = append(warnings, "precipitation expected, postponement risk")
		}
		if input.Game.ParkFactors.RoofClosed {
			warnings = append(warnings, "roof closed, weather terms neutralized")
		}
	}
	return m.validateInput(input, warnings)
}

func (m *EnvironmentModel) Predict(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
	validation := m.Validate(input)
	if !validation.Valid {
		return nil, models.NewValidationError(m.name, fmt.Sprintf("missing required fields: %v", validation.MissingRequired))
	}

	total := m.param("league_avg_total") * input.Game.ParkFactors.RunFactor
	factors := []string{"run_factor"}
	var insights []string

	weather := input.Game.Weather
	if !input.Game.ParkFactors.RoofClosed {
		total += (weather.TemperatureF - m.param("temp_baseline_f")) / 10 * m.param("temp_runs_per_10f")
		factors = append(factors, "temperature")

		switch weather.WindDirection {
		case "OUT":
			total += weather.WindSpeedMPH * m.param("wind_out_per_mph")
			factors = append(factors, "wind_out")
			if weather.WindSpeedMPH >= 12 {
				insights = append(insights, fmt.Sprintf("%.0f mph blowing out, fly balls carry", weather.WindSpeedMPH))
			}
		case "IN":
			total -= weather.WindSpeedMPH * m.param("wind_in_per_mph")
			factors = append(factors, "wind_in")
		}
	} else {
		insights = append(insights, "roof closed, neutral conditions")
	}

	if input.Game.ParkFactors.Altitude > 3000 {
		total += input.Game.ParkFactors.Altitude / 1000 * m.param("altitude_per_kft")
		factors = append(factors, "altitude")
		insights = append(insights, "high-altitude park inflates run scoring")
	}

	total = clamp(total, 2.0, 20.0)

	// Environment is a secondary signal; cap confidence below the
	// matchup-driven models.
	confidence := clamp(0.35+absDiff(input.Game.ParkFactors.RunFactor, 1.0)*1.5, 0, 0.75) *
		validation.DataQualityScore

	return &models.ModelPrediction{
		ModelName:       m.name,
		ModelVersion:    m.version,
		Direction:       m.direction(total),
		Confidence:      confidence,
		CalculatedTotal: total,
		Reasoning: fmt.Sprintf("park factor %.2f and %.0fF with %s wind project %.1f runs",
			input.Game.ParkFactors.RunFactor, weather.TemperatureF, weather.WindDirection, total),
		FactorsUsed: factors,
		KeyInsights: insights,
		GeneratedAt: time.Now(),
	}, nil
}
