package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/Linecast/models"
)

// OffenseModel projects the total from team run production, blending season
// rates with recent form.
type OffenseModel struct {
	baseModel
}

func NewOffenseModel(decisionBoundary float64) *OffenseModel {
	return &OffenseModel{baseModel{
		name:        "offense_production",
		version:     "1.1.0",
		description: "Team run production model with recent-form blending",
		params: map[string]float64{
			"decision_boundary": decisionBoundary,
			"season_weight":     0.7,
			"recent_weight":     0.3,
			"ops_baseline":      0.715,
			"ops_sensitivity":   4.0,
		},
		required: []string{
			"home_offense.runs_per_game",
			"away_offense.runs_per_game",
		},
		optional: []string{
			"home_offense.ops",
			"away_offense.ops",
			"home_offense.last10_runs_avg",
			"away_offense.last10_runs_avg",
		},
	}}
}

func (m *OffenseModel) Validate(input *models.ModelInput) *models.ValidationResult {
	var warnings []string
	if input != nil {
		if input.HomeOffense.Last10RunsAvg == 0 || input.AwayOffense.Last10RunsAvg == 0 {
			warnings = append(warnings, "recent form unavailable, season rates only")
		}
		if input.HomeOffense.OPS == 0 || input.AwayOffense.OPS == 0 {
			warnings = append(warnings, "OPS unavailable, skipping quality adjustment")
		}
	}
	return m.validateInput(input, warnings)
}

func (m *OffenseModel) Predict(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
	validation := m.Validate(input)
	if !validation.Valid {
		return nil, models.NewValidationError(m.name, fmt.Sprintf("missing required fields: %v", validation.MissingRequired))
	}

	home := m.blendSide(input.HomeOffense)
	away := m.blendSide(input.AwayOffense)
	total := home + away

	factors := []string{"runs_per_game"}
	var insights []string

	// OPS above baseline signals the run rate understates the lineup
	if input.HomeOffense.OPS > 0 && input.AwayOffense.OPS > 0 {
		avgOPS := (input.HomeOffense.OPS + input.AwayOffense.OPS) / 2
		total += (avgOPS - m.param("ops_baseline")) * m.param("ops_sensitivity")
		factors = append(factors, "ops")
	}
	if input.HomeOffense.Last10RunsAvg > 0 {
		factors = append(factors, "last10_runs_avg")
		if input.HomeOffense.Last10RunsAvg > input.HomeOffense.RunsPerGame+1 {
			insights = append(insights, "home lineup running hot over last 10")
		}
	}

	total = clamp(total, 2.0, 20.0)

	confidence := clamp(0.40+absDiff(total, m.param("decision_boundary"))*0.10, 0, 0.85) *
		validation.DataQualityScore

	return &models.ModelPrediction{
		ModelName:       m.name,
		ModelVersion:    m.version,
		Direction:       m.direction(total),
		Confidence:      confidence,
		CalculatedTotal: total,
		Reasoning: fmt.Sprintf("home %.2f + away %.2f expected runs with quality adjustments",
			home, away),
		FactorsUsed: factors,
		KeyInsights: insights,
		GeneratedAt: time.Now(),
	}, nil
}

func (m *OffenseModel) blendSide(o models.OffenseMetrics) float64 {
	if o.Last10RunsAvg > 0 {
		return m.param("season_weight")*o.RunsPerGame + m.param("recent_weight")*o.Last10RunsAvg
	}
	return o.RunsPerGame
}
