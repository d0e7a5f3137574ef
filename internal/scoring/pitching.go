package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/Linecast/models"
)

// PitchingModel projects the game total from the starting pitcher matchup and
// bullpen quality. Weak starters and tired bullpens push the total up, ace
// matchups pull it down.
type PitchingModel struct {
	baseModel
}

func NewPitchingModel(decisionBoundary float64) *PitchingModel {
	return &PitchingModel{baseModel{
		name:        "pitching_matchup",
		version:     "1.2.0",
		description: "Starter and bullpen run expectation model",
		params: map[string]float64{
			"decision_boundary": decisionBoundary,
			"starter_weight":    0.65,
			"bullpen_weight":    0.35,
			"league_avg_era":    4.20,
			"era_to_runs_scale": 1.05,
			"rest_penalty":      0.15,
		},
		required: []string{
			"home_pitching.starter_era",
			"away_pitching.starter_era",
			"home_pitching.bullpen_era",
			"away_pitching.bullpen_era",
		},
		optional: []string{
			"home_pitching.starter_whip",
			"away_pitching.starter_whip",
			"home_pitching.starter_k_per_9",
			"away_pitching.starter_k_per_9",
		},
	}}
}

func (m *PitchingModel) Validate(input *models.ModelInput) *models.ValidationResult {
	var warnings []string
	if input != nil {
		if input.HomePitching.StarterWHIP == 0 || input.AwayPitching.StarterWHIP == 0 {
			warnings = append(warnings, "starter WHIP unavailable, ERA-only projection")
		}
		if input.HomePitching.DaysRest > 0 && input.HomePitching.DaysRest < 4 {
			warnings = append(warnings, "home starter on short rest")
		}
		if input.AwayPitching.DaysRest > 0 && input.AwayPitching.DaysRest < 4 {
			warnings = append(warnings, "away starter on short rest")
		}
	}
	return m.validateInput(input, warnings)
}

func (m *PitchingModel) Predict(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
	validation := m.Validate(input)
	if !validation.Valid {
		return nil, models.NewValidationError(m.name, fmt.Sprintf("missing required fields: %v", validation.MissingRequired))
	}

	blendedHome := m.param("starter_weight")*input.HomePitching.StarterERA +
		m.param("bullpen_weight")*input.HomePitching.BullpenERA
	blendedAway := m.param("starter_weight")*input.AwayPitching.StarterERA +
		m.param("bullpen_weight")*input.AwayPitching.BullpenERA

	// ERA is runs per nine innings per side; each starter faces the opposing
	// lineup, so the blended ERAs sum to an expected game total.
	total := (blendedHome + blendedAway) / 2 * 2 * m.param("era_to_runs_scale")

	factors := []string{"starter_era", "bullpen_era", "era_to_runs_scale"}
	var insights []string

	if input.HomePitching.DaysRest > 0 && input.HomePitching.DaysRest < 4 {
		total += m.param("rest_penalty")
		factors = append(factors, "home_short_rest")
		insights = append(insights, "home starter on short rest, expect earlier bullpen entry")
	}
	if input.AwayPitching.DaysRest > 0 && input.AwayPitching.DaysRest < 4 {
		total += m.param("rest_penalty")
		factors = append(factors, "away_short_rest")
		insights = append(insights, "away starter on short rest, expect earlier bullpen entry")
	}

	total = clamp(total, 2.0, 20.0)

	// Confidence grows with how far both starters sit from league average:
	// extreme matchups are easier calls than two mid-rotation arms.
	divergence := (absDiff(blendedHome, m.param("league_avg_era")) +
		absDiff(blendedAway, m.param("league_avg_era"))) / 2
	confidence := clamp(0.45+divergence*0.12, 0, 0.9) * validation.DataQualityScore

	return &models.ModelPrediction{
		ModelName:       m.name,
		ModelVersion:    m.version,
		Direction:       m.direction(total),
		Confidence:      confidence,
		CalculatedTotal: total,
		Reasoning: fmt.Sprintf("blended ERA %.2f (home) vs %.2f (away) projects %.1f runs",
			blendedHome, blendedAway, total),
		FactorsUsed: factors,
		KeyInsights: insights,
		GeneratedAt: time.Now(),
	}, nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
