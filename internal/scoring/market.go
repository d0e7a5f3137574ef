package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/Linecast/models"
)

// MarketModel anchors on the bookmaker line and nudges it with the strongest
// fundamentals. It exists to keep the ensemble honest: the market already
// prices most public information.
type MarketModel struct {
	baseModel
}

func NewMarketModel(decisionBoundary float64) *MarketModel {
	return &MarketModel{baseModel{
		name:        "market_anchor",
		version:     "1.0.2",
		description: "Market-line anchored regression model",
		params: map[string]float64{
			"decision_boundary": decisionBoundary,
			"anchor_weight":     0.8,
			"signal_weight":     0.2,
			"league_avg_era":    4.20,
		},
		required: []string{
			"market.line",
			"home_pitching.starter_era",
			"away_pitching.starter_era",
		},
		optional: []string{
			"home_offense.runs_per_game",
			"away_offense.runs_per_game",
		},
	}}
}

func (m *MarketModel) Validate(input *models.ModelInput) *models.ValidationResult {
	var warnings []string
	if input != nil && input.Market.Line > 0 {
		if input.Market.Line < 6 || input.Market.Line > 13 {
			warnings = append(warnings, "market line outside typical range")
		}
	}
	return m.validateInput(input, warnings)
}

func (m *MarketModel) Predict(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
	validation := m.Validate(input)
	if !validation.Valid {
		return nil, models.NewValidationError(m.name, fmt.Sprintf("missing required fields: %v", validation.MissingRequired))
	}

	// Fundamental signal: combined starter ERA distance from league average,
	// expressed in runs on the total.
	combinedERA := (input.HomePitching.StarterERA + input.AwayPitching.StarterERA) / 2
	signal := input.Market.Line + (combinedERA-m.param("league_avg_era"))*1.5

	total := m.param("anchor_weight")*input.Market.Line + m.param("signal_weight")*signal
	total = clamp(total, 2.0, 20.0)

	factors := []string{"market_line", "starter_era"}
	var insights []string
	if absDiff(total, input.Market.Line) >= 0.5 {
		insights = append(insights, fmt.Sprintf("fundamentals disagree with line by %.1f runs", total-input.Market.Line))
	}

	// Anchored outputs hug the line, so conviction comes from how far the
	// signal pulls away from it.
	confidence := clamp(0.5+absDiff(total, input.Market.Line)*0.2, 0, 0.8) *
		validation.DataQualityScore

	return &models.ModelPrediction{
		ModelName:       m.name,
		ModelVersion:    m.version,
		Direction:       m.direction(total),
		Confidence:      confidence,
		CalculatedTotal: total,
		Reasoning: fmt.Sprintf("line %.1f adjusted by starter quality to %.2f",
			input.Market.Line, total),
		FactorsUsed: factors,
		KeyInsights: insights,
		GeneratedAt: time.Now(),
	}, nil
}
