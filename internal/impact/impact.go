package impact

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Linecast/models"
)

// Fixed dimension tables the guard projects a parameter change across
var (
	venues = []struct {
		name        string
		sensitivity float64
	}{
		{"Coors Field", 1.6},
		{"Great American Ball Park", 1.3},
		{"Fenway Park", 1.1},
		{"Oracle Park", 0.8},
		{"Petco Park", 0.8},
		{"T-Mobile Park", 0.85},
	}

	pitcherClasses = []struct {
		name        string
		sensitivity float64
	}{
		{"ACE", 1.4},
		{"MID_ROTATION", 1.0},
		{"BACK_END", 1.2},
	}

	teams = []struct {
		name        string
		sensitivity float64
	}{
		{"high_offense", 1.3},
		{"average_offense", 1.0},
		{"low_offense", 0.9},
	}

	weatherBuckets = []struct {
		name        string
		sensitivity float64
	}{
		{"hot_wind_out", 1.5},
		{"mild_neutral", 1.0},
		{"cold_wind_in", 1.2},
		{"dome", 0.7},
	}

	timeHorizons = []struct {
		name        string
		sensitivity float64
	}{
		{"next_7_days", 1.0},
		{"next_30_days", 1.1},
		{"full_season", 1.25},
	}
)

// correlationRule flags a related parameter whose effect overlaps the changed
// one once the relative change passes the threshold.
type correlationRule struct {
	relatedComponent string
	relatedParameter string
	threshold        float64 // relative magnitude above which the risk fires
	description      string
}

var correlationRules = map[string][]correlationRule{
	"pitching_matchup/starter_weight": {
		{"pitching_matchup", "bullpen_weight", 0.10, "starter and bullpen weights must stay complementary"},
		{"market_anchor", "signal_weight", 0.20, "market anchor leans on the same starter quality signal"},
	},
	"pitching_matchup/era_to_runs_scale": {
		{"offense_production", "ops_sensitivity", 0.15, "both scale run expectation from rate stats"},
	},
	"environment/wind_out_per_mph": {
		{"environment", "temp_runs_per_10f", 0.25, "weather terms compound in hot wind-out games"},
	},
	"environment/league_avg_total": {
		{"offense_production", "season_weight", 0.10, "baseline total shifts the whole ensemble"},
		{"market_anchor", "anchor_weight", 0.10, "baseline total shifts disagreement with the market"},
	},
	"market_anchor/anchor_weight": {
		{"market_anchor", "signal_weight", 0.05, "anchor and signal weights must sum near one"},
	},
}

// Per-component relative-change thresholds above which correlation scanning
// escalates. Unlisted components use the default.
var componentThresholds = map[string]float64{
	"pitching_matchup":   0.15,
	"offense_production": 0.20,
	"environment":        0.25,
	"market_anchor":      0.10,
}

const defaultComponentThreshold = 0.20

// Guard is the pre-flight checker for model parameter changes. It never sits
// on the prediction hot path.
type Guard struct {
	store  models.PredictionStore
	logger zerolog.Logger
}

func NewGuard(store models.PredictionStore) *Guard {
	return &Guard{
		store:  store,
		logger: log.With().Str("component", "change_guard").Logger(),
	}
}

// Analyze projects a proposed parameter change across the fixed dimension
// tables, scans for correlation risks, and reduces everything to one overall
// tier and recommendation. The proposal is archived whether or not it is
// later implemented.
func (g *Guard) Analyze(component, parameter string, oldValue, newValue float64, rationale string) (*models.ChangeProposal, error) {
	if component == "" || parameter == "" {
		return nil, fmt.Errorf("component and parameter are required")
	}
	if rationale == "" {
		return nil, fmt.Errorf("a rationale is required for every change proposal")
	}

	magnitude := relativeMagnitude(oldValue, newValue)

	proposal := &models.ChangeProposal{
		ID:         uuid.NewString(),
		Component:  component,
		Parameter:  parameter,
		OldValue:   oldValue,
		NewValue:   newValue,
		Magnitude:  magnitude,
		Rationale:  rationale,
		AnalyzedAt: time.Now(),
	}

	// Absolute shift the change applies to a neutral calculated total
	baseShift := (newValue - oldValue)

	for _, v := range venues {
		proposal.Impacts = append(proposal.Impacts, dimensionImpact("venue", v.name, baseShift*v.sensitivity))
	}
	for _, p := range pitcherClasses {
		proposal.Impacts = append(proposal.Impacts, dimensionImpact("pitcher_class", p.name, baseShift*p.sensitivity))
	}
	for _, t := range teams {
		proposal.Impacts = append(proposal.Impacts, dimensionImpact("team", t.name, baseShift*t.sensitivity))
	}
	for _, w := range weatherBuckets {
		proposal.Impacts = append(proposal.Impacts, dimensionImpact("weather", w.name, baseShift*w.sensitivity))
	}
	for _, h := range timeHorizons {
		proposal.Impacts = append(proposal.Impacts, dimensionImpact("time_horizon", h.name, baseShift*h.sensitivity))
	}

	threshold, ok := componentThresholds[component]
	if !ok {
		threshold = defaultComponentThreshold
	}
	if magnitude > threshold {
		for _, rule := range correlationRules[component+"/"+parameter] {
			if magnitude > rule.threshold {
				severity := models.SeverityWarning
				if magnitude > rule.threshold*2 {
					severity = models.SeverityCritical
				}
				proposal.Correlations = append(proposal.Correlations, models.CorrelationRisk{
					Component:   rule.relatedComponent,
					Parameter:   rule.relatedParameter,
					Description: rule.description,
					Severity:    severity,
				})
			}
		}
	}

	proposal.OverallRisk = g.scoreRisk(proposal)
	proposal.Recommendation = g.Recommend(proposal.OverallRisk, magnitude)

	g.logger.Info().
		Str("component", component).
		Str("parameter", parameter).
		Float64("magnitude", magnitude).
		Str("risk", proposal.OverallRisk).
		Str("recommendation", proposal.Recommendation).
		Msg("change proposal analyzed")

	if g.store != nil {
		if err := g.store.RecordChange(proposal, false); err != nil {
			return nil, fmt.Errorf("archiving change proposal: %w", err)
		}
	}

	return proposal, nil
}

// RecordImplemented marks a proposal as implemented in the change log
func (g *Guard) RecordImplemented(proposal *models.ChangeProposal) error {
	proposal.Implemented = true
	if g.store == nil {
		return nil
	}
	return g.store.RecordChange(proposal, true)
}

// scoreRisk reduces per-dimension risk levels plus correlation risks to one
// tier via point scoring.
func (g *Guard) scoreRisk(p *models.ChangeProposal) string {
	points := 0
	for _, imp := range p.Impacts {
		switch imp.RiskLevel {
		case models.RiskMedium:
			points++
		case models.RiskHigh:
			points += 2
		case models.RiskCritical:
			points += 4
		}
	}
	for _, c := range p.Correlations {
		if c.Severity == models.SeverityCritical {
			points += 4
		} else {
			points += 2
		}
	}

	switch {
	case points >= 20:
		return models.RiskCritical
	case points >= 10:
		return models.RiskHigh
	case points >= 4:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Recommend maps risk tier and relative magnitude to an action
func (g *Guard) Recommend(tier string, magnitude float64) string {
	switch tier {
	case models.RiskCritical:
		return models.RecommendReject
	case models.RiskHigh:
		return models.RecommendMoreAnlysis
	case models.RiskMedium:
		if magnitude > 0.25 {
			return models.RecommendMoreAnlysis
		}
		return models.RecommendCaution
	default:
		if magnitude > 0.5 {
			return models.RecommendCaution
		}
		return models.RecommendProceed
	}
}

func dimensionImpact(dimension, segment string, shift float64) models.DimensionImpact {
	return models.DimensionImpact{
		Dimension:      dimension,
		Segment:        segment,
		ProjectedShift: math.Round(shift*100) / 100,
		RiskLevel:      shiftRisk(shift),
	}
}

// shiftRisk classifies a projected per-segment shift in runs on the total
func shiftRisk(shift float64) string {
	abs := math.Abs(shift)
	switch {
	case abs >= 1.0:
		return models.RiskCritical
	case abs >= 0.5:
		return models.RiskHigh
	case abs >= 0.2:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// relativeMagnitude is |new-old| / |old|, falling back to the absolute delta
// when the old value is zero.
func relativeMagnitude(oldValue, newValue float64) float64 {
	if oldValue == 0 {
		return math.Abs(newValue)
	}
	return math.Abs(newValue-oldValue) / math.Abs(oldValue)
}
