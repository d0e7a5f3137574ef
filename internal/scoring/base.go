package scoring

import (
	"math"

	"github.com/Alias1177/Linecast/models"
)

// Data-quality penalty weights applied per finding during validation
const (
	penaltyMissingField = 0.25
	penaltyError        = 0.15
	penaltyWarning      = 0.05
)

// fieldAccessors resolves declared field paths against a model input. A path
// resolves to (value, true) when the field is present and usable.
var fieldAccessors = map[string]func(*models.ModelInput) (float64, bool){
	"home_pitching.starter_era":  func(in *models.ModelInput) (float64, bool) { return in.HomePitching.StarterERA, in.HomePitching.StarterERA > 0 },
	"away_pitching.starter_era":  func(in *models.ModelInput) (float64, bool) { return in.AwayPitching.StarterERA, in.AwayPitching.StarterERA > 0 },
	"home_pitching.starter_whip": func(in *models.ModelInput) (float64, bool) { return in.HomePitching.StarterWHIP, in.HomePitching.StarterWHIP > 0 },
	"away_pitching.starter_whip": func(in *models.ModelInput) (float64, bool) { return in.AwayPitching.StarterWHIP, in.AwayPitching.StarterWHIP > 0 },
	"home_pitching.bullpen_era":  func(in *models.ModelInput) (float64, bool) { return in.HomePitching.BullpenERA, in.HomePitching.BullpenERA > 0 },
	"away_pitching.bullpen_era":  func(in *models.ModelInput) (float64, bool) { return in.AwayPitching.BullpenERA, in.AwayPitching.BullpenERA > 0 },
	"home_pitching.starter_k_per_9": func(in *models.ModelInput) (float64, bool) {
		return in.HomePitching.StarterKPer9, in.HomePitching.StarterKPer9 > 0
	},
	"away_pitching.starter_k_per_9": func(in *models.ModelInput) (float64, bool) {
		return in.AwayPitching.StarterKPer9, in.AwayPitching.StarterKPer9 > 0
	},
	"home_offense.runs_per_game": func(in *models.ModelInput) (float64, bool) { return in.HomeOffense.RunsPerGame, in.HomeOffense.RunsPerGame > 0 },
	"away_offense.runs_per_game": func(in *models.ModelInput) (float64, bool) { return in.AwayOffense.RunsPerGame, in.AwayOffense.RunsPerGame > 0 },
	"home_offense.ops":           func(in *models.ModelInput) (float64, bool) { return in.HomeOffense.OPS, in.HomeOffense.OPS > 0 },
	"away_offense.ops":           func(in *models.ModelInput) (float64, bool) { return in.AwayOffense.OPS, in.AwayOffense.OPS > 0 },
	"home_offense.last10_runs_avg": func(in *models.ModelInput) (float64, bool) {
		return in.HomeOffense.Last10RunsAvg, in.HomeOffense.Last10RunsAvg > 0
	},
	"away_offense.last10_runs_avg": func(in *models.ModelInput) (float64, bool) {
		return in.AwayOffense.Last10RunsAvg, in.AwayOffense.Last10RunsAvg > 0
	},
	"weather.temperature_f":    func(in *models.ModelInput) (float64, bool) { return in.Game.Weather.TemperatureF, in.Game.Weather.TemperatureF != 0 },
	"weather.wind_speed_mph":   func(in *models.ModelInput) (float64, bool) { return in.Game.Weather.WindSpeedMPH, true },
	"park_factors.run_factor":  func(in *models.ModelInput) (float64, bool) { return in.Game.ParkFactors.RunFactor, in.Game.ParkFactors.RunFactor > 0 },
	"park_factors.hr_factor":   func(in *models.ModelInput) (float64, bool) { return in.Game.ParkFactors.HRFactor, in.Game.ParkFactors.HRFactor > 0 },
	"park_factors.altitude_ft": func(in *models.ModelInput) (float64, bool) { return in.Game.ParkFactors.Altitude, true },
	"market.line":              func(in *models.ModelInput) (float64, bool) { return in.Market.Line, in.Market.Line > 0 },
}

// baseModel carries the shared identity and parameter handling for all
// scoring models. Parameters are tunable coefficients; callers always get a
// copy so registry-held state cannot be mutated through a model instance.
type baseModel struct {
	name        string
	version     string
	description string
	params      map[string]float64
	required    []string
	optional    []string
}

func (b *baseModel) Name() string        { return b.name }
func (b *baseModel) Version() string     { return b.version }
func (b *baseModel) Description() string { return b.description }

func (b *baseModel) RequiredFields() []string {
	out := make([]string, len(b.required))
	copy(out, b.required)
	return out
}

func (b *baseModel) OptionalFields() []string {
	out := make([]string, len(b.optional))
	copy(out, b.optional)
	return out
}

func (b *baseModel) Parameters() map[string]float64 {
	out := make(map[string]float64, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

func (b *baseModel) param(name string) float64 { return b.params[name] }

// validateInput checks declared required fields and computes the data-quality
// score with the fixed penalty weights.
func (b *baseModel) validateInput(input *models.ModelInput, warnings []string) *models.ValidationResult {
	result := &models.ValidationResult{Valid: true, DataQualityScore: 1.0}

	if input == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "input is nil")
		result.DataQualityScore = 0
		return result
	}

	for _, path := range b.required {
		accessor, ok := fieldAccessors[path]
		if !ok {
			result.Errors = append(result.Errors, "unknown field path "+path)
			continue
		}
		if _, present := accessor(input); !present {
			result.MissingRequired = append(result.MissingRequired, path)
		}
	}

	result.Warnings = append(result.Warnings, warnings...)

	score := 1.0
	score -= penaltyMissingField * float64(len(result.MissingRequired))
	score -= penaltyError * float64(len(result.Errors))
	score -= penaltyWarning * float64(len(result.Warnings))
	result.DataQualityScore = clamp(score, 0, 1)

	if len(result.MissingRequired) > 0 || len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

// direction derives the Over/Under label for a total against the model's
// configured decision boundary.
func (b *baseModel) direction(total float64) string {
	if total > b.param("decision_boundary") {
		return models.DirectionOver
	}
	return models.DirectionUnder
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
