package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/Linecast/models"
)

func fullInput() *models.ModelInput {
	return &models.ModelInput{
		Game: models.GameContext{
			GameID:   "game-1",
			HomeTeam: "NYY",
			AwayTeam: "BOS",
			Venue:    "Yankee Stadium",
			GameDate: time.Date(2026, 7, 14, 19, 0, 0, 0, time.UTC),
			Weather: models.WeatherSnapshot{
				TemperatureF:  78,
				WindSpeedMPH:  10,
				WindDirection: "OUT",
				ObservedAt:    time.Now(),
			},
			ParkFactors: models.ParkFactors{RunFactor: 1.05, HRFactor: 1.1},
		},
		HomePitching: models.PitchingMetrics{
			StarterERA: 3.2, StarterWHIP: 1.1, StarterKPer9: 9.5,
			BullpenERA: 3.8, DaysRest: 5, SkillBucket: "ACE",
		},
		AwayPitching: models.PitchingMetrics{
			StarterERA: 5.1, StarterWHIP: 1.45, StarterKPer9: 7.0,
			BullpenERA: 4.6, DaysRest: 4, SkillBucket: "BACK_END",
		},
		HomeOffense: models.OffenseMetrics{
			RunsPerGame: 5.1, OPS: 0.780, Last10RunsAvg: 5.5,
		},
		AwayOffense: models.OffenseMetrics{
			RunsPerGame: 4.3, OPS: 0.710, Last10RunsAvg: 4.0,
		},
		Market: models.MarketRecord{Line: 9.0, Bookmaker: "test", FetchedAt: time.Now()},
		Timestamps: map[string]time.Time{
			"odds": time.Now(), "weather": time.Now(),
		},
	}
}

func allModels() []models.ScoringModel {
	return []models.ScoringModel{
		NewPitchingModel(8.5),
		NewOffenseModel(8.5),
		NewEnvironmentModel(8.5),
		NewMarketModel(8.5),
	}
}

func TestAllModelsPredictInRange(t *testing.T) {
	input := fullInput()
	for _, m := range allModels() {
		t.Run(m.Name(), func(t *testing.T) {
			pred, err := m.Predict(context.Background(), input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pred.Confidence < 0 || pred.Confidence > 1 {
				t.Errorf("confidence %v outside [0,1]", pred.Confidence)
			}
			if pred.CalculatedTotal < 0 || pred.CalculatedTotal > 50 {
				t.Errorf("total %v outside [0,50]", pred.CalculatedTotal)
			}
			if pred.Direction != models.DirectionOver && pred.Direction != models.DirectionUnder {
				t.Errorf("invalid direction %q", pred.Direction)
			}
			if len(pred.FactorsUsed) == 0 {
				t.Error("factor list is empty")
			}
			if pred.ModelName != m.Name() {
				t.Errorf("prediction attributed to %q, want %q", pred.ModelName, m.Name())
			}
			if pred.Reasoning == "" {
				t.Error("reasoning is empty")
			}
		})
	}
}

func TestContractComplete(t *testing.T) {
	for _, m := range allModels() {
		t.Run(m.Name(), func(t *testing.T) {
			if m.Name() == "" || m.Version() == "" || m.Description() == "" {
				t.Error("model identity is incomplete")
			}
			if len(m.RequiredFields()) == 0 {
				t.Error("no required fields declared")
			}
			if len(m.Parameters()) == 0 {
				t.Error("no tunable parameters exposed")
			}
		})
	}
}

func TestParametersReturnsCopy(t *testing.T) {
	for _, m := range allModels() {
		t.Run(m.Name(), func(t *testing.T) {
			params := m.Parameters()
			before := m.Parameters()["decision_boundary"]
			params["decision_boundary"] = -999
			if m.Parameters()["decision_boundary"] != before {
				t.Error("mutating the returned map leaked into model state")
			}
		})
	}
}

func TestValidateMissingRequired(t *testing.T) {
	input := fullInput()
	input.HomePitching.StarterERA = 0
	input.AwayPitching.StarterERA = 0

	m := NewPitchingModel(8.5)
	result := m.Validate(input)

	if result.Valid {
		t.Error("expected invalid result with missing starter ERA")
	}
	if len(result.MissingRequired) != 2 {
		t.Errorf("missing required = %v, want both starter ERA paths", result.MissingRequired)
	}
	if result.DataQualityScore >= 1.0 {
		t.Errorf("quality score %v should be penalized", result.DataQualityScore)
	}
}

func TestPredictFailsOnMissingRequired(t *testing.T) {
	input := fullInput()
	input.Market.Line = 0

	m := NewMarketModel(8.5)
	_, err := m.Predict(context.Background(), input)

	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *models.ValidationError, got %v", err)
	}
}

func TestQualityScorePenalties(t *testing.T) {
	m := NewPitchingModel(8.5)

	tests := []struct {
		name    string
		mutate  func(in *models.ModelInput)
		wantMax float64
	}{
		{"clean input near one", func(in *models.ModelInput) {}, 1.0},
		{"one missing field", func(in *models.ModelInput) { in.HomePitching.BullpenERA = 0 }, 0.75},
		{"two missing fields", func(in *models.ModelInput) {
			in.HomePitching.BullpenERA = 0
			in.AwayPitching.BullpenERA = 0
		}, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := fullInput()
			// Neutralize warning sources so only the mutation counts
			input.HomePitching.DaysRest = 5
			input.AwayPitching.DaysRest = 5
			tt.mutate(input)
			result := m.Validate(input)
			if result.DataQualityScore > tt.wantMax {
				t.Errorf("quality score = %v, want <= %v", result.DataQualityScore, tt.wantMax)
			}
		})
	}
}

func TestEnvironmentRoofClosedNeutralizesWeather(t *testing.T) {
	m := NewEnvironmentModel(8.5)

	open := fullInput()
	open.Game.Weather.WindSpeedMPH = 20
	open.Game.Weather.WindDirection = "OUT"
	open.Game.Weather.TemperatureF = 95

	closed := fullInput()
	closed.Game.Weather = open.Game.Weather
	closed.Game.ParkFactors.RoofClosed = true

	openPred, err := m.Predict(context.Background(), open)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	closedPred, err := m.Predict(context.Background(), closed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if openPred.CalculatedTotal <= closedPred.CalculatedTotal {
		t.Errorf("hot wind-out open-air total %v should exceed roof-closed %v",
			openPred.CalculatedTotal, closedPred.CalculatedTotal)
	}
}

func TestPitchingDirectionFollowsMatchupQuality(t *testing.T) {
	m := NewPitchingModel(8.5)

	aces := fullInput()
	aces.HomePitching.StarterERA = 2.2
	aces.HomePitching.BullpenERA = 3.0
	aces.AwayPitching.StarterERA = 2.5
	aces.AwayPitching.BullpenERA = 3.1

	weak := fullInput()
	weak.HomePitching.StarterERA = 5.8
	weak.HomePitching.BullpenERA = 5.2
	weak.AwayPitching.StarterERA = 6.1
	weak.AwayPitching.BullpenERA = 5.5

	acePred, err := m.Predict(context.Background(), aces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weakPred, err := m.Predict(context.Background(), weak)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acePred.Direction != models.DirectionUnder {
		t.Errorf("ace matchup direction = %v, want UNDER (total %v)", acePred.Direction, acePred.CalculatedTotal)
	}
	if weakPred.Direction != models.DirectionOver {
		t.Errorf("weak matchup direction = %v, want OVER (total %v)", weakPred.Direction, weakPred.CalculatedTotal)
	}
}

func TestMarketModelHugsTheLine(t *testing.T) {
	m := NewMarketModel(8.5)
	input := fullInput()
	input.Market.Line = 10.5

	pred, err := m.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.CalculatedTotal < 9.0 || pred.CalculatedTotal > 12.0 {
		t.Errorf("anchored total %v strayed too far from line 10.5", pred.CalculatedTotal)
	}
}
