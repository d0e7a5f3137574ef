package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Linecast/internal/ensemble"
	"github.com/Alias1177/Linecast/internal/freshness"
	"github.com/Alias1177/Linecast/internal/registry"
	"github.com/Alias1177/Linecast/models"
)

func testConfig() *models.Config {
	return &models.Config{
		DecisionBoundary:   8.5,
		MinTotal:           0,
		MaxTotal:           50,
		ModelTimeout:       2000,
		ViolationThreshold: 5,
		HistoryLimit:       100,
		MaxConcurrent:      3,
		BatchDelaySeconds:  0,
		StrongConfidence:   0.70,
		LeanConfidence:     0.60,
		FloorConfidence:    0.50,
		StrongEdge:         1.0,
		LeanEdge:           0.5,
	}
}

// fakeGameData serves canned context and metrics, optionally failing
type fakeGameData struct {
	failContext bool
	failMetrics bool
}

func (f *fakeGameData) GetGameContext(ctx context.Context, gameID string) (*models.GameContext, error) {
	if f.failContext {
		return nil, fmt.Errorf("stats feed unavailable")
	}
	return &models.GameContext{
		GameID:   gameID,
		HomeTeam: "NYY",
		AwayTeam: "BOS",
		Venue:    "Yankee Stadium",
		GameDate: time.Now(),
		Weather: models.WeatherSnapshot{
			TemperatureF: 75, WindSpeedMPH: 8, WindDirection: "OUT", ObservedAt: time.Now(),
		},
		ParkFactors: models.ParkFactors{RunFactor: 1.02, HRFactor: 1.05},
	}, nil
}

func (f *fakeGameData) GetModelInput(ctx context.Context, game *models.GameContext) (*models.ModelInput, error) {
	if f.failMetrics {
		return nil, fmt.Errorf("metrics endpoint unavailable")
	}
	return &models.ModelInput{
		Game: *game,
		HomePitching: models.PitchingMetrics{
			StarterERA: 3.5, StarterWHIP: 1.2, BullpenERA: 3.9, DaysRest: 5,
		},
		AwayPitching: models.PitchingMetrics{
			StarterERA: 4.8, StarterWHIP: 1.4, BullpenERA: 4.4, DaysRest: 5,
		},
		HomeOffense: models.OffenseMetrics{RunsPerGame: 4.9, OPS: 0.750},
		AwayOffense: models.OffenseMetrics{RunsPerGame: 4.2, OPS: 0.705},
		Timestamps: map[string]time.Time{
			"weather":  game.Weather.ObservedAt,
			"pitching": time.Now(),
		},
	}, nil
}

type fakeMarket struct {
	fail      bool
	staleOdds bool
}

func (f *fakeMarket) GetMarket(ctx context.Context, gameID string) (*models.MarketRecord, error) {
	if f.fail {
		return nil, fmt.Errorf("odds feed unavailable")
	}
	fetched := time.Now()
	if f.staleOdds {
		fetched = time.Now().Add(-45 * time.Minute)
	}
	return &models.MarketRecord{
		Line: 9.0, OverPrice: -110, UnderPrice: -110, Bookmaker: "test", FetchedAt: fetched,
	}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	fail    bool
	records []*models.PredictionRecord
}

func (f *fakeStore) LogPrediction(record *models.PredictionRecord) (string, error) {
	if f.fail {
		return "", fmt.Errorf("database unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return record.ID, nil
}
func (f *fakeStore) UpdateResult(id string, actualTotal float64, betOutcome string) error {
	return nil
}
func (f *fakeStore) GeneratePerformanceReport(windowDays int) (*models.PerformanceReport, error) {
	return &models.PerformanceReport{}, nil
}
func (f *fakeStore) RecordChange(proposal *models.ChangeProposal, implemented bool) error {
	return nil
}

// stubModel is a minimal scoring model for orchestrator tests
type stubModel struct {
	name    string
	predict func(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error)
}

func (s *stubModel) Name() string                  { return s.name }
func (s *stubModel) Version() string               { return "1.0.0" }
func (s *stubModel) Description() string           { return "stub" }
func (s *stubModel) RequiredFields() []string      { return []string{"market.line"} }
func (s *stubModel) OptionalFields() []string      { return nil }
func (s *stubModel) Parameters() map[string]float64 { return map[string]float64{"decision_boundary": 8.5} }
func (s *stubModel) Validate(input *models.ModelInput) *models.ValidationResult {
	return &models.ValidationResult{Valid: true, DataQualityScore: 1.0}
}
func (s *stubModel) Predict(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
	return s.predict(ctx, input)
}

func steadyModel(name string, total, confidence float64) *stubModel {
	return &stubModel{
		name: name,
		predict: func(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
			direction := models.DirectionUnder
			if total > 8.5 {
				direction = models.DirectionOver
			}
			return &models.ModelPrediction{
				ModelName:       name,
				ModelVersion:    "1.0.0",
				Direction:       direction,
				Confidence:      confidence,
				CalculatedTotal: total,
				Reasoning:       "steady",
				FactorsUsed:     []string{"test"},
				GeneratedAt:     time.Now(),
			}, nil
		},
	}
}

func failingModel(name string) *stubModel {
	return &stubModel{
		name: name,
		predict: func(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
			return nil, models.NewValidationError(name, "bad input")
		},
	}
}

func newOrchestrator(t *testing.T, cfg *models.Config, gameData models.GameDataClient, market models.MarketClient, store models.PredictionStore, scoringModels ...models.ScoringModel) *Orchestrator {
	t.Helper()
	reg := registry.New(cfg)
	for _, m := range scoringModels {
		require.NoError(t, reg.Register(m))
	}
	return New(cfg, reg, gameData, market, freshness.NewGate(), ensemble.New(cfg), store, nil, nil)
}

func TestRunPredictionSuccess(t *testing.T) {
	store := &fakeStore{}
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, store,
		steadyModel("a", 9.2, 0.7),
		steadyModel("b", 7.8, 0.6),
		steadyModel("c", 9.0, 0.5),
	)

	outcome, err := o.RunPrediction(context.Background(), "game-1")
	require.NoError(t, err)
	require.NotNil(t, outcome.Result)

	assert.Equal(t, models.DirectionOver, outcome.Result.Direction)
	assert.InDelta(t, 8.64, outcome.Result.CalculatedTotal, 0.01)
	assert.InDelta(t, 0.6, outcome.Result.Confidence, 0.001)
	assert.Empty(t, outcome.NonFatalErrors)
	assert.NotEmpty(t, outcome.PredictionID)
	require.Len(t, store.records, 1)
	assert.Equal(t, "game-1", store.records[0].GameID)
}

func TestRunPredictionFetchFallback(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{failContext: true, failMetrics: true},
		&fakeMarket{fail: true}, &fakeStore{},
		steadyModel("a", 9.0, 0.7),
	)

	outcome, err := o.RunPrediction(context.Background(), "game-1")
	require.NoError(t, err, "fetch failures must not fail the request")
	require.NotNil(t, outcome.Result)

	// All three collaborators failed, each surfaced as a non-fatal error
	assert.Len(t, outcome.NonFatalErrors, 3)
	// Market fallback anchors the line at the decision boundary
	assert.Equal(t, 8.5, outcome.Result.MarketLine)
}

func TestRunPredictionHaltsOnCriticalStaleness(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{staleOdds: true}, &fakeStore{},
		steadyModel("a", 9.0, 0.7),
	)

	_, err := o.RunPrediction(context.Background(), "game-1")
	var sce *models.StalenessCriticalError
	require.True(t, errors.As(err, &sce), "expected staleness halt, got %v", err)
	assert.Equal(t, "odds", sce.Source)
}

func TestRunPredictionFailsWhenAllModelsFail(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, &fakeStore{},
		failingModel("a"), failingModel("b"),
	)

	_, err := o.RunPrediction(context.Background(), "game-1")
	var ae *models.AggregationError
	require.True(t, errors.As(err, &ae), "expected aggregation error, got %v", err)
}

func TestRunPredictionSurvivesPartialModelFailure(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, &fakeStore{},
		steadyModel("good", 9.0, 0.7), failingModel("bad"),
	)

	outcome, err := o.RunPrediction(context.Background(), "game-1")
	require.NoError(t, err)
	require.NotNil(t, outcome.Result)
	assert.Len(t, outcome.Result.Breakdown, 1)
	assert.Len(t, outcome.NonFatalErrors, 1)
}

func TestRunPredictionLoggingFailureIsNonFatal(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, &fakeStore{fail: true},
		steadyModel("a", 9.0, 0.7),
	)

	outcome, err := o.RunPrediction(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Empty(t, outcome.PredictionID)
	require.Len(t, outcome.NonFatalErrors, 1)
	assert.Contains(t, outcome.NonFatalErrors[0], "logging failed")
}

func TestRunPredictionConflict(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	slow := &stubModel{
		name: "slow",
		predict: func(ctx context.Context, input *models.ModelInput) (*models.ModelPrediction, error) {
			once.Do(func() { close(started) })
			<-release
			return &models.ModelPrediction{
				ModelName: "slow", ModelVersion: "1.0.0",
				Direction: models.DirectionOver, Confidence: 0.6, CalculatedTotal: 9.0,
				FactorsUsed: []string{"test"}, GeneratedAt: time.Now(),
			}, nil
		},
	}

	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, &fakeStore{}, slow)

	done := make(chan error, 1)
	go func() {
		_, err := o.RunPrediction(context.Background(), "game-1")
		done <- err
	}()
	<-started

	// Same game while the first request is in flight
	_, err := o.RunPrediction(context.Background(), "game-1")
	var ce *models.ConflictError
	require.True(t, errors.As(err, &ce), "expected conflict error, got %v", err)

	close(release)
	require.NoError(t, <-done)

	// After completion the game can be requested again
	_, err = o.RunPrediction(context.Background(), "game-1")
	assert.NoError(t, err)
}

func TestRunBatch(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, &fakeStore{},
		steadyModel("a", 9.0, 0.7),
	)

	gameIDs := []string{"g1", "g2", "g3", "g4", "g5"}
	items, err := o.RunBatch(context.Background(), gameIDs)
	require.NoError(t, err)
	require.Len(t, items, 5)

	for i, item := range items {
		assert.Equal(t, gameIDs[i], item.GameID)
		assert.NoError(t, item.Err)
		require.NotNil(t, item.Outcome)
		assert.NotNil(t, item.Outcome.Result)
	}
}

func TestRunBatchEmptyIsProgrammerError(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, &fakeStore{},
		steadyModel("a", 9.0, 0.7),
	)
	_, err := o.RunBatch(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunBatchItemFailuresDoNotFailBatch(t *testing.T) {
	o := newOrchestrator(t, testConfig(), &fakeGameData{}, &fakeMarket{}, &fakeStore{},
		failingModel("a"),
	)

	items, err := o.RunBatch(context.Background(), []string{"g1", "g2"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Error(t, item.Err)
	}
}
