package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/Linecast/internal/ensemble"
	"github.com/Alias1177/Linecast/internal/freshness"
	"github.com/Alias1177/Linecast/internal/metrics"
	"github.com/Alias1177/Linecast/internal/registry"
	"github.com/Alias1177/Linecast/models"
)

// Outcome is the result of one prediction request: the ensemble result plus
// every non-fatal error absorbed along the way.
type Outcome struct {
	Result         *models.EnsembleResult `json:"result"`
	PredictionID   string                 `json:"prediction_id,omitempty"`
	NonFatalErrors []string               `json:"non_fatal_errors,omitempty"`
}

// BatchItem pairs one game with its outcome or fatal error
type BatchItem struct {
	GameID  string   `json:"game_id"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Err     error    `json:"-"`
}

// Orchestrator sequences fetch, freshness gating, model fan-out, aggregation
// and result logging for prediction requests.
type Orchestrator struct {
	cfg        *models.Config
	registry   *registry.Registry
	gameData   models.GameDataClient
	market     models.MarketClient
	gate       *freshness.Gate
	aggregator *ensemble.Aggregator
	store      models.PredictionStore
	notifier   models.Notifier
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(
	cfg *models.Config,
	reg *registry.Registry,
	gameData models.GameDataClient,
	market models.MarketClient,
	gate *freshness.Gate,
	aggregator *ensemble.Aggregator,
	store models.PredictionStore,
	notifier models.Notifier,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		registry:   reg,
		gameData:   gameData,
		market:     market,
		gate:       gate,
		aggregator: aggregator,
		store:      store,
		notifier:   notifier,
		metrics:    m,
		logger:     log.With().Str("component", "orchestrator").Logger(),
		inFlight:   make(map[string]struct{}),
	}
}

// RunPrediction executes the full pipeline for one game. Collaborator fetch
// failures fall back to default data and are surfaced as non-fatal errors;
// only critical staleness and total model failure abort the request.
func (o *Orchestrator) RunPrediction(ctx context.Context, gameID string) (*Outcome, error) {
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}

	if !o.acquire(gameID) {
		if o.metrics != nil {
			o.metrics.ConflictCount.Inc()
		}
		return nil, &models.ConflictError{GameID: gameID}
	}
	defer o.release(gameID)

	started := time.Now()
	requestID := uuid.NewString()
	logger := o.logger.With().Str("request_id", requestID).Str("game_id", gameID).Logger()
	outcome := &Outcome{}

	// Stage 1: fetch inputs, falling back to defaults on failure
	input, marketRec := o.fetchInputs(ctx, gameID, outcome, logger)

	// Stage 2: freshness gate over whatever timestamps we have
	report := o.gate.CheckAll(input.Timestamps)
	if o.gate.ShouldHaltPipeline(report) {
		check := o.gate.HaltReason(report)
		o.observe("halted", "", started)
		if o.metrics != nil {
			o.metrics.HaltCount.WithLabelValues(check.Source).Inc()
		}
		logger.Error().Str("source", check.Source).Dur("age", check.Age).Msg("pipeline halted on critical staleness")
		return nil, &models.StalenessCriticalError{
			Source: check.Source,
			Age:    check.Age.Round(time.Minute).String(),
			MaxAge: check.MaxAge.String(),
		}
	}
	penalty := o.gate.ConfidencePenalty(report)

	// Stage 3: fan out to every registered model; a single failure never
	// fails the request unless nothing succeeds.
	predictions := o.executeModels(ctx, requestID, gameID, input, outcome, logger)
	if len(predictions) == 0 {
		o.observe("failed", "", started)
		return nil, models.NewAggregationError(
			fmt.Sprintf("all models failed for game %s: %v", gameID, outcome.NonFatalErrors))
	}

	// Stage 4: aggregate
	result, err := o.aggregator.Aggregate(gameID, predictions, marketRec, penalty)
	if err != nil {
		o.observe("failed", "", started)
		return nil, err
	}
	result.FreshnessNotes = o.gate.Notes(report)
	outcome.Result = result

	// Stage 5: best-effort logging
	if o.store != nil {
		record := &models.PredictionRecord{
			ID:              uuid.NewString(),
			GameID:          gameID,
			HomeTeam:        input.Game.HomeTeam,
			AwayTeam:        input.Game.AwayTeam,
			GameDate:        input.Game.GameDate,
			Direction:       result.Direction,
			Confidence:      result.Confidence,
			CalculatedTotal: result.CalculatedTotal,
			MarketLine:      result.MarketLine,
			Recommendation:  result.Recommendation,
			CreatedAt:       time.Now(),
		}
		if id, err := o.store.LogPrediction(record); err != nil {
			outcome.NonFatalErrors = append(outcome.NonFatalErrors, fmt.Sprintf("logging failed: %v", err))
			logger.Warn().Err(err).Msg("prediction logging failed")
		} else {
			outcome.PredictionID = id
		}
	}

	// Stage 6: best-effort notification for strong picks
	if o.notifier != nil && result.Recommendation == models.TierStrong {
		if err := o.notifier.NotifyPick(ctx, result); err != nil {
			outcome.NonFatalErrors = append(outcome.NonFatalErrors, fmt.Sprintf("notification failed: %v", err))
			logger.Warn().Err(err).Msg("pick notification failed")
		}
	}

	o.observe("success", result.Recommendation, started)
	logger.Info().
		Str("direction", result.Direction).
		Float64("total", result.CalculatedTotal).
		Str("recommendation", result.Recommendation).
		Int("non_fatal_errors", len(outcome.NonFatalErrors)).
		Msg("prediction complete")

	return outcome, nil
}

// RunBatch runs predictions for a list of games, chunked by the concurrency
// bound with a fixed delay between chunks to respect upstream rate limits.
// Individual failures land in their item; only programmer error returns one.
func (o *Orchestrator) RunBatch(ctx context.Context, gameIDs []string) ([]BatchItem, error) {
	if len(gameIDs) == 0 {
		return nil, fmt.Errorf("at least one game id is required")
	}

	items := make([]BatchItem, len(gameIDs))
	chunkSize := o.cfg.MaxConcurrent
	if chunkSize <= 0 {
		chunkSize = 1
	}

	for start := 0; start < len(gameIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(gameIDs) {
			end = len(gameIDs)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				outcome, err := o.RunPrediction(gctx, gameIDs[i])
				items[i] = BatchItem{GameID: gameIDs[i], Outcome: outcome, Err: err}
				return nil
			})
		}
		_ = g.Wait()

		if end < len(gameIDs) && o.cfg.BatchDelaySeconds > 0 {
			select {
			case <-time.After(time.Duration(o.cfg.BatchDelaySeconds) * time.Second):
			case <-ctx.Done():
				return items, nil
			}
		}
	}

	return items, nil
}

// fetchInputs gathers game context, metrics, and market data, substituting
// fallback defaults for any collaborator that fails.
func (o *Orchestrator) fetchInputs(ctx context.Context, gameID string, outcome *Outcome, logger zerolog.Logger) (*models.ModelInput, *models.MarketRecord) {
	var input *models.ModelInput

	game, err := o.gameData.GetGameContext(ctx, gameID)
	if err != nil {
		fetchErr := &models.FetchError{Source: "game_context", Err: err}
		outcome.NonFatalErrors = append(outcome.NonFatalErrors, fetchErr.Error())
		o.countFallback("game_context")
		logger.Warn().Err(err).Msg("game context fetch failed, using defaults")
		game = defaultGameContext(gameID)
	}

	input, err = o.gameData.GetModelInput(ctx, game)
	if err != nil {
		fetchErr := &models.FetchError{Source: "team_metrics", Err: err}
		outcome.NonFatalErrors = append(outcome.NonFatalErrors, fetchErr.Error())
		o.countFallback("team_metrics")
		logger.Warn().Err(err).Msg("metrics fetch failed, using defaults")
		input = defaultModelInput(game)
	}

	marketRec, err := o.market.GetMarket(ctx, gameID)
	if err != nil {
		fetchErr := &models.FetchError{Source: "market", Err: err}
		outcome.NonFatalErrors = append(outcome.NonFatalErrors, fetchErr.Error())
		o.countFallback("market")
		logger.Warn().Err(err).Msg("market fetch failed, using decision boundary as line")
		marketRec = &models.MarketRecord{
			Line:      o.cfg.DecisionBoundary,
			Bookmaker: "fallback",
			FetchedAt: time.Now(),
		}
	}

	input.Market = *marketRec
	if input.Timestamps == nil {
		input.Timestamps = make(map[string]time.Time)
	}
	input.Timestamps["odds"] = marketRec.FetchedAt

	return input, marketRec
}

// executeModels fans out to all registered models concurrently, collecting
// successes and recording failures as non-fatal errors.
func (o *Orchestrator) executeModels(ctx context.Context, requestID, gameID string, input *models.ModelInput, outcome *Outcome, logger zerolog.Logger) []*models.ModelPrediction {
	names := o.registry.ModelNames()

	var mu sync.Mutex
	var predictions []*models.ModelPrediction
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			execCtx := &models.ExecutionContext{
				RequestID: requestID,
				GameID:    gameID,
				Isolation: models.IsolationConfig{
					Sandboxed:        true,
					Timeout:          time.Duration(o.cfg.ModelTimeout) * time.Millisecond,
					MemoryCeilingMB:  o.cfg.MemoryCeilingMB,
					PreventCrossTalk: true,
				},
				StartedAt: time.Now(),
			}

			pred, err := o.registry.Execute(ctx, name, input, execCtx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcome.NonFatalErrors = append(outcome.NonFatalErrors, err.Error())
				if o.metrics != nil {
					o.metrics.ModelFailureCount.WithLabelValues(name, errorKind(err)).Inc()
				}
				logger.Warn().Err(err).Str("model", name).Msg("model execution failed")
				return
			}
			predictions = append(predictions, pred)
		}(name)
	}
	wg.Wait()

	return predictions
}

func (o *Orchestrator) acquire(gameID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.inFlight[gameID]; exists {
		return false
	}
	o.inFlight[gameID] = struct{}{}
	return true
}

func (o *Orchestrator) release(gameID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, gameID)
}

func (o *Orchestrator) observe(outcome, recommendation string, started time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.PredictionCount.WithLabelValues(outcome, recommendation).Inc()
	o.metrics.PipelineDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}

func (o *Orchestrator) countFallback(source string) {
	if o.metrics != nil {
		o.metrics.FallbackCount.WithLabelValues(source).Inc()
	}
}

// errorKind classifies an execution error for metric labels
func errorKind(err error) string {
	var ve *models.ValidationError
	var te *models.TimeoutError
	var iv *models.IsolationViolation
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &iv):
		return "isolation"
	default:
		return "other"
	}
}

// defaultGameContext is the fallback record used when the stats feed is down
func defaultGameContext(gameID string) *models.GameContext {
	return &models.GameContext{
		GameID:   gameID,
		HomeTeam: "UNKNOWN_HOME",
		AwayTeam: "UNKNOWN_AWAY",
		Venue:    "unknown",
		GameDate: time.Now(),
		Weather: models.WeatherSnapshot{
			TemperatureF:  70,
			WindDirection: "CALM",
			ObservedAt:    time.Now(),
		},
		ParkFactors: models.ParkFactors{RunFactor: 1.0, HRFactor: 1.0},
	}
}

// defaultModelInput carries league-average metrics so models can still run
func defaultModelInput(game *models.GameContext) *models.ModelInput {
	leaguePitching := models.PitchingMetrics{
		StarterERA:     4.20,
		StarterWHIP:    1.30,
		StarterKPer9:   8.5,
		StarterInnings: 5.3,
		BullpenERA:     4.10,
		DaysRest:       5,
		SkillBucket:    "MID_ROTATION",
	}
	leagueOffense := models.OffenseMetrics{
		RunsPerGame:   4.5,
		OPS:           0.715,
		WOBA:          0.315,
		KRatePct:      22.5,
		HomeRunsPerG:  1.2,
		Last10RunsAvg: 4.5,
	}
	return &models.ModelInput{
		Game:         *game,
		HomePitching: leaguePitching,
		AwayPitching: leaguePitching,
		HomeOffense:  leagueOffense,
		AwayOffense:  leagueOffense,
		Timestamps: map[string]time.Time{
			"weather": game.Weather.ObservedAt,
		},
	}
}
