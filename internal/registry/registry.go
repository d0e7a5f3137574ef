package registry

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Linecast/models"
)

// entry tracks one registered model and its lifecycle state. State moves
// REGISTERED -> EXECUTING -> {SUCCEEDED, FAILED} and lands on DISABLED once
// the violation threshold is reached. DISABLED is terminal until the model is
// manually registered again.
type entry struct {
	model      models.ScoringModel
	state      string
	violations int
	history    []models.ExecutionRecord
}

// Registry holds registered scoring models and executes them inside an
// isolation wrapper. All shared state is mutex-guarded; violation counting
// and disablement are atomic with respect to concurrent executions.
type Registry struct {
	mu                 sync.Mutex
	entries            map[string]*entry
	cfg                *models.Config
	logger             zerolog.Logger
	violationThreshold int
	historyLimit       int
}

func New(cfg *models.Config) *Registry {
	return &Registry{
		entries:            make(map[string]*entry),
		cfg:                cfg,
		logger:             log.With().Str("component", "model_registry").Logger(),
		violationThreshold: cfg.ViolationThreshold,
		historyLimit:       cfg.HistoryLimit,
	}
}

// Register adds a model. It fails on duplicate names and on incomplete
// contracts (empty name, version, or description). Registering a disabled
// model's name again is the manual re-registration path and resets its
// violation count.
func (r *Registry) Register(model models.ScoringModel) error {
	if model == nil {
		return fmt.Errorf("cannot register nil model")
	}
	if model.Name() == "" || model.Version() == "" || model.Description() == "" {
		return fmt.Errorf("model contract incomplete: name, version and description are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[model.Name()]; ok && existing.state != models.StateDisabled {
		return fmt.Errorf("model %s already registered", model.Name())
	}

	r.entries[model.Name()] = &entry{model: model, state: models.StateRegistered}
	r.logger.Info().Str("model", model.Name()).Str("version", model.Version()).Msg("model registered")
	return nil
}

// Deregister removes a model by name
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("model %s not registered", name)
	}
	delete(r.entries, name)
	r.logger.Info().Str("model", name).Msg("model deregistered")
	return nil
}

// ModelNames returns the names of all models eligible for execution
func (r *Registry) ModelNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if e.state != models.StateDisabled {
			names = append(names, name)
		}
	}
	return names
}

// State reports the lifecycle state of one model
func (r *Registry) State(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return "", false
	}
	return e.state, true
}

// ViolationCount reports the accumulated isolation violations for one model
func (r *Registry) ViolationCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		return e.violations
	}
	return 0
}

// History returns a copy of the bounded execution history for one model
func (r *Registry) History(name string) []models.ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return nil
	}
	out := make([]models.ExecutionRecord, len(e.history))
	copy(out, e.history)
	return out
}

type predictOutcome struct {
	prediction *models.ModelPrediction
	err        error
}

// Execute runs a model inside the isolation wrapper: the execution context
// must request sandboxing, the call races a deadline, the returned prediction
// is structurally validated, and isolation invariants are checked afterward.
// Every attempt, success or failure, lands in the model's execution history.
func (r *Registry) Execute(ctx context.Context, modelName string, input *models.ModelInput, execCtx *models.ExecutionContext) (*models.ModelPrediction, error) {
	if execCtx == nil || !execCtx.Isolation.Sandboxed {
		return nil, &models.IsolationViolation{Model: modelName, Msg: "execution context does not request sandboxing"}
	}

	r.mu.Lock()
	e, ok := r.entries[modelName]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("model %s not registered", modelName)
	}
	if e.state == models.StateDisabled {
		r.mu.Unlock()
		return nil, fmt.Errorf("model %s is disabled", modelName)
	}
	e.state = models.StateExecuting
	model := e.model
	r.mu.Unlock()

	timeout := execCtx.Isolation.Timeout
	if timeout <= 0 {
		timeout = time.Duration(r.cfg.ModelTimeout) * time.Millisecond
	}

	// Each model gets its own copy of the input so no shared references cross
	// the sandbox boundary.
	isolated := cloneInput(input)

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	started := time.Now()
	done := make(chan predictOutcome, 1)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go func() {
		pred, err := model.Predict(callCtx, isolated)
		done <- predictOutcome{prediction: pred, err: err}
	}()

	var outcome predictOutcome
	select {
	case outcome = <-done:
	case <-callCtx.Done():
		// Stop waiting past the deadline; the goroutine is abandoned and its
		// late result discarded via the buffered channel.
		err := &models.TimeoutError{Model: modelName, Budget: timeout.String()}
		r.finishExecution(modelName, execCtx, started, false, err, false)
		return nil, err
	}

	if outcome.err != nil {
		_, isViolation := outcome.err.(*models.IsolationViolation)
		r.finishExecution(modelName, execCtx, started, false, outcome.err, isViolation)
		return nil, outcome.err
	}

	if err := r.validatePrediction(modelName, outcome.prediction); err != nil {
		r.finishExecution(modelName, execCtx, started, false, err, false)
		return nil, err
	}

	if execCtx.Isolation.PreventCrossTalk && outcome.prediction.ModelName != modelName {
		err := &models.IsolationViolation{
			Model: modelName,
			Msg:   fmt.Sprintf("prediction attributed to %q", outcome.prediction.ModelName),
		}
		r.finishExecution(modelName, execCtx, started, false, err, true)
		return nil, err
	}

	if ceiling := execCtx.Isolation.MemoryCeilingMB; ceiling > 0 {
		var memAfter runtime.MemStats
		runtime.ReadMemStats(&memAfter)
		if memAfter.HeapAlloc > memBefore.HeapAlloc {
			grownMB := int((memAfter.HeapAlloc - memBefore.HeapAlloc) / (1024 * 1024))
			if grownMB > ceiling {
				err := &models.IsolationViolation{
					Model: modelName,
					Msg:   fmt.Sprintf("heap grew %dMB, ceiling %dMB", grownMB, ceiling),
				}
				r.finishExecution(modelName, execCtx, started, false, err, true)
				return nil, err
			}
		}
	}

	r.finishExecution(modelName, execCtx, started, true, nil, false)
	return outcome.prediction, nil
}

// validatePrediction structurally checks a returned prediction. Invalid
// results become errors, never silently passed through.
func (r *Registry) validatePrediction(modelName string, p *models.ModelPrediction) error {
	if p == nil {
		return models.NewValidationError(modelName, "model returned nil prediction")
	}
	if p.Direction != models.DirectionOver && p.Direction != models.DirectionUnder {
		return models.NewValidationError(modelName, fmt.Sprintf("invalid direction %q", p.Direction))
	}
	if math.IsNaN(p.Confidence) || math.IsInf(p.Confidence, 0) || p.Confidence < 0 || p.Confidence > 1 {
		return models.NewValidationError(modelName, fmt.Sprintf("confidence %v outside [0,1]", p.Confidence))
	}
	if math.IsNaN(p.CalculatedTotal) || math.IsInf(p.CalculatedTotal, 0) ||
		p.CalculatedTotal < r.cfg.MinTotal || p.CalculatedTotal > r.cfg.MaxTotal {
		return models.NewValidationError(modelName, fmt.Sprintf("calculated total %v outside [%v,%v]", p.CalculatedTotal, r.cfg.MinTotal, r.cfg.MaxTotal))
	}
	if len(p.FactorsUsed) == 0 {
		return models.NewValidationError(modelName, "factor list is empty")
	}
	return nil
}

// finishExecution records the outcome, counts violations, and disables the
// model once the threshold is reached. All under one lock so the disablement
// decision is atomic with concurrent executions.
func (r *Registry) finishExecution(modelName string, execCtx *models.ExecutionContext, started time.Time, success bool, execErr error, isViolation bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[modelName]
	if !ok {
		return
	}

	record := models.ExecutionRecord{
		RequestID:  execCtx.RequestID,
		GameID:     execCtx.GameID,
		Success:    success,
		Duration:   time.Since(started),
		ExecutedAt: started,
	}
	if execErr != nil {
		record.Error = execErr.Error()
	}
	e.history = append(e.history, record)
	if len(e.history) > r.historyLimit {
		e.history = e.history[len(e.history)-r.historyLimit:]
	}

	if success {
		e.state = models.StateSucceeded
	} else {
		e.state = models.StateFailed
	}

	if isViolation {
		e.violations++
		r.logger.Warn().
			Str("model", modelName).
			Int("violations", e.violations).
			Err(execErr).
			Msg("isolation violation recorded")
		if e.violations >= r.violationThreshold {
			e.state = models.StateDisabled
			r.logger.Error().
				Str("model", modelName).
				Int("violations", e.violations).
				Msg("model disabled: violation threshold reached")
		}
	}
}

// cloneInput deep-copies a model input so models never share references
func cloneInput(in *models.ModelInput) *models.ModelInput {
	if in == nil {
		return nil
	}
	out := *in
	if in.Timestamps != nil {
		out.Timestamps = make(map[string]time.Time, len(in.Timestamps))
		for k, v := range in.Timestamps {
			out.Timestamps[k] = v
		}
	}
	if in.Game.StartTime != nil {
		st := *in.Game.StartTime
		out.Game.StartTime = &st
	}
	return &out
}
