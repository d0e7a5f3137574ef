package models

import "fmt"

// ValidationError means a model received malformed input or produced an
// out-of-range output. Fatal to the single model call, never to the request.
type ValidationError struct {
	Model string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for model %s: %s", e.Model, e.Msg)
}

func NewValidationError(model, msg string) *ValidationError {
	return &ValidationError{Model: model, Msg: msg}
}

// TimeoutError means a model exceeded its execution budget
type TimeoutError struct {
	Model  string
	Budget string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("model %s exceeded execution budget of %s", e.Model, e.Budget)
}

// IsolationViolation means a model breached its sandboxing contract. These
// count against the model's violation counter.
type IsolationViolation struct {
	Model string
	Msg   string
}

func (e *IsolationViolation) Error() string {
	return fmt.Sprintf("isolation violation by model %s: %s", e.Model, e.Msg)
}

// StalenessCriticalError halts the whole pipeline: a high-impact source is
// past its maximum age.
type StalenessCriticalError struct {
	Source string
	Age    string
	MaxAge string
}

func (e *StalenessCriticalError) Error() string {
	return fmt.Sprintf("critical staleness: %s is %s old (max %s)", e.Source, e.Age, e.MaxAge)
}

// FetchError is a non-fatal collaborator failure; the orchestrator falls back
// to default data and records it.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AggregationError is raised only when zero models succeed
type AggregationError struct {
	Msg string
}

func (e *AggregationError) Error() string { return e.Msg }

func NewAggregationError(msg string) *AggregationError {
	return &AggregationError{Msg: msg}
}

// ConflictError means a request for the same game is already in flight
type ConflictError struct {
	GameID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("prediction for game %s already in flight", e.GameID)
}
