package models

import "context"

// ScoringModel is the contract every model must satisfy before the registry
// will accept it. Predict must treat its input as read-only; Parameters must
// return a copy so registry-held state cannot be mutated through it.
type ScoringModel interface {
	Name() string
	Version() string
	Description() string
	Predict(ctx context.Context, input *ModelInput) (*ModelPrediction, error)
	Validate(input *ModelInput) *ValidationResult
	RequiredFields() []string
	OptionalFields() []string
	Parameters() map[string]float64
}

// GameDataClient supplies the normalized game context for one event
type GameDataClient interface {
	GetGameContext(ctx context.Context, gameID string) (*GameContext, error)
	GetModelInput(ctx context.Context, game *GameContext) (*ModelInput, error)
}

// MarketClient supplies the current bookmaker total line
type MarketClient interface {
	GetMarket(ctx context.Context, gameID string) (*MarketRecord, error)
}

// PredictionStore is the durable logging sink for results and change history
type PredictionStore interface {
	LogPrediction(record *PredictionRecord) (string, error)
	UpdateResult(id string, actualTotal float64, betOutcome string) error
	GeneratePerformanceReport(windowDays int) (*PerformanceReport, error)
	RecordChange(proposal *ChangeProposal, implemented bool) error
}

// Notifier pushes high-conviction picks to an external channel
type Notifier interface {
	NotifyPick(ctx context.Context, result *EnsembleResult) error
}
