package models

import (
	"time"
)

// Config holds all application configuration
type Config struct {
	StatsAPIKey         string  `env:"STATS_API_KEY" envDefault:"-"`
	OddsAPIKey          string  `env:"ODDS_API_KEY" envDefault:"-"`
	StatsBaseURL        string  `env:"STATS_BASE_URL" envDefault:"https://statsapi.mlb.com/api/v1"`
	OddsBaseURL         string  `env:"ODDS_BASE_URL" envDefault:"https://api.the-odds-api.com/v4"`
	LogLevel            string  `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout      int     `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	ModelTimeout        int     `env:"MODEL_TIMEOUT" envDefault:"2000"` // milliseconds
	DecisionBoundary    float64 `env:"DECISION_BOUNDARY" envDefault:"8.5"`
	MinTotal            float64 `env:"MIN_TOTAL" envDefault:"0"`
	MaxTotal            float64 `env:"MAX_TOTAL" envDefault:"50"`
	ViolationThreshold  int     `env:"VIOLATION_THRESHOLD" envDefault:"5"`
	HistoryLimit        int     `env:"HISTORY_LIMIT" envDefault:"100"`
	MaxConcurrent       int     `env:"MAX_CONCURRENT" envDefault:"4"`
	BatchDelaySeconds   int     `env:"BATCH_DELAY_SECONDS" envDefault:"2"`
	MemoryCeilingMB     int     `env:"MEMORY_CEILING_MB" envDefault:"256"`
	StrongConfidence    float64 `env:"STRONG_CONFIDENCE" envDefault:"0.70"`
	LeanConfidence      float64 `env:"LEAN_CONFIDENCE" envDefault:"0.60"`
	FloorConfidence     float64 `env:"FLOOR_CONFIDENCE" envDefault:"0.50"`
	StrongEdge          float64 `env:"STRONG_EDGE" envDefault:"1.0"`
	LeanEdge            float64 `env:"LEAN_EDGE" envDefault:"0.5"`
	EnableNotifications bool    `env:"ENABLE_NOTIFICATIONS" envDefault:"false"`
}

// Prediction direction labels
const (
	DirectionOver  = "OVER"
	DirectionUnder = "UNDER"
)

// Recommendation tiers, strongest first
const (
	TierStrong = "STRONG"
	TierLean   = "LEAN"
	TierSlight = "SLIGHT"
	TierNoPlay = "NO_PLAY"
)

// WeatherSnapshot holds game-time weather conditions
type WeatherSnapshot struct {
	TemperatureF  float64   `json:"temperature_f"`
	WindSpeedMPH  float64   `json:"wind_speed_mph"`
	WindDirection string    `json:"wind_direction"` // IN, OUT, CROSS, CALM
	HumidityPct   float64   `json:"humidity_pct"`
	Precipitation bool      `json:"precipitation"`
	ObservedAt    time.Time `json:"observed_at"`
}

// ParkFactors holds per-venue scoring coefficients (1.0 = neutral)
type ParkFactors struct {
	RunFactor  float64 `json:"run_factor"`
	HRFactor   float64 `json:"hr_factor"`
	Altitude   float64 `json:"altitude_ft"`
	RoofClosed bool    `json:"roof_closed"`
}

// GameContext identifies one event to be predicted. It is built once per
// prediction run and never mutated afterward.
type GameContext struct {
	GameID      string          `json:"game_id"`
	HomeTeam    string          `json:"home_team"`
	AwayTeam    string          `json:"away_team"`
	Venue       string          `json:"venue"`
	GameDate    time.Time       `json:"game_date"`
	StartTime   *time.Time      `json:"start_time,omitempty"`
	Weather     WeatherSnapshot `json:"weather"`
	ParkFactors ParkFactors     `json:"park_factors"`
}

// PitchingMetrics holds starter and bullpen inputs for one side
type PitchingMetrics struct {
	StarterERA       float64 `json:"starter_era"`
	StarterWHIP      float64 `json:"starter_whip"`
	StarterKPer9     float64 `json:"starter_k_per_9"`
	StarterInnings   float64 `json:"starter_innings"`
	BullpenERA       float64 `json:"bullpen_era"`
	BullpenUsagePct  float64 `json:"bullpen_usage_pct"`
	DaysRest         int     `json:"days_rest"`
	SkillBucket      string  `json:"skill_bucket"` // ACE, MID_ROTATION, BACK_END
	RecentFormFactor float64 `json:"recent_form_factor"`
}

// OffenseMetrics holds team batting inputs for one side
type OffenseMetrics struct {
	RunsPerGame   float64 `json:"runs_per_game"`
	OPS           float64 `json:"ops"`
	WOBA          float64 `json:"woba"`
	KRatePct      float64 `json:"k_rate_pct"`
	HomeRunsPerG  float64 `json:"home_runs_per_g"`
	Last10RunsAvg float64 `json:"last10_runs_avg"`
	VsHandedOPS   float64 `json:"vs_handed_ops"`
}

// MarketRecord holds the current bookmaker line for the game total
type MarketRecord struct {
	Line       float64   `json:"line"`
	OverPrice  int       `json:"over_price"`  // American odds
	UnderPrice int       `json:"under_price"` // American odds
	Bookmaker  string    `json:"bookmaker"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// ModelInput is the read-only payload handed to a scoring model. One instance
// is built per model per run; models must never retain or mutate it.
type ModelInput struct {
	Game         GameContext          `json:"game"`
	HomePitching PitchingMetrics      `json:"home_pitching"`
	AwayPitching PitchingMetrics      `json:"away_pitching"`
	HomeOffense  OffenseMetrics       `json:"home_offense"`
	AwayOffense  OffenseMetrics       `json:"away_offense"`
	Market       MarketRecord         `json:"market"`
	Timestamps   map[string]time.Time `json:"timestamps"` // source name -> fetched at
}

// ModelPrediction is the output of a single scoring model
type ModelPrediction struct {
	ModelName       string    `json:"model_name"`
	ModelVersion    string    `json:"model_version"`
	Direction       string    `json:"direction"`  // OVER or UNDER
	Confidence      float64   `json:"confidence"` // 0-1
	CalculatedTotal float64   `json:"calculated_total"`
	Reasoning       string    `json:"reasoning"`
	FactorsUsed     []string  `json:"factors_used"`
	KeyInsights     []string  `json:"key_insights,omitempty"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ValidationResult is returned by a model's input validation pass
type ValidationResult struct {
	Valid            bool     `json:"valid"`
	Errors           []string `json:"errors,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
	MissingRequired  []string `json:"missing_required,omitempty"`
	DataQualityScore float64  `json:"data_quality_score"` // 0-1
}

// ModelBreakdown is the per-model slice of an ensemble result
type ModelBreakdown struct {
	ModelName  string  `json:"model_name"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Total      float64 `json:"total"`
	Weight     float64 `json:"weight"`
}

// EnsembleResult merges all model predictions for one game
type EnsembleResult struct {
	GameID          string           `json:"game_id"`
	Direction       string           `json:"direction"`
	Confidence      float64          `json:"confidence"`
	CalculatedTotal float64          `json:"calculated_total"`
	MarketLine      float64          `json:"market_line"`
	Edge            float64          `json:"edge"` // calculated total minus market line
	Recommendation  string           `json:"recommendation"`
	Breakdown       []ModelBreakdown `json:"breakdown"`
	LowReliability  bool             `json:"low_reliability,omitempty"`
	FreshnessNotes  []string         `json:"freshness_notes,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// Staleness severity levels
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Data impact weights on prediction quality
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// FreshnessCheck records the age assessment of one upstream data source
type FreshnessCheck struct {
	Source    string        `json:"source"`
	DataType  string        `json:"data_type"`
	Timestamp time.Time     `json:"timestamp"`
	Age       time.Duration `json:"age"`
	MaxAge    time.Duration `json:"max_age"`
	IsStale   bool          `json:"is_stale"`
	Severity  string        `json:"severity"`
	Impact    string        `json:"impact"`
}

// FreshnessReport aggregates all checks for one prediction run
type FreshnessReport struct {
	Checks      []FreshnessCheck `json:"checks"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Change risk tiers
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// Change recommendations
const (
	RecommendProceed     = "PROCEED"
	RecommendCaution     = "PROCEED_WITH_CAUTION"
	RecommendMoreAnlysis = "REQUIRE_ADDITIONAL_ANALYSIS"
	RecommendReject      = "DO_NOT_IMPLEMENT"
)

// DimensionImpact projects the effect of a parameter change on one slice of
// the prediction space (a venue, a pitcher class, a team, a weather bucket)
type DimensionImpact struct {
	Dimension      string  `json:"dimension"`
	Segment        string  `json:"segment"`
	ProjectedShift float64 `json:"projected_shift"` // runs on the calculated total
	RiskLevel      string  `json:"risk_level"`
}

// CorrelationRisk flags a parameter whose effect overlaps the changed one
type CorrelationRisk struct {
	Component   string `json:"component"`
	Parameter   string `json:"parameter"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// ChangeProposal is a pending adjustment to a model parameter, archived
// whether or not it is implemented
type ChangeProposal struct {
	ID             string            `json:"id"`
	Component      string            `json:"component"`
	Parameter      string            `json:"parameter"`
	OldValue       float64           `json:"old_value"`
	NewValue       float64           `json:"new_value"`
	Magnitude      float64           `json:"magnitude"` // relative change, 0-1+
	Rationale      string            `json:"rationale"`
	Impacts        []DimensionImpact `json:"impacts"`
	Correlations   []CorrelationRisk `json:"correlations,omitempty"`
	OverallRisk    string            `json:"overall_risk"`
	Recommendation string            `json:"recommendation"`
	AnalyzedAt     time.Time         `json:"analyzed_at"`
	Implemented    bool              `json:"implemented"`
}

// IsolationConfig declares the safety envelope for one model execution
type IsolationConfig struct {
	Sandboxed        bool          `json:"sandboxed"`
	Timeout          time.Duration `json:"timeout"`
	MemoryCeilingMB  int           `json:"memory_ceiling_mb"`
	PreventCrossTalk bool          `json:"prevent_cross_talk"`
}

// ExecutionContext carries per-invocation metadata through the registry
type ExecutionContext struct {
	RequestID string          `json:"request_id"`
	GameID    string          `json:"game_id"`
	Isolation IsolationConfig `json:"isolation"`
	StartedAt time.Time       `json:"started_at"`
}

// Model lifecycle states
const (
	StateRegistered = "REGISTERED"
	StateExecuting  = "EXECUTING"
	StateSucceeded  = "SUCCEEDED"
	StateFailed     = "FAILED"
	StateDisabled   = "DISABLED"
)

// ExecutionRecord is one entry in a model's bounded execution history
type ExecutionRecord struct {
	RequestID  string        `json:"request_id"`
	GameID     string        `json:"game_id"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	ExecutedAt time.Time     `json:"executed_at"`
}

// PredictionRecord is the durable row handed to the logging sink
type PredictionRecord struct {
	ID              string    `json:"id"`
	GameID          string    `json:"game_id"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	GameDate        time.Time `json:"game_date"`
	Direction       string    `json:"direction"`
	Confidence      float64   `json:"confidence"`
	CalculatedTotal float64   `json:"calculated_total"`
	MarketLine      float64   `json:"market_line"`
	Recommendation  string    `json:"recommendation"`
	CreatedAt       time.Time `json:"created_at"`
	ActualTotal     *float64  `json:"actual_total,omitempty"`
	BetOutcome      string    `json:"bet_outcome,omitempty"` // WIN, LOSS, PUSH
	WasCorrect      *bool     `json:"was_correct,omitempty"`
}

// PerformanceReport summarizes logged predictions over a window
type PerformanceReport struct {
	WindowDays        int            `json:"window_days"`
	TotalPredictions  int            `json:"total_predictions"`
	Settled           int            `json:"settled"`
	Correct           int            `json:"correct"`
	HitRate           float64        `json:"hit_rate"`
	AverageConfidence float64        `json:"average_confidence"`
	AverageEdge       float64        `json:"average_edge"`
	ByRecommendation  map[string]int `json:"by_recommendation"`
	GeneratedAt       time.Time      `json:"generated_at"`
}
