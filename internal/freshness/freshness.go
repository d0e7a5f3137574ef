package freshness

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Linecast/models"
)

// sourceRule declares how old one upstream data type may get and how much a
// stale copy degrades prediction quality.
type sourceRule struct {
	maxAge time.Duration
	impact string
}

var defaultRules = map[string]sourceRule{
	"odds":      {maxAge: 15 * time.Minute, impact: models.ImpactHigh},
	"weather":   {maxAge: 60 * time.Minute, impact: models.ImpactHigh},
	"lineups":   {maxAge: 180 * time.Minute, impact: models.ImpactMedium},
	"pitching":  {maxAge: 12 * time.Hour, impact: models.ImpactMedium},
	"offense":   {maxAge: 24 * time.Hour, impact: models.ImpactLow},
	"reference": {maxAge: 24 * time.Hour, impact: models.ImpactLow},
}

// Per-check confidence penalties in percentage points, by impact tier
const (
	penaltyHigh    = 15.0
	penaltyMedium  = 8.0
	penaltyLow     = 3.0
	penaltyCeiling = 50.0
)

// Gate assesses upstream data age before the pipeline runs
type Gate struct {
	rules  map[string]sourceRule
	now    func() time.Time
	logger zerolog.Logger
}

// NewGate creates a gate with the default per-source age table
func NewGate() *Gate {
	return &Gate{
		rules:  defaultRules,
		now:    time.Now,
		logger: log.With().Str("component", "freshness_gate").Logger(),
	}
}

// WithClock overrides the time source, used by tests
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// CheckSource assesses one timestamp against its source rule. Unknown sources
// fall back to the reference rule.
func (g *Gate) CheckSource(source, dataType string, ts time.Time) models.FreshnessCheck {
	rule, ok := g.rules[dataType]
	if !ok {
		rule = g.rules["reference"]
	}

	age := g.now().Sub(ts)
	stale := age > rule.maxAge

	severity := models.SeverityInfo
	if stale {
		switch rule.impact {
		case models.ImpactHigh:
			severity = models.SeverityCritical
		case models.ImpactMedium:
			severity = models.SeverityWarning
		default:
			severity = models.SeverityInfo
		}
	}

	check := models.FreshnessCheck{
		Source:    source,
		DataType:  dataType,
		Timestamp: ts,
		Age:       age,
		MaxAge:    rule.maxAge,
		IsStale:   stale,
		Severity:  severity,
		Impact:    rule.impact,
	}

	if stale {
		g.logger.Warn().
			Str("source", source).
			Str("data_type", dataType).
			Dur("age", age).
			Dur("max_age", rule.maxAge).
			Str("severity", severity).
			Msg("stale data source")
	}

	return check
}

// CheckAll builds a report from a map of source timestamps. Map keys double
// as the data-type tag, matching how collaborators label their fetches.
func (g *Gate) CheckAll(timestamps map[string]time.Time) *models.FreshnessReport {
	report := &models.FreshnessReport{GeneratedAt: g.now()}
	for source, ts := range timestamps {
		report.Checks = append(report.Checks, g.CheckSource(source, source, ts))
	}
	return report
}

// ShouldHaltPipeline returns true iff any check is both stale and high-impact
func (g *Gate) ShouldHaltPipeline(report *models.FreshnessReport) bool {
	for _, c := range report.Checks {
		if c.IsStale && c.Impact == models.ImpactHigh {
			return true
		}
	}
	return false
}

// HaltReason returns the first critical check, for error reporting
func (g *Gate) HaltReason(report *models.FreshnessReport) *models.FreshnessCheck {
	for i := range report.Checks {
		if report.Checks[i].IsStale && report.Checks[i].Impact == models.ImpactHigh {
			return &report.Checks[i]
		}
	}
	return nil
}

// ConfidencePenalty sums per-check penalties by impact tier, capped at the
// overall ceiling. Returned in percentage points.
func (g *Gate) ConfidencePenalty(report *models.FreshnessReport) float64 {
	penalty := 0.0
	for _, c := range report.Checks {
		if !c.IsStale {
			continue
		}
		switch c.Impact {
		case models.ImpactHigh:
			penalty += penaltyHigh
		case models.ImpactMedium:
			penalty += penaltyMedium
		default:
			penalty += penaltyLow
		}
	}
	if penalty > penaltyCeiling {
		penalty = penaltyCeiling
	}
	return penalty
}

// Notes renders stale checks as short strings for attachment to a result
func (g *Gate) Notes(report *models.FreshnessReport) []string {
	var notes []string
	for _, c := range report.Checks {
		if c.IsStale {
			notes = append(notes, c.Source+" data is "+c.Age.Round(time.Minute).String()+" old")
		}
	}
	return notes
}
