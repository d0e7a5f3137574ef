package freshness

import (
	"testing"
	"time"

	"github.com/Alias1177/Linecast/models"
)

var now = time.Date(2026, 7, 14, 18, 0, 0, 0, time.UTC)

func testGate() *Gate {
	return NewGate().WithClock(func() time.Time { return now })
}

func TestCheckSourceClassification(t *testing.T) {
	g := testGate()

	tests := []struct {
		name         string
		dataType     string
		age          time.Duration
		wantStale    bool
		wantSeverity string
		wantImpact   string
	}{
		{"fresh odds", "odds", 5 * time.Minute, false, models.SeverityInfo, models.ImpactHigh},
		{"stale odds", "odds", 20 * time.Minute, true, models.SeverityCritical, models.ImpactHigh},
		{"fresh weather", "weather", 30 * time.Minute, false, models.SeverityInfo, models.ImpactHigh},
		{"stale weather 90min vs 60min max", "weather", 90 * time.Minute, true, models.SeverityCritical, models.ImpactHigh},
		{"stale lineups", "lineups", 4 * time.Hour, true, models.SeverityWarning, models.ImpactMedium},
		{"stale reference", "reference", 30 * time.Hour, true, models.SeverityInfo, models.ImpactLow},
		{"unknown source falls back to reference rule", "mystery", 30 * time.Hour, true, models.SeverityInfo, models.ImpactLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := g.CheckSource(tt.dataType, tt.dataType, now.Add(-tt.age))
			if check.IsStale != tt.wantStale {
				t.Errorf("IsStale = %v, want %v", check.IsStale, tt.wantStale)
			}
			if check.Severity != tt.wantSeverity {
				t.Errorf("Severity = %v, want %v", check.Severity, tt.wantSeverity)
			}
			if check.Impact != tt.wantImpact {
				t.Errorf("Impact = %v, want %v", check.Impact, tt.wantImpact)
			}
			if check.Age != tt.age {
				t.Errorf("Age = %v, want %v", check.Age, tt.age)
			}
		})
	}
}

func TestStaleWheneverAgeExceedsMaxAge(t *testing.T) {
	g := testGate()
	for _, dataType := range []string{"odds", "weather", "lineups", "pitching", "offense", "reference"} {
		rule := defaultRules[dataType]
		check := g.CheckSource(dataType, dataType, now.Add(-(rule.maxAge + time.Second)))
		if !check.IsStale {
			t.Errorf("%s: age just past max age must be stale", dataType)
		}
		check = g.CheckSource(dataType, dataType, now.Add(-(rule.maxAge - time.Second)))
		if check.IsStale {
			t.Errorf("%s: age just under max age must not be stale", dataType)
		}
	}
}

func TestShouldHaltPipeline(t *testing.T) {
	g := testGate()

	tests := []struct {
		name       string
		timestamps map[string]time.Time
		wantHalt   bool
	}{
		{
			"all fresh",
			map[string]time.Time{"odds": now.Add(-5 * time.Minute), "weather": now.Add(-10 * time.Minute)},
			false,
		},
		{
			"stale high impact halts",
			map[string]time.Time{"odds": now.Add(-30 * time.Minute)},
			true,
		},
		{
			"stale weather halts",
			map[string]time.Time{"weather": now.Add(-90 * time.Minute)},
			true,
		},
		{
			"stale medium impact does not halt",
			map[string]time.Time{"lineups": now.Add(-5 * time.Hour)},
			false,
		},
		{
			"stale low impact does not halt",
			map[string]time.Time{"reference": now.Add(-48 * time.Hour)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := g.CheckAll(tt.timestamps)
			if got := g.ShouldHaltPipeline(report); got != tt.wantHalt {
				t.Errorf("ShouldHaltPipeline = %v, want %v", got, tt.wantHalt)
			}
		})
	}
}

func TestConfidencePenalty(t *testing.T) {
	g := testGate()

	tests := []struct {
		name       string
		timestamps map[string]time.Time
		want       float64
	}{
		{
			"no stale sources",
			map[string]time.Time{"odds": now.Add(-time.Minute)},
			0,
		},
		{
			"one medium",
			map[string]time.Time{"lineups": now.Add(-5 * time.Hour)},
			8,
		},
		{
			"one low",
			map[string]time.Time{"reference": now.Add(-48 * time.Hour)},
			3,
		},
		{
			"high plus medium plus low",
			map[string]time.Time{
				"weather":   now.Add(-2 * time.Hour),
				"lineups":   now.Add(-5 * time.Hour),
				"reference": now.Add(-48 * time.Hour),
			},
			26,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := g.CheckAll(tt.timestamps)
			if got := g.ConfidencePenalty(report); got != tt.want {
				t.Errorf("ConfidencePenalty = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfidencePenaltyIsCapped(t *testing.T) {
	g := testGate()
	// Five high-impact checks would sum to 75 points uncapped
	report := &models.FreshnessReport{GeneratedAt: now}
	for i := 0; i < 5; i++ {
		report.Checks = append(report.Checks, models.FreshnessCheck{
			IsStale: true,
			Impact:  models.ImpactHigh,
		})
	}
	if got := g.ConfidencePenalty(report); got != penaltyCeiling {
		t.Errorf("ConfidencePenalty = %v, want cap %v", got, penaltyCeiling)
	}
}

func TestStaleWeatherScenario(t *testing.T) {
	// Weather 90 minutes old against a 60-minute max with high impact
	g := testGate()
	check := g.CheckSource("weather", "weather", now.Add(-90*time.Minute))

	if !check.IsStale {
		t.Error("expected IsStale = true")
	}
	if check.Severity != models.SeverityCritical {
		t.Errorf("Severity = %v, want critical", check.Severity)
	}

	report := &models.FreshnessReport{Checks: []models.FreshnessCheck{check}, GeneratedAt: now}
	if !g.ShouldHaltPipeline(report) {
		t.Error("expected ShouldHaltPipeline = true")
	}
	if g.HaltReason(report) == nil {
		t.Error("expected a halt reason")
	}
}
