package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Alias1177/Linecast/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			game_date TIMESTAMP NOT NULL,
			direction TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			calculated_total DOUBLE PRECISION NOT NULL,
			market_line DOUBLE PRECISION NOT NULL,
			recommendation TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			actual_total DOUBLE PRECISION,
			bet_outcome TEXT,
			was_correct BOOLEAN
		)
	`)
	if err != nil {
		return err
	}

	// Change history is append-only: every analyzed proposal is archived
	// whether or not it was implemented.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS change_log (
			id TEXT NOT NULL,
			component TEXT NOT NULL,
			parameter TEXT NOT NULL,
			old_value DOUBLE PRECISION NOT NULL,
			new_value DOUBLE PRECISION NOT NULL,
			magnitude DOUBLE PRECISION NOT NULL,
			rationale TEXT NOT NULL,
			overall_risk TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			analysis JSONB,
			implemented BOOLEAN NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// LogPrediction stores a prediction record and returns its id
func (db *DB) LogPrediction(record *models.PredictionRecord) (string, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO predictions (
			id, game_id, home_team, away_team, game_date,
			direction, confidence, calculated_total, market_line,
			recommendation, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		record.ID, record.GameID, record.HomeTeam, record.AwayTeam, record.GameDate,
		record.Direction, record.Confidence, record.CalculatedTotal, record.MarketLine,
		record.Recommendation, record.CreatedAt)

	if err != nil {
		return "", fmt.Errorf("inserting prediction: %w", err)
	}
	return record.ID, nil
}

// UpdateResult attaches the observed final total to a logged prediction and
// settles whether the call was correct.
func (db *DB) UpdateResult(id string, actualTotal float64, betOutcome string) error {
	var direction string
	var marketLine float64
	err := db.QueryRow(`
		SELECT direction, market_line FROM predictions WHERE id = $1
	`, id).Scan(&direction, &marketLine)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("prediction %s not found", id)
		}
		return err
	}

	wasCorrect := (direction == models.DirectionOver && actualTotal > marketLine) ||
		(direction == models.DirectionUnder && actualTotal < marketLine)

	if betOutcome == "" {
		switch {
		case actualTotal == marketLine:
			betOutcome = "PUSH"
		case wasCorrect:
			betOutcome = "WIN"
		default:
			betOutcome = "LOSS"
		}
	}

	_, err = db.Exec(`
		UPDATE predictions
		SET actual_total = $2, bet_outcome = $3, was_correct = $4
		WHERE id = $1
	`, id, actualTotal, betOutcome, wasCorrect)
	if err != nil {
		return fmt.Errorf("updating result: %w", err)
	}
	return nil
}

// GeneratePerformanceReport summarizes predictions over the trailing window
func (db *DB) GeneratePerformanceReport(windowDays int) (*models.PerformanceReport, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	report := &models.PerformanceReport{
		WindowDays:       windowDays,
		ByRecommendation: make(map[string]int),
		GeneratedAt:      time.Now(),
	}

	rows, err := db.Query(`
		SELECT confidence, calculated_total, market_line, recommendation, was_correct
		FROM predictions
		WHERE created_at >= $1
	`, since)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	var confSum, edgeSum float64
	for rows.Next() {
		var confidence, total, line float64
		var recommendation string
		var wasCorrect sql.NullBool

		if err := rows.Scan(&confidence, &total, &line, &recommendation, &wasCorrect); err != nil {
			return nil, err
		}

		report.TotalPredictions++
		confSum += confidence
		edgeSum += total - line
		report.ByRecommendation[recommendation]++

		if wasCorrect.Valid {
			report.Settled++
			if wasCorrect.Bool {
				report.Correct++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if report.TotalPredictions > 0 {
		report.AverageConfidence = confSum / float64(report.TotalPredictions)
		report.AverageEdge = edgeSum / float64(report.TotalPredictions)
	}
	if report.Settled > 0 {
		report.HitRate = float64(report.Correct) / float64(report.Settled)
	}

	return report, nil
}

// RecordChange appends a proposal to the change log. The log is append-only;
// an implemented change lands as a second row with the flag set.
func (db *DB) RecordChange(proposal *models.ChangeProposal, implemented bool) error {
	analysis, err := json.Marshal(struct {
		Impacts      []models.DimensionImpact `json:"impacts"`
		Correlations []models.CorrelationRisk `json:"correlations,omitempty"`
	}{proposal.Impacts, proposal.Correlations})
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO change_log (
			id, component, parameter, old_value, new_value, magnitude,
			rationale, overall_risk, recommendation, analysis, implemented, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		proposal.ID, proposal.Component, proposal.Parameter, proposal.OldValue,
		proposal.NewValue, proposal.Magnitude, proposal.Rationale, proposal.OverallRisk,
		proposal.Recommendation, analysis, implemented, time.Now())

	if err != nil {
		return fmt.Errorf("inserting change log entry: %w", err)
	}
	return nil
}
