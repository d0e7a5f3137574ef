package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Linecast/internal/api/oddsapi"
	"github.com/Alias1177/Linecast/internal/api/statsapi"
	"github.com/Alias1177/Linecast/internal/config"
	"github.com/Alias1177/Linecast/internal/database"
	"github.com/Alias1177/Linecast/internal/ensemble"
	"github.com/Alias1177/Linecast/internal/freshness"
	"github.com/Alias1177/Linecast/internal/metrics"
	"github.com/Alias1177/Linecast/internal/notify"
	"github.com/Alias1177/Linecast/internal/orchestrator"
	"github.com/Alias1177/Linecast/internal/registry"
	"github.com/Alias1177/Linecast/internal/scoring"
	"github.com/Alias1177/Linecast/models"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if len(os.Args) < 2 {
		fmt.Println("Usage: linecast <game_id> [game_id...]")
		os.Exit(1)
	}
	gameIDs := os.Args[1:]

	// Logging sink is optional: without DB env vars predictions are not
	// persisted but the pipeline still runs.
	var store models.PredictionStore
	if os.Getenv("DB_HOST") != "" {
		db, err := database.New(database.ConnectionParams{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			SSLMode:  os.Getenv("DB_SSLMODE"),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		store = db
	} else {
		log.Warn().Msg("DB_HOST not set, predictions will not be persisted")
	}

	var notifier models.Notifier
	if cfg.EnableNotifications {
		chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)
		if err != nil {
			log.Fatal().Msg("TELEGRAM_CHAT_ID must be set when notifications are enabled")
		}
		notifier, err = notify.NewTelegramNotifier(os.Getenv("TELEGRAM_BOT_TOKEN"), chatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Telegram notifier")
		}
	}

	reg := registry.New(cfg)
	for _, model := range []models.ScoringModel{
		scoring.NewPitchingModel(cfg.DecisionBoundary),
		scoring.NewOffenseModel(cfg.DecisionBoundary),
		scoring.NewEnvironmentModel(cfg.DecisionBoundary),
		scoring.NewMarketModel(cfg.DecisionBoundary),
	} {
		if err := reg.Register(model); err != nil {
			log.Fatal().Err(err).Str("model", model.Name()).Msg("Failed to register model")
		}
	}

	orch := orchestrator.New(
		cfg,
		reg,
		statsapi.NewClient(cfg),
		oddsapi.NewClient(cfg),
		freshness.NewGate(),
		ensemble.New(cfg),
		store,
		notifier,
		metrics.New(prometheus.DefaultRegisterer),
	)

	items, err := orch.RunBatch(context.Background(), gameIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("Batch failed")
	}

	for _, item := range items {
		if item.Err != nil {
			fmt.Printf("%s: FAILED - %v\n", item.GameID, item.Err)
			continue
		}
		r := item.Outcome.Result
		fmt.Printf("%s: %s %.1f (line %.1f, edge %+.1f) confidence %.0f%% -> %s\n",
			item.GameID, r.Direction, r.CalculatedTotal, r.MarketLine, r.Edge,
			r.Confidence*100, r.Recommendation)
		for _, note := range r.FreshnessNotes {
			fmt.Printf("  note: %s\n", note)
		}
		for _, e := range item.Outcome.NonFatalErrors {
			fmt.Printf("  warning: %s\n", e)
		}
	}
}
