package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Linecast/models"
)

// Load initializes configuration from environment variables
func Load() (*models.Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg models.Config

	cfg.StatsAPIKey = os.Getenv("STATS_API_KEY")
	cfg.OddsAPIKey = os.Getenv("ODDS_API_KEY")
	cfg.StatsBaseURL = getEnvWithDefault("STATS_BASE_URL", "https://statsapi.mlb.com/api/v1")
	cfg.OddsBaseURL = getEnvWithDefault("ODDS_BASE_URL", "https://api.the-odds-api.com/v4")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.ModelTimeout = getEnvIntWithDefault("MODEL_TIMEOUT", 2000)
	cfg.DecisionBoundary = getEnvFloatWithDefault("DECISION_BOUNDARY", 8.5)
	cfg.MinTotal = getEnvFloatWithDefault("MIN_TOTAL", 0)
	cfg.MaxTotal = getEnvFloatWithDefault("MAX_TOTAL", 50)
	cfg.ViolationThreshold = getEnvIntWithDefault("VIOLATION_THRESHOLD", 5)
	cfg.HistoryLimit = getEnvIntWithDefault("HISTORY_LIMIT", 100)
	cfg.MaxConcurrent = getEnvIntWithDefault("MAX_CONCURRENT", 4)
	cfg.BatchDelaySeconds = getEnvIntWithDefault("BATCH_DELAY_SECONDS", 2)
	cfg.MemoryCeilingMB = getEnvIntWithDefault("MEMORY_CEILING_MB", 256)
	cfg.StrongConfidence = getEnvFloatWithDefault("STRONG_CONFIDENCE", 0.70)
	cfg.LeanConfidence = getEnvFloatWithDefault("LEAN_CONFIDENCE", 0.60)
	cfg.FloorConfidence = getEnvFloatWithDefault("FLOOR_CONFIDENCE", 0.50)
	cfg.StrongEdge = getEnvFloatWithDefault("STRONG_EDGE", 1.0)
	cfg.LeanEdge = getEnvFloatWithDefault("LEAN_EDGE", 0.5)
	cfg.EnableNotifications = getEnvBoolWithDefault("ENABLE_NOTIFICATIONS", false)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
