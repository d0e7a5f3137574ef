package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Alias1177/Linecast/internal/database"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on actual environment variables")
	}
}

func main() {
	windowDays := 30
	if len(os.Args) > 1 {
		if val, err := strconv.Atoi(os.Args[1]); err == nil {
			windowDays = val
		}
	}

	db, err := database.New(database.ConnectionParams{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	report, err := db.GeneratePerformanceReport(windowDays)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	fmt.Printf("Performance over last %d days\n", report.WindowDays)
	fmt.Printf("  Predictions: %d (settled %d)\n", report.TotalPredictions, report.Settled)
	fmt.Printf("  Hit rate:    %.1f%% (%d correct)\n", report.HitRate*100, report.Correct)
	fmt.Printf("  Avg confidence: %.0f%%\n", report.AverageConfidence*100)
	fmt.Printf("  Avg edge:       %+.2f\n", report.AverageEdge)
	fmt.Println("  By recommendation:")
	for tier, count := range report.ByRecommendation {
		fmt.Printf("    %-8s %d\n", tier, count)
	}
}
