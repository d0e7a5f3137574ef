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
	if len(os.Args) < 3 {
		fmt.Println("Usage: settle <prediction_id> <actual_total> [bet_outcome]")
		os.Exit(1)
	}

	predictionID := os.Args[1]
	actualTotal, err := strconv.ParseFloat(os.Args[2], 64)
	if err != nil {
		log.Fatalf("Invalid actual total %q: %v", os.Args[2], err)
	}

	betOutcome := ""
	if len(os.Args) > 3 {
		betOutcome = os.Args[3]
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

	if err := db.UpdateResult(predictionID, actualTotal, betOutcome); err != nil {
		log.Fatalf("Failed to settle prediction: %v", err)
	}

	fmt.Printf("Settled %s with actual total %.1f\n", predictionID, actualTotal)
}
