package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pokertables/backend/internal/admin"
	"github.com/pokertables/backend/internal/config"
	"github.com/pokertables/backend/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	username := os.Getenv("OPERATOR_USERNAME")
	if username == "" {
		username = "operator"
		log.Printf("Using default operator username: %s", username)
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Printf("WARNING: Using default operator token. Set OPERATOR_TOKEN env var in production!")
	}

	displayName := os.Getenv("OPERATOR_DISPLAY_NAME")
	if displayName == "" {
		displayName = "Operator"
	}

	if err := admin.CreateOperatorAccount(db, username, displayName, token); err != nil {
		log.Fatalf("Failed to create operator account: %v", err)
	}

	log.Printf("Operator account created/updated successfully")
	log.Printf("  Username: %s", username)
	log.Printf("  Display Name: %s", displayName)
}
