package main

import (
	"log"
	"os"

	"ai-studyquiz-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds demo documents for SEED_USER_ID so the frontend can be exercised
// without an AI provider. Safe to run repeatedly.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	userId, err := uuid.Parse(os.Getenv("SEED_USER_ID"))
	if err != nil {
		log.Fatal("Error: SEED_USER_ID must be a UUID")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	SeedDocuments(db, userId)

	log.Println("✅ Success: Seeding completed")
}
