package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/drxlabs/drx-store-golang/internal/ai"
	"github.com/drxlabs/drx-store-golang/internal/auth"
	"github.com/drxlabs/drx-store-golang/internal/database"
	"github.com/drxlabs/drx-store-golang/internal/handlers"
	"github.com/drxlabs/drx-store-golang/internal/ratelimit"
	"github.com/drxlabs/drx-store-golang/internal/routes"
	"github.com/drxlabs/drx-store-golang/internal/tracking"
	"github.com/drxlabs/drx-store-golang/internal/verification"
)

// Anonymous lookups (tracking and code verification) share one ceiling:
// 30 attempts per source address in a trailing 10-minute window.
const (
	lookupWindow  = 10 * time.Minute
	lookupCeiling = 30
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// Missing secrets are fatal configuration errors at startup,
	// never per-request failures.
	dsn := mustEnv("DB_DSN")
	redisAddr := mustEnv("REDIS_ADDR")
	jwtSecret := mustEnv("JWT_SECRET")
	geminiKey := mustEnv("GEMINI_API_KEY")

	auth.Init(jwtSecret)

	// 1. --- Database Connection ---
	db, err := database.OpenDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Redis (rate limiter backend) ---
	redisClient, err := database.OpenRedis(redisAddr, os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	limiter := ratelimit.NewRedisLimiter(redisClient, "lookup", lookupWindow, lookupCeiling)

	// 3. --- Core Services ---
	verifier := verification.NewService(verification.NewMySQLCodeStore(db))
	tracker := tracking.NewService(tracking.NewMySQLOrderStore(db), limiter)

	// 4. --- AI Service Initialization ---
	aiService, err := ai.NewAIService(geminiKey, db)
	if err != nil {
		log.Fatalf("Failed to initialize AI Service: %v", err)
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:        db,
		Verifier:  verifier,
		Tracker:   tracker,
		Limiter:   limiter,
		AIService: aiService,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting DRX Store API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("CRITICAL ERROR: %s environment variable is not set.", key)
	}
	return value
}
