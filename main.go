// File: /main.go
package main

import (
	"log"
	"time"

	"eldtrip-api/config"
	"eldtrip-api/database"
	"eldtrip-api/jobs"
	"eldtrip-api/middleware"
	"eldtrip-api/routes"
	"eldtrip-api/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Seed database with test data (optional - for development)
	if err := database.SeedData(db); err != nil {
		log.Printf("Warning: Failed to seed database: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.Default()

	// Setup CORS middleware
	router.Use(middleware.CORS())

	// Security and logging middleware
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())

	// Email service (verification + welcome emails)
	emailService := services.NewEmailService(cfg)

	// Setup routes
	routes.SetupRoutes(router, db, cfg, emailService)

	// Background job: auto-complete trips whose dropoff has passed
	statusJob := jobs.NewTripStatusJob(db, 15*time.Minute)
	statusJob.Start()
	defer statusJob.Stop()

	// Start server
	log.Printf("Starting ELD Trip Planner API server on port %s", cfg.Port)
	log.Printf("Health check available at: http://localhost:%s/ping", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
