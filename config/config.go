// File: /config/config.go
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Geocoding (OpenStreetMap Nominatim - free, no API key required)
	NominatimURL     string
	GeocodeUserAgent string

	// Average highway speed used for both route duration estimates and
	// odometer back-filling on driving log entries. Tests override it.
	AverageSpeedMph float64

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() *Config {
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))
	avgSpeed, err := strconv.ParseFloat(getEnv("AVERAGE_SPEED_MPH", "60"), 64)
	if err != nil || avgSpeed <= 0 {
		avgSpeed = 60
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/eldtrip?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),

		NominatimURL:     getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: getEnv("GEOCODE_USER_AGENT", "ELD-Trip-Planner/1.0"),

		AverageSpeedMph: avgSpeed,

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", "sandbox.smtp.mailtrap.io"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@eldtrip.com"),
		FromName:     getEnv("FROM_NAME", "ELD Trip Planner"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
