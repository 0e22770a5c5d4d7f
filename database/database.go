// File: /database/database.go
package database

import (
	"fmt"

	"eldtrip-api/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Info),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Auto migrate all models
	err := db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.Stop{},
		&models.RouteWaypoint{},
		&models.DailyLog{},
		&models.LogEntry{},
	)

	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Add custom indexes for better performance
	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	// Add triggers or constraints if needed
	if err := addDatabaseConstraints(db); err != nil {
		return fmt.Errorf("failed to add database constraints: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Composite indexes for the hot list queries

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_trips_user_created ON trips(user_id, created_at DESC)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for trips: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_stops_trip_arrival ON stops(trip_id, arrival_time)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for stops: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_daily_logs_driver_date ON daily_logs(driver_id, log_date DESC)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for daily_logs: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_log_entries_log_sequence ON log_entries(daily_log_id, sequence_order)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for log_entries: %v\n", err)
	}

	return nil
}

func addDatabaseConstraints(db *gorm.DB) error {
	// One log sheet per trip/driver/date
	if err := db.Exec("ALTER TABLE daily_logs ADD CONSTRAINT uk_daily_logs_trip_driver_date UNIQUE (trip_id, driver_id, log_date)").Error; err != nil {
		// Ignore error if constraint already exists
		fmt.Printf("Warning: Could not add unique constraint for daily_logs: %v\n", err)
	}

	// Cycle hours are bounded by the 70-hour/8-day rule
	if err := db.Exec("ALTER TABLE trips ADD CONSTRAINT ck_trips_cycle_used CHECK (current_cycle_used >= 0 AND current_cycle_used <= 70)").Error; err != nil {
		fmt.Printf("Warning: Could not add check constraint for trips: %v\n", err)
	}

	return nil
}

// SeedData can be used to populate the database with initial data for development/testing
func SeedData(db *gorm.DB) error {
	// Check if we already have users
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)

	if userCount > 0 {
		fmt.Println("Database already has data, skipping seed")
		return nil
	}

	// Create sample drivers for testing
	testUsers := []models.User{
		{
			ID:            "driver-1",
			Name:          "John Doe",
			Email:         "john@example.com",
			Password:      "$2a$10$dummy", // This should be properly hashed in real scenarios
			EmailVerified: true,
			CarrierName:   "Acme Freight",
			LicenseNumber: "CDL-123456",
		},
		{
			ID:            "driver-2",
			Name:          "Jane Smith",
			Email:         "jane@example.com",
			Password:      "$2a$10$dummy",
			EmailVerified: true,
			CarrierName:   "Smith Hauling",
			LicenseNumber: "CDL-654321",
		},
	}

	for _, user := range testUsers {
		if err := db.Create(&user).Error; err != nil {
			fmt.Printf("Warning: Could not create test user %s: %v\n", user.Email, err)
		}
	}

	fmt.Println("Database seeded with test drivers")
	return nil
}
