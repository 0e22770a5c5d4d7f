// File: /models/daily_log.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// ELD duty statuses. Every minute of a logged day belongs to exactly one.
const (
	StatusOffDuty = "OFF_DUTY"
	StatusSleeper = "SLEEPER"
	StatusDriving = "DRIVING"
	StatusOnDuty  = "ON_DUTY" // On duty, not driving
)

// DailyLog is one ELD log sheet - one per calendar day per trip per driver.
type DailyLog struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TripID   string `json:"trip_id" gorm:"not null;size:191;uniqueIndex:uk_logs_trip_driver_date;index:idx_logs_trip_date"`
	DriverID string `json:"driver_id" gorm:"not null;size:191;uniqueIndex:uk_logs_trip_driver_date;index:idx_logs_driver_date"`

	LogDate time.Time `json:"log_date" gorm:"type:date;not null;uniqueIndex:uk_logs_trip_driver_date;index:idx_logs_trip_date;index:idx_logs_driver_date"`

	// Hour totals for the day - must sum to 24.00 for a fully covered date
	OffDutyHours           float64 `json:"off_duty_hours" gorm:"default:0"`
	SleeperBerthHours      float64 `json:"sleeper_berth_hours" gorm:"default:0"`
	DrivingHours           float64 `json:"driving_hours" gorm:"default:0"`
	OnDutyNotDrivingHours  float64 `json:"on_duty_not_driving_hours" gorm:"default:0"`

	TotalHours float64 `json:"total_hours" gorm:"default:24"`
	TotalMiles float64 `json:"total_miles" gorm:"default:0"`

	StartingOdometer int `json:"starting_odometer" gorm:"default:0"`
	EndingOdometer   int `json:"ending_odometer" gorm:"default:0"`

	StartingLocation string `json:"starting_location" gorm:"size:500"`
	EndingLocation   string `json:"ending_location" gorm:"size:500"`

	Remarks              string `json:"remarks" gorm:"size:1000"`
	HasViolation         bool   `json:"has_violation" gorm:"default:false"`
	ViolationDescription string `json:"violation_description" gorm:"size:1000"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Trip    Trip       `json:"-" gorm:"foreignKey:TripID"`
	Driver  User       `json:"-" gorm:"foreignKey:DriverID"`
	Entries []LogEntry `json:"entries,omitempty" gorm:"foreignKey:DailyLogID;constraint:OnDelete:CASCADE"`
}

// RecalculateTotals recomputes the four duty-status hour totals from the
// log's entries and persists the result. This is the only mutation a daily
// log supports outside of full regeneration.
func (dl *DailyLog) RecalculateTotals(db *gorm.DB) error {
	var entries []LogEntry
	if err := db.Where("daily_log_id = ?", dl.ID).Order("sequence_order ASC").Find(&entries).Error; err != nil {
		return err
	}

	var offDuty, sleeper, driving, onDuty float64
	for _, entry := range entries {
		hours := entry.DurationHours()
		switch entry.Status {
		case StatusOffDuty:
			offDuty += hours
		case StatusSleeper:
			sleeper += hours
		case StatusDriving:
			driving += hours
		case StatusOnDuty:
			onDuty += hours
		}
	}

	dl.OffDutyHours = roundHours(offDuty)
	dl.SleeperBerthHours = roundHours(sleeper)
	dl.DrivingHours = roundHours(driving)
	dl.OnDutyNotDrivingHours = roundHours(onDuty)
	dl.TotalHours = roundHours(offDuty + sleeper + driving + onDuty)
	dl.TotalMiles = float64(dl.EndingOdometer - dl.StartingOdometer)

	return db.Model(dl).Updates(map[string]interface{}{
		"off_duty_hours":            dl.OffDutyHours,
		"sleeper_berth_hours":       dl.SleeperBerthHours,
		"driving_hours":             dl.DrivingHours,
		"on_duty_not_driving_hours": dl.OnDutyNotDrivingHours,
		"total_hours":               dl.TotalHours,
		"total_miles":               dl.TotalMiles,
		"updated_at":                time.Now(),
	}).Error
}

func roundHours(h float64) float64 {
	return float64(int(h*100+0.5)) / 100
}

// LogEntry is a single contiguous duty-status interval within a daily log.
// Entries for one log are contiguous, non-overlapping and together span the
// full 24 hours of the log's date.
type LogEntry struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	DailyLogID uint `json:"daily_log_id" gorm:"not null;index:idx_entries_log_start"`

	Status          string    `json:"status" gorm:"not null;size:20"`
	StartTime       time.Time `json:"start_time" gorm:"not null;index:idx_entries_log_start"`
	EndTime         time.Time `json:"end_time" gorm:"not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null"`

	Location  string   `json:"location" gorm:"size:500"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Odometer readings - present only for driving-adjacent entries
	StartOdometer *int `json:"start_odometer"`
	EndOdometer   *int `json:"end_odometer"`

	Notes         string `json:"notes" gorm:"size:500"`
	SequenceOrder int    `json:"sequence_order" gorm:"not null"`

	DailyLog DailyLog `json:"-" gorm:"foreignKey:DailyLogID"`
}

// DurationHours converts the entry duration to hours.
func (e *LogEntry) DurationHours() float64 {
	return float64(e.DurationMinutes) / 60.0
}

// MilesDriven returns the odometer delta for this entry, or 0 when the
// entry carries no odometer readings.
func (e *LogEntry) MilesDriven() int {
	if e.StartOdometer != nil && e.EndOdometer != nil {
		return *e.EndOdometer - *e.StartOdometer
	}
	return 0
}
