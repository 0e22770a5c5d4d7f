// File: /models/user.go
package models

import (
	"time"
)

type User struct {
	ID            string    `json:"id" gorm:"primaryKey;size:191"`
	Name          string    `json:"name" gorm:"not null;size:255"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password      string    `json:"-" gorm:"not null;size:255"`
	EmailVerified bool      `json:"email_verified" gorm:"default:false"`
	IsStaff       bool      `json:"is_staff" gorm:"default:false"` // Staff users see every driver's trips and logs
	CarrierName   string    `json:"carrier_name" gorm:"size:255"`
	LicenseNumber string    `json:"license_number" gorm:"size:50"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Trips     []Trip     `json:"trips,omitempty" gorm:"foreignKey:UserID"`
	DailyLogs []DailyLog `json:"daily_logs,omitempty" gorm:"foreignKey:DriverID"`
}
