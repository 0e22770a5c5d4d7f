// File: /models/trip.go
package models

import (
	"time"
)

// Trip status lifecycle: PLANNED -> IN_PROGRESS -> COMPLETED (or CANCELLED).
const (
	TripStatusPlanned    = "PLANNED"
	TripStatusInProgress = "IN_PROGRESS"
	TripStatusCompleted  = "COMPLETED"
	TripStatusCancelled  = "CANCELLED"
)

// Stop types inserted along a route.
const (
	StopTypeFuel    = "FUEL"     // Fuel stop (30 min, every 1000 miles)
	StopTypeRest    = "REST"     // Rest break (30 min after 8 hours driving)
	StopTypeSleeper = "SLEEPER"  // Sleeper berth
	StopTypeOffDuty = "OFF_DUTY" // Off duty (10 hours)
	StopTypePickup  = "PICKUP"
	StopTypeDropoff = "DROPOFF"
)

type Trip struct {
	ID     string `json:"id" gorm:"primaryKey;size:191"`
	UserID string `json:"user_id" gorm:"not null;size:191;index:idx_trips_user_status"`

	// Location data - lat/lng are optional; missing coordinates are geocoded
	CurrentLocation string   `json:"current_location" gorm:"not null;size:500"`
	CurrentLat      *float64 `json:"current_lat"`
	CurrentLng      *float64 `json:"current_lng"`

	PickupLocation string   `json:"pickup_location" gorm:"not null;size:500"`
	PickupLat      *float64 `json:"pickup_lat"`
	PickupLng      *float64 `json:"pickup_lng"`

	DropoffLocation string   `json:"dropoff_location" gorm:"not null;size:500"`
	DropoffLat      *float64 `json:"dropoff_lat"`
	DropoffLng      *float64 `json:"dropoff_lng"`

	// Hours already used in the driver's rolling 8-day/70-hour cycle
	CurrentCycleUsed float64 `json:"current_cycle_used" gorm:"not null"`

	// Trip calculations (populated by the route planner)
	TotalDistance     float64 `json:"total_distance"`     // miles
	EstimatedDuration float64 `json:"estimated_duration"` // hours

	Status    string     `json:"status" gorm:"size:20;default:'PLANNED';index:idx_trips_user_status"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships - generated data is deleted and rebuilt wholesale on recalculate
	User      User            `json:"-" gorm:"foreignKey:UserID"`
	Stops     []Stop          `json:"stops,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
	Waypoints []RouteWaypoint `json:"waypoints,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
	DailyLogs []DailyLog      `json:"daily_logs,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
}

// AvailableCycleHours returns the remaining hours in the 70-hour/8-day cycle
// before any trip hours are counted.
func (t *Trip) AvailableCycleHours() float64 {
	remaining := 70 - t.CurrentCycleUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

type Stop struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	TripID string `json:"trip_id" gorm:"not null;size:191;index:idx_stops_trip_sequence"`

	StopType  string  `json:"stop_type" gorm:"not null;size:20"`
	Location  string  `json:"location" gorm:"size:500"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	ArrivalTime     time.Time `json:"arrival_time" gorm:"not null"`
	DepartureTime   time.Time `json:"departure_time" gorm:"not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null"`

	// Order of the stop within the route
	SequenceOrder int `json:"sequence_order" gorm:"not null;index:idx_stops_trip_sequence"`

	// Miles from trip start
	DistanceFromStart float64 `json:"distance_from_start"`
	Notes             string  `json:"notes" gorm:"size:500"`

	Trip Trip `json:"-" gorm:"foreignKey:TripID"`
}

// DurationHours converts the stop duration to hours.
func (s *Stop) DurationHours() float64 {
	return float64(s.DurationMinutes) / 60.0
}

// RouteWaypoint is a map-display coordinate annotated with cumulative
// distance/time. Waypoints are for path rendering only, not HOS logic.
type RouteWaypoint struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	TripID string `json:"trip_id" gorm:"not null;size:191;index:idx_waypoints_trip_sequence"`

	Latitude  float64 `json:"latitude" gorm:"not null"`
	Longitude float64 `json:"longitude" gorm:"not null"`

	SequenceOrder     int     `json:"sequence_order" gorm:"not null;index:idx_waypoints_trip_sequence"`
	DistanceFromStart float64 `json:"distance_from_start"` // miles
	TimeFromStart     float64 `json:"time_from_start"`     // hours

	Trip Trip `json:"-" gorm:"foreignKey:TripID"`
}
