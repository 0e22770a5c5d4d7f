// File: /controllers/trip_controller.go
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"eldtrip-api/models"
	"eldtrip-api/repositories"
	"eldtrip-api/services"
	"eldtrip-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TripController struct {
	db      *gorm.DB
	planner *services.RoutePlanner
	eld     *services.ELDService
	repo    *repositories.TripRepository
}

func NewTripController(db *gorm.DB, planner *services.RoutePlanner, eld *services.ELDService, repo *repositories.TripRepository) *TripController {
	return &TripController{
		db:      db,
		planner: planner,
		eld:     eld,
		repo:    repo,
	}
}

type CreateTripRequest struct {
	CurrentLocation string   `json:"current_location" binding:"required"`
	CurrentLat      *float64 `json:"current_lat"`
	CurrentLng      *float64 `json:"current_lng"`

	PickupLocation string   `json:"pickup_location" binding:"required"`
	PickupLat      *float64 `json:"pickup_lat"`
	PickupLng      *float64 `json:"pickup_lng"`

	DropoffLocation string   `json:"dropoff_location" binding:"required"`
	DropoffLat      *float64 `json:"dropoff_lat"`
	DropoffLng      *float64 `json:"dropoff_lng"`

	CurrentCycleUsed float64 `json:"current_cycle_used" binding:"gte=0,lte=70"`
}

type UpdateTripRequest struct {
	Status    *string    `json:"status"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// List returns the caller's trips, newest first. Staff see all trips.
func (tc *TripController) List(c *gin.Context) {
	userID := c.GetString("user_id")
	isStaff := c.GetBool("is_staff")

	var trips []models.Trip
	query := tc.db.Order("created_at DESC")
	if !isStaff {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Find(&trips).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trips"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// Create stores a new trip and runs the route planner against it. Planning
// failures do not fail the request: the trip stays PLANNED without generated
// stops and logs, and a later recalculate can pick it up.
func (tc *TripController) Create(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if fields := validateCoordinates(&req); len(fields) > 0 {
		utils.SendFieldErrors(c, fields...)
		return
	}

	trip := models.Trip{
		ID:               uuid.New().String(),
		UserID:           userID,
		CurrentLocation:  req.CurrentLocation,
		CurrentLat:       req.CurrentLat,
		CurrentLng:       req.CurrentLng,
		PickupLocation:   req.PickupLocation,
		PickupLat:        req.PickupLat,
		PickupLng:        req.PickupLng,
		DropoffLocation:  req.DropoffLocation,
		DropoffLat:       req.DropoffLat,
		DropoffLng:       req.DropoffLng,
		CurrentCycleUsed: req.CurrentCycleUsed,
		Status:           models.TripStatusPlanned,
	}

	if err := tc.db.Create(&trip).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create trip"})
		return
	}

	if err := tc.generate(c.Request.Context(), &trip); err != nil {
		fmt.Printf("Route generation failed for trip %s: %v\n", trip.ID, err)
	}

	tc.db.Preload("Stops").Preload("Waypoints").First(&trip, "id = ?", trip.ID)

	utils.SendCreated(c, "Trip created", trip)
}

// Get returns one trip with its generated data.
func (tc *TripController) Get(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	tc.db.Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(trip, "id = ?", trip.ID)

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

func (tc *TripController) Update(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		switch *req.Status {
		case models.TripStatusPlanned, models.TripStatusInProgress, models.TripStatusCompleted, models.TripStatusCancelled:
			updates["status"] = *req.Status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip status"})
			return
		}
	}
	if req.StartTime != nil {
		updates["start_time"] = req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = req.EndTime
	}

	if len(updates) > 0 {
		if err := tc.db.Model(trip).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update trip"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trip updated", "trip": trip})
}

func (tc *TripController) Delete(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	if err := tc.repo.DeleteGeneratedData(trip.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete trip data"})
		return
	}
	if err := tc.db.Delete(trip).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete trip"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}

// Recalculate discards a trip's generated stops, waypoints and logs and runs
// the planner again. Unlike Create, a planning failure here is surfaced.
func (tc *TripController) Recalculate(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	if err := tc.repo.DeleteGeneratedData(trip.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear previous route data"})
		return
	}

	if err := tc.generate(c.Request.Context(), trip); err != nil {
		fmt.Printf("Route recalculation failed for trip %s: %v\n", trip.ID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Route calculation failed", "message": err.Error()})
		return
	}

	tc.db.Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(trip, "id = ?", trip.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Route recalculated", "trip": trip})
}

// Compliance validates a trip's daily logs against HOS limits.
func (tc *TripController) Compliance(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	logs, err := tc.repo.ListDailyLogs(trip.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch daily logs"})
		return
	}

	result := tc.eld.ValidateCompliance(logs)
	c.JSON(http.StatusOK, result)
}

// AvailableHours reports the driver's remaining cycle and daily hours for
// this trip.
func (tc *TripController) AvailableHours(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	logs, err := tc.repo.ListDailyLogs(trip.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch daily logs"})
		return
	}

	hours := tc.eld.CalculateAvailableHours(trip.CurrentCycleUsed, logs)
	c.JSON(http.StatusOK, hours)
}

func (tc *TripController) GetStops(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	stops, err := tc.repo.ListStops(trip.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stops"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stops": stops, "count": len(stops)})
}

func (tc *TripController) GetWaypoints(c *gin.Context) {
	trip, ok := tc.findOwnedTrip(c)
	if !ok {
		return
	}

	waypoints, err := tc.repo.ListWaypoints(trip.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch waypoints"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"waypoints": waypoints, "count": len(waypoints)})
}

// generate runs the full planning pipeline for a trip: route + regulation
// stops, waypoints, daily log sheets and compliance flags.
func (tc *TripController) generate(ctx context.Context, trip *models.Trip) error {
	plan, err := tc.planner.PlanRoute(ctx, trip)
	if err != nil {
		return fmt.Errorf("plan route: %w", err)
	}

	updates := map[string]interface{}{
		"total_distance":     plan.TotalDistance,
		"estimated_duration": plan.EstimatedDuration,
	}
	if err := tc.db.Model(trip).Updates(updates).Error; err != nil {
		return fmt.Errorf("update trip totals: %w", err)
	}
	trip.TotalDistance = plan.TotalDistance
	trip.EstimatedDuration = plan.EstimatedDuration

	stops, err := tc.repo.CreateStops(trip.ID, plan.Stops)
	if err != nil {
		return fmt.Errorf("create stops: %w", err)
	}
	if err := tc.repo.CreateWaypoints(trip.ID, plan.Waypoints); err != nil {
		return fmt.Errorf("create waypoints: %w", err)
	}

	logPlans := tc.eld.BuildDailyLogs(stops)

	// Compliance is validated against the synthesized totals so violation
	// flags land on the stored log rows.
	pending := make([]models.DailyLog, 0, len(logPlans))
	for _, lp := range logPlans {
		pending = append(pending, models.DailyLog{
			LogDate:               lp.Date,
			OffDutyHours:          lp.OffDutyHours,
			SleeperBerthHours:     lp.SleeperBerthHours,
			DrivingHours:          lp.DrivingHours,
			OnDutyNotDrivingHours: lp.OnDutyNotDrivingHours,
		})
	}
	compliance := tc.eld.ValidateCompliance(pending)

	if _, err := tc.repo.CreateDailyLogs(trip.ID, trip.UserID, logPlans, compliance); err != nil {
		return fmt.Errorf("create daily logs: %w", err)
	}

	return nil
}

// validateCoordinates checks any explicitly supplied lat/lng pairs. Missing
// coordinates are fine - they get geocoded during planning.
func validateCoordinates(req *CreateTripRequest) []utils.FieldError {
	var fields []utils.FieldError

	check := func(name string, lat, lng *float64) {
		if lat != nil && !utils.IsValidLatitude(*lat) {
			fields = append(fields, utils.FieldError{Field: name + "_lat", Message: "Latitude must be between -90 and 90"})
		}
		if lng != nil && !utils.IsValidLongitude(*lng) {
			fields = append(fields, utils.FieldError{Field: name + "_lng", Message: "Longitude must be between -180 and 180"})
		}
	}

	check("current", req.CurrentLat, req.CurrentLng)
	check("pickup", req.PickupLat, req.PickupLng)
	check("dropoff", req.DropoffLat, req.DropoffLng)

	if !utils.IsValidCycleHours(req.CurrentCycleUsed) {
		fields = append(fields, utils.FieldError{Field: "current_cycle_used", Message: "Cycle hours must be between 0 and 70"})
	}

	return fields
}

// findOwnedTrip loads the trip in the URL and enforces owner-or-staff access.
func (tc *TripController) findOwnedTrip(c *gin.Context) (*models.Trip, bool) {
	userID := c.GetString("user_id")
	isStaff := c.GetBool("is_staff")
	tripID := c.Param("id")

	var trip models.Trip
	if err := tc.db.First(&trip, "id = ?", tripID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		return nil, false
	}

	if trip.UserID != userID && !isStaff {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}

	return &trip, true
}
