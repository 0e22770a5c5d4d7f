// File: /repositories/trip_repository.go
package repositories

import (
	"eldtrip-api/models"
	"eldtrip-api/services"

	"gorm.io/gorm"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

// CreateStops persists a planned stop sequence for a trip.
func (r *TripRepository) CreateStops(tripID string, plans []services.StopPlan) ([]models.Stop, error) {
	if len(plans) == 0 {
		return nil, nil
	}

	stops := make([]models.Stop, 0, len(plans))
	for _, plan := range plans {
		stops = append(stops, models.Stop{
			TripID:            tripID,
			StopType:          plan.Type,
			Location:          plan.Location,
			Latitude:          plan.Latitude,
			Longitude:         plan.Longitude,
			ArrivalTime:       plan.ArrivalTime,
			DepartureTime:     plan.DepartureTime,
			DurationMinutes:   plan.DurationMinutes,
			SequenceOrder:     plan.SequenceOrder,
			DistanceFromStart: plan.DistanceFromStart,
			Notes:             plan.Notes,
		})
	}

	if err := r.db.Create(&stops).Error; err != nil {
		return nil, err
	}
	return stops, nil
}

// CreateWaypoints persists a trip's route geometry.
func (r *TripRepository) CreateWaypoints(tripID string, plans []services.WaypointPlan) error {
	if len(plans) == 0 {
		return nil
	}

	waypoints := make([]models.RouteWaypoint, 0, len(plans))
	for _, plan := range plans {
		waypoints = append(waypoints, models.RouteWaypoint{
			TripID:            tripID,
			Latitude:          plan.Latitude,
			Longitude:         plan.Longitude,
			SequenceOrder:     plan.SequenceOrder,
			DistanceFromStart: plan.DistanceFromStart,
			TimeFromStart:     plan.TimeFromStart,
		})
	}

	return r.db.Create(&waypoints).Error
}

// CreateDailyLogs persists generated log sheets with their entries and marks
// violation flags from the compliance result.
func (r *TripRepository) CreateDailyLogs(tripID, driverID string, plans []services.DailyLogPlan, compliance services.ComplianceResult) ([]models.DailyLog, error) {
	violationsByDate := make(map[string][]services.Violation)
	for _, v := range compliance.Violations {
		key := v.Date.Format("2006-01-02")
		violationsByDate[key] = append(violationsByDate[key], v)
	}

	logs := make([]models.DailyLog, 0, len(plans))
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, plan := range plans {
			log := models.DailyLog{
				TripID:                tripID,
				DriverID:              driverID,
				LogDate:               plan.Date,
				OffDutyHours:          plan.OffDutyHours,
				SleeperBerthHours:     plan.SleeperBerthHours,
				DrivingHours:          plan.DrivingHours,
				OnDutyNotDrivingHours: plan.OnDutyNotDrivingHours,
				TotalHours:            plan.OffDutyHours + plan.SleeperBerthHours + plan.DrivingHours + plan.OnDutyNotDrivingHours,
				TotalMiles:            float64(plan.EndingOdometer - plan.StartingOdometer),
				StartingOdometer:      plan.StartingOdometer,
				EndingOdometer:        plan.EndingOdometer,
				StartingLocation:      plan.StartingLocation,
				EndingLocation:        plan.EndingLocation,
			}

			if dayViolations, ok := violationsByDate[plan.Date.Format("2006-01-02")]; ok {
				log.HasViolation = true
				for i, v := range dayViolations {
					if i > 0 {
						log.ViolationDescription += "; "
					}
					log.ViolationDescription += v.Message
				}
			}

			if err := tx.Create(&log).Error; err != nil {
				return err
			}

			for _, entryPlan := range plan.Entries {
				entry := models.LogEntry{
					DailyLogID:      log.ID,
					Status:          entryPlan.Status,
					StartTime:       entryPlan.StartTime,
					EndTime:         entryPlan.EndTime,
					DurationMinutes: entryPlan.DurationMinutes,
					Location:        entryPlan.Location,
					Latitude:        entryPlan.Latitude,
					Longitude:       entryPlan.Longitude,
					StartOdometer:   entryPlan.StartOdometer,
					EndOdometer:     entryPlan.EndOdometer,
					SequenceOrder:   entryPlan.SequenceOrder,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
			}

			logs = append(logs, log)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// DeleteGeneratedData removes all planner output for a trip (stops,
// waypoints, daily logs and their entries) ahead of a recalculation.
func (r *TripRepository) DeleteGeneratedData(tripID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var logIDs []uint
		if err := tx.Model(&models.DailyLog{}).Where("trip_id = ?", tripID).Pluck("id", &logIDs).Error; err != nil {
			return err
		}

		if len(logIDs) > 0 {
			if err := tx.Where("daily_log_id IN ?", logIDs).Delete(&models.LogEntry{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.DailyLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.Stop{}).Error; err != nil {
			return err
		}
		return tx.Where("trip_id = ?", tripID).Delete(&models.RouteWaypoint{}).Error
	})
}

// ListStops returns a trip's stops in planned order.
func (r *TripRepository) ListStops(tripID string) ([]models.Stop, error) {
	var stops []models.Stop
	err := r.db.Where("trip_id = ?", tripID).Order("sequence_order ASC").Find(&stops).Error
	if err != nil {
		return nil, err
	}
	return stops, nil
}

// ListWaypoints returns a trip's route geometry in order.
func (r *TripRepository) ListWaypoints(tripID string) ([]models.RouteWaypoint, error) {
	var waypoints []models.RouteWaypoint
	err := r.db.Where("trip_id = ?", tripID).Order("sequence_order ASC").Find(&waypoints).Error
	if err != nil {
		return nil, err
	}
	return waypoints, nil
}

// ListDailyLogs returns a trip's log sheets in date order, entries included.
func (r *TripRepository) ListDailyLogs(tripID string) ([]models.DailyLog, error) {
	var logs []models.DailyLog
	err := r.db.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Where("trip_id = ?", tripID).Order("log_date ASC").Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
