// File: /services/eld_service_test.go
package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eldtrip-api/models"
	"eldtrip-api/services"
)

func dayAt(hour, minute int) time.Time {
	return time.Date(2025, 6, 1, hour, minute, 0, 0, time.UTC)
}

// singleDayStops is a pickup at 06:00, four hours of driving, and a dropoff,
// all within one calendar date.
func singleDayStops() []models.Stop {
	return []models.Stop{
		{
			StopType:          models.StopTypePickup,
			Location:          "Warehouse A",
			ArrivalTime:       dayAt(6, 0),
			DepartureTime:     dayAt(7, 0),
			DurationMinutes:   60,
			SequenceOrder:     0,
			DistanceFromStart: 0,
		},
		{
			StopType:          models.StopTypeDropoff,
			Location:          "Warehouse B",
			ArrivalTime:       dayAt(11, 0),
			DepartureTime:     dayAt(12, 0),
			DurationMinutes:   60,
			SequenceOrder:     1,
			DistanceFromStart: 240,
		},
	}
}

func TestBuildDailyLogs_SingleDayTotals(t *testing.T) {
	eld := services.NewELDService(60)

	logs := eld.BuildDailyLogs(singleDayStops())
	require.Len(t, logs, 1)

	log := logs[0]
	assert.InDelta(t, 18, log.OffDutyHours, 0.01)
	assert.InDelta(t, 4, log.DrivingHours, 0.01)
	assert.InDelta(t, 2, log.OnDutyNotDrivingHours, 0.01)
	assert.InDelta(t, 0, log.SleeperBerthHours, 0.01)

	total := log.OffDutyHours + log.SleeperBerthHours + log.DrivingHours + log.OnDutyNotDrivingHours
	assert.InDelta(t, 24, total, 0.01)
}

// Every minute of the date is covered by exactly one entry: leading off-duty
// from midnight, the stops and driving gap, then trailing off-duty to the
// next midnight.
func TestBuildDailyLogs_EntriesPartitionTheDay(t *testing.T) {
	eld := services.NewELDService(60)

	logs := eld.BuildDailyLogs(singleDayStops())
	require.Len(t, logs, 1)

	entries := logs[0].Entries
	require.Len(t, entries, 5)

	statuses := make([]string, len(entries))
	for i, e := range entries {
		statuses[i] = e.Status
	}
	assert.Equal(t, []string{
		models.StatusOffDuty,
		models.StatusOnDuty,
		models.StatusDriving,
		models.StatusOnDuty,
		models.StatusOffDuty,
	}, statuses)

	midnight := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, entries[0].StartTime.Equal(midnight))
	assert.True(t, entries[len(entries)-1].EndTime.Equal(midnight.AddDate(0, 0, 1)))

	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].StartTime.Equal(entries[i-1].EndTime),
			"entry %d starts when entry %d ends", i, i-1)
	}

	for i, e := range entries {
		assert.Equal(t, i, e.SequenceOrder)
	}
}

// Driving entries back-fill the odometer from the average speed; padding
// entries carry no odometer or coordinates.
func TestBuildDailyLogs_DrivingOdometer(t *testing.T) {
	eld := services.NewELDService(60)

	logs := eld.BuildDailyLogs(singleDayStops())
	require.Len(t, logs, 1)

	entries := logs[0].Entries
	driving := entries[2]
	require.Equal(t, models.StatusDriving, driving.Status)
	require.NotNil(t, driving.StartOdometer)
	require.NotNil(t, driving.EndOdometer)
	assert.Equal(t, 0, *driving.StartOdometer)
	assert.Equal(t, 240, *driving.EndOdometer)

	leading := entries[0]
	assert.Nil(t, leading.StartOdometer)
	assert.Nil(t, leading.Latitude)

	assert.Equal(t, 240, logs[0].EndingOdometer)
}

// A rest spanning midnight is clipped at the boundary: each date gets its own
// share and both dates still total 24 hours.
func TestBuildDailyLogs_MidnightSpanningStop(t *testing.T) {
	eld := services.NewELDService(60)

	stops := []models.Stop{
		{
			StopType:          models.StopTypePickup,
			Location:          "Warehouse A",
			ArrivalTime:       dayAt(18, 0),
			DepartureTime:     dayAt(19, 0),
			DurationMinutes:   60,
			SequenceOrder:     0,
			DistanceFromStart: 0,
		},
		{
			StopType:          models.StopTypeOffDuty,
			Location:          "Rest Location",
			ArrivalTime:       dayAt(23, 0),
			DepartureTime:     dayAt(23, 0).Add(10 * time.Hour), // 09:00 next day
			DurationMinutes:   600,
			SequenceOrder:     1,
			DistanceFromStart: 240,
		},
		{
			StopType:          models.StopTypeDropoff,
			Location:          "Warehouse B",
			ArrivalTime:       dayAt(10, 0).AddDate(0, 0, 1),
			DepartureTime:     dayAt(11, 0).AddDate(0, 0, 1),
			DurationMinutes:   60,
			SequenceOrder:     2,
			DistanceFromStart: 300,
		},
	}

	logs := eld.BuildDailyLogs(stops)
	require.Len(t, logs, 2)

	for i, log := range logs {
		total := log.OffDutyHours + log.SleeperBerthHours + log.DrivingHours + log.OnDutyNotDrivingHours
		assert.InDelta(t, 24, total, 0.01, "day %d", i)
	}

	// Day 1: off-duty until 18:00, pickup, driving to 23:00, then one hour
	// of the rest before midnight.
	assert.InDelta(t, 19, logs[0].OffDutyHours, 0.01)
	assert.InDelta(t, 4, logs[0].DrivingHours, 0.01)

	// Day 2 opens with the tail of the rest, not a synthetic gap entry.
	first := logs[1].Entries[0]
	assert.Equal(t, models.StatusOffDuty, first.Status)
	assert.Equal(t, "Rest Location", first.Location)
	assert.InDelta(t, 9, float64(first.DurationMinutes)/60, 0.01)
}

// Stop boundaries produced by the planner carry sub-minute components from
// fractional-hour driving durations. The totals must still cover the full
// day - neither minute truncation nor per-bucket rounding may leak time.
func TestBuildDailyLogs_SubMinuteBoundaries(t *testing.T) {
	eld := services.NewELDService(60)

	driveHours := 1.342 // 1h20m31.2s
	dropoffArrival := dayAt(7, 0).Add(time.Duration(driveHours * float64(time.Hour)))

	stops := []models.Stop{
		{
			StopType:          models.StopTypePickup,
			Location:          "Warehouse A",
			ArrivalTime:       dayAt(6, 0),
			DepartureTime:     dayAt(7, 0),
			DurationMinutes:   60,
			SequenceOrder:     0,
			DistanceFromStart: 0,
		},
		{
			StopType:          models.StopTypeDropoff,
			Location:          "Warehouse B",
			ArrivalTime:       dropoffArrival,
			DepartureTime:     dropoffArrival.Add(time.Hour),
			DurationMinutes:   60,
			SequenceOrder:     1,
			DistanceFromStart: 80.53,
		},
	}

	logs := eld.BuildDailyLogs(stops)
	require.Len(t, logs, 1)

	log := logs[0]
	assert.InDelta(t, 1.34, log.DrivingHours, 0.01)
	assert.InDelta(t, 2, log.OnDutyNotDrivingHours, 0.01)

	total := log.OffDutyHours + log.SleeperBerthHours + log.DrivingHours + log.OnDutyNotDrivingHours
	assert.InDelta(t, 24, total, 0.01)
}

// The full pipeline: planner output fed straight into the log builder must
// produce a 24.00-hour partition for every date the trip touches.
func TestBuildDailyLogs_PlannerTimeline(t *testing.T) {
	planner := newPlanner()
	eld := services.NewELDService(60)

	trips := map[string]*models.Trip{
		"regional": {
			CurrentLocation: "New York, NY",
			CurrentLat:      ptr(newYork.Lat),
			CurrentLng:      ptr(newYork.Lng),
			PickupLocation:  "Philadelphia, PA",
			PickupLat:       ptr(philadelphia.Lat),
			PickupLng:       ptr(philadelphia.Lng),
			DropoffLocation: "Washington, DC",
			DropoffLat:      ptr(washington.Lat),
			DropoffLng:      ptr(washington.Lng),
		},
		"long haul": {
			CurrentLocation: "Los Angeles, CA",
			CurrentLat:      ptr(losAngeles.Lat),
			CurrentLng:      ptr(losAngeles.Lng),
			PickupLocation:  "Los Angeles, CA",
			PickupLat:       ptr(losAngeles.Lat),
			PickupLng:       ptr(losAngeles.Lng),
			DropoffLocation: "Chicago, IL",
			DropoffLat:      ptr(chicago.Lat),
			DropoffLng:      ptr(chicago.Lng),
		},
	}

	for name, trip := range trips {
		t.Run(name, func(t *testing.T) {
			plan, err := planner.PlanRoute(context.Background(), trip)
			require.NoError(t, err)

			logs := eld.BuildDailyLogs(stopsFromPlan(plan.Stops))
			require.NotEmpty(t, logs)

			for i, log := range logs {
				total := log.OffDutyHours + log.SleeperBerthHours + log.DrivingHours + log.OnDutyNotDrivingHours
				assert.InDelta(t, 24, total, 0.01, "day %d totals sum %.2f", i, total)
			}
		})
	}
}

func stopsFromPlan(plans []services.StopPlan) []models.Stop {
	stops := make([]models.Stop, 0, len(plans))
	for _, p := range plans {
		stops = append(stops, models.Stop{
			StopType:          p.Type,
			Location:          p.Location,
			Latitude:          p.Latitude,
			Longitude:         p.Longitude,
			ArrivalTime:       p.ArrivalTime,
			DepartureTime:     p.DepartureTime,
			DurationMinutes:   p.DurationMinutes,
			SequenceOrder:     p.SequenceOrder,
			DistanceFromStart: p.DistanceFromStart,
		})
	}
	return stops
}

// A driver still en route at midnight toward a stop that arrives exactly at
// the day boundary gets that evening logged as driving, not off-duty.
func TestBuildDailyLogs_MidnightExactArrival(t *testing.T) {
	eld := services.NewELDService(60)

	midnight := dayAt(0, 0).AddDate(0, 0, 1)
	stops := []models.Stop{
		{
			StopType:          models.StopTypePickup,
			Location:          "Warehouse A",
			ArrivalTime:       dayAt(18, 0),
			DepartureTime:     dayAt(19, 0),
			DurationMinutes:   60,
			SequenceOrder:     0,
			DistanceFromStart: 0,
		},
		{
			StopType:          models.StopTypeDropoff,
			Location:          "Warehouse B",
			ArrivalTime:       midnight,
			DepartureTime:     midnight.Add(time.Hour),
			DurationMinutes:   60,
			SequenceOrder:     1,
			DistanceFromStart: 300,
		},
	}

	logs := eld.BuildDailyLogs(stops)
	require.Len(t, logs, 2)

	day1 := logs[0]
	assert.InDelta(t, 5, day1.DrivingHours, 0.01)
	assert.InDelta(t, 18, day1.OffDutyHours, 0.01)

	last := day1.Entries[len(day1.Entries)-1]
	assert.Equal(t, models.StatusDriving, last.Status)
	assert.True(t, last.EndTime.Equal(midnight))

	for i, log := range logs {
		total := log.OffDutyHours + log.SleeperBerthHours + log.DrivingHours + log.OnDutyNotDrivingHours
		assert.InDelta(t, 24, total, 0.01, "day %d", i)
	}
}

func TestBuildDailyLogs_Deterministic(t *testing.T) {
	eld := services.NewELDService(60)

	first := eld.BuildDailyLogs(singleDayStops())
	second := eld.BuildDailyLogs(singleDayStops())
	require.Equal(t, first, second)
}

func TestBuildDailyLogs_NoStops(t *testing.T) {
	eld := services.NewELDService(60)
	assert.Nil(t, eld.BuildDailyLogs(nil))
}

func TestStatusForStopType(t *testing.T) {
	tests := []struct {
		stopType string
		want     string
	}{
		{models.StopTypeFuel, models.StatusOnDuty},
		{models.StopTypeRest, models.StatusOffDuty},
		{models.StopTypeSleeper, models.StatusSleeper},
		{models.StopTypeOffDuty, models.StatusOffDuty},
		{models.StopTypePickup, models.StatusOnDuty},
		{models.StopTypeDropoff, models.StatusOnDuty},
		{"SOMETHING_ELSE", models.StatusOnDuty},
	}

	for _, tt := range tests {
		t.Run(tt.stopType, func(t *testing.T) {
			assert.Equal(t, tt.want, services.StatusForStopType(tt.stopType))
		})
	}
}

func TestValidateCompliance_DrivingLimitExceeded(t *testing.T) {
	eld := services.NewELDService(60)

	logs := []models.DailyLog{{
		LogDate:      dayAt(0, 0),
		DrivingHours: 12,
		OffDutyHours: 12,
	}}

	result := eld.ValidateCompliance(logs)
	assert.False(t, result.Compliant)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, services.ViolationDrivingLimit, result.Violations[0].Type)
}

func TestValidateCompliance_CompliantDay(t *testing.T) {
	eld := services.NewELDService(60)

	logs := []models.DailyLog{{
		LogDate:               dayAt(0, 0),
		DrivingHours:          8,
		OnDutyNotDrivingHours: 2,
		OffDutyHours:          10,
		SleeperBerthHours:     4,
	}}

	result := eld.ValidateCompliance(logs)
	assert.True(t, result.Compliant)
	assert.Empty(t, result.Violations)
}

// One day can breach several rules at once; each gets its own violation.
func TestValidateCompliance_MultipleViolations(t *testing.T) {
	eld := services.NewELDService(60)

	logs := []models.DailyLog{{
		LogDate:               dayAt(0, 0),
		DrivingHours:          12,
		OnDutyNotDrivingHours: 3,
		OffDutyHours:          2,
	}}

	result := eld.ValidateCompliance(logs)
	assert.False(t, result.Compliant)
	require.Len(t, result.Violations, 3)

	types := map[string]bool{}
	for _, v := range result.Violations {
		types[v.Type] = true
	}
	assert.True(t, types[services.ViolationDrivingLimit])
	assert.True(t, types[services.ViolationOnDutyLimit])
	assert.True(t, types[services.ViolationRest])
}

func TestCalculateAvailableHours(t *testing.T) {
	eld := services.NewELDService(60)

	logs := []models.DailyLog{
		{DrivingHours: 10, OnDutyNotDrivingHours: 2},
		{DrivingHours: 5, OnDutyNotDrivingHours: 1},
	}

	hours := eld.CalculateAvailableHours(20, logs)
	assert.InDelta(t, 18, hours.TripHoursUsed, 0.01)
	assert.InDelta(t, 38, hours.TotalCycleHoursUsed, 0.01)
	assert.InDelta(t, 32, hours.AvailableCycleHours, 0.01)

	// Today's availability comes from the latest log.
	assert.InDelta(t, 6, hours.AvailableDrivingToday, 0.01)
	assert.InDelta(t, 8, hours.AvailableOnDutyToday, 0.01)
}

func TestCalculateAvailableHours_NoLogs(t *testing.T) {
	eld := services.NewELDService(60)

	hours := eld.CalculateAvailableHours(20, nil)
	assert.InDelta(t, 50, hours.AvailableCycleHours, 0.01)
	assert.InDelta(t, 11, hours.AvailableDrivingToday, 0.01)
	assert.InDelta(t, 14, hours.AvailableOnDutyToday, 0.01)
}

// Exceeded limits floor at zero rather than going negative.
func TestCalculateAvailableHours_Overrun(t *testing.T) {
	eld := services.NewELDService(60)

	logs := []models.DailyLog{
		{DrivingHours: 12, OnDutyNotDrivingHours: 3},
	}

	hours := eld.CalculateAvailableHours(70, logs)
	assert.Equal(t, 0.0, hours.AvailableCycleHours)
	assert.Equal(t, 0.0, hours.AvailableDrivingToday)
	assert.Equal(t, 0.0, hours.AvailableOnDutyToday)
}
