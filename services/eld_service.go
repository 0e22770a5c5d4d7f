// File: /services/eld_service.go
package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"eldtrip-api/models"
)

// HOS violation types reported by the compliance validator.
const (
	ViolationDrivingLimit = "DRIVING_LIMIT_EXCEEDED"
	ViolationOnDutyLimit  = "ON_DUTY_LIMIT_EXCEEDED"
	ViolationRest         = "INSUFFICIENT_REST"
)

// statusForStopType maps each stop type to the duty status recorded on the
// log sheet. An explicit table keeps the mapping exhaustively testable.
var statusForStopType = map[string]string{
	models.StopTypeFuel:    models.StatusOnDuty,
	models.StopTypeRest:    models.StatusOffDuty,
	models.StopTypeSleeper: models.StatusSleeper,
	models.StopTypeOffDuty: models.StatusOffDuty,
	models.StopTypePickup:  models.StatusOnDuty,
	models.StopTypeDropoff: models.StatusOnDuty,
}

// StatusForStopType returns the duty status recorded for a stop type.
// Unknown types default to on-duty.
func StatusForStopType(stopType string) string {
	if status, ok := statusForStopType[stopType]; ok {
		return status
	}
	return models.StatusOnDuty
}

// LogEntryPlan is one contiguous duty-status interval to be persisted.
type LogEntryPlan struct {
	Status          string
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Location        string
	Latitude        *float64
	Longitude       *float64
	StartOdometer   *int
	EndOdometer     *int
	SequenceOrder   int
}

// DailyLogPlan is one ELD log sheet to be persisted: a calendar date fully
// partitioned into duty-status entries plus the derived totals.
type DailyLogPlan struct {
	Date                  time.Time // midnight at the start of the log's day
	OffDutyHours          float64
	SleeperBerthHours     float64
	DrivingHours          float64
	OnDutyNotDrivingHours float64
	StartingOdometer      int
	EndingOdometer        int
	StartingLocation      string
	EndingLocation        string
	Entries               []LogEntryPlan
}

// ELDService generates daily log sheets from a trip's stops and validates
// Hours of Service compliance.
type ELDService struct {
	averageSpeedMph float64
}

func NewELDService(averageSpeedMph float64) *ELDService {
	return &ELDService{averageSpeedMph: averageSpeedMph}
}

// BuildDailyLogs converts a trip's ordered stop list into one log sheet per
// calendar date touched by any stop. The synthesizer depends only on the
// stop list, so it works for machine-generated and hand-entered stops alike.
// It holds no state between calls - running it twice on the same input
// yields identical output.
func (s *ELDService) BuildDailyLogs(stops []models.Stop) []DailyLogPlan {
	if len(stops) == 0 {
		return nil
	}

	ordered := make([]models.Stop, len(stops))
	copy(ordered, stops)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SequenceOrder < ordered[j].SequenceOrder
	})

	var logs []DailyLogPlan
	for _, day := range datesTouched(ordered) {
		logs = append(logs, s.buildDayLog(day, ordered))
	}
	return logs
}

// datesTouched returns every calendar date (as midnight) intersected by any
// stop, in ascending order. A stop spanning midnight contributes both dates.
func datesTouched(stops []models.Stop) []time.Time {
	seen := make(map[time.Time]struct{})
	var days []time.Time

	for _, stop := range stops {
		day := midnightOf(stop.ArrivalTime)
		for !day.After(stop.DepartureTime) {
			// Half-open days: a departure exactly at midnight does not
			// touch the following date.
			if day.Equal(stop.DepartureTime) && !day.Equal(midnightOf(stop.ArrivalTime)) {
				break
			}
			if _, ok := seen[day]; !ok {
				seen[day] = struct{}{}
				days = append(days, day)
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// buildDayLog fills every minute of one calendar date with duty-status
// entries:
//
//  1. A leading off-duty entry from midnight to the first stop's arrival.
//  2. Driving entries across the gaps between consecutive stops, with
//     odometer estimated from the configured average speed.
//  3. One entry per stop, status per the stop-type mapping, clipped to day
//     boundaries when the stop spans midnight.
//  4. A trailing off-duty entry to the next midnight.
func (s *ELDService) buildDayLog(day time.Time, stops []models.Stop) DailyLogPlan {
	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)

	var entries []LogEntryPlan
	sequence := 0
	current := dayStart

	var previous *models.Stop
	for i := range stops {
		stop := &stops[i]

		if !stop.ArrivalTime.Before(dayEnd) {
			// The driver may still be en route at midnight toward this stop;
			// log that driving up to the day boundary before giving up.
			if previous != nil && stop.ArrivalTime.After(previous.DepartureTime) {
				driveStart := laterOf(previous.DepartureTime, dayStart)
				if dayEnd.After(driveStart) {
					entries = append(entries, s.drivingEntry(driveStart, dayEnd, previous, stop, sequence))
					sequence++
					current = dayEnd
				}
			}
			break
		}
		// Stops that ended before this date still anchor the driving gap
		// when the truck was moving across midnight.
		if !stop.DepartureTime.After(dayStart) {
			previous = stop
			continue
		}

		clippedStart := laterOf(stop.ArrivalTime, dayStart)
		clippedEnd := earlierOf(stop.DepartureTime, dayEnd)

		// Driving gap between the previous stop on this date and this one.
		if previous != nil && stop.ArrivalTime.After(previous.DepartureTime) {
			driveStart := laterOf(previous.DepartureTime, dayStart)
			driveEnd := earlierOf(stop.ArrivalTime, dayEnd)
			if driveEnd.After(driveStart) {
				entries = append(entries, s.drivingEntry(driveStart, driveEnd, previous, stop, sequence))
				sequence++
				current = driveEnd
			}
		} else if previous == nil && clippedStart.After(dayStart) {
			// Leading off-duty period from midnight to the day's first activity
			entries = append(entries, offDutyEntry(dayStart, clippedStart, "Starting Location", sequence))
			sequence++
			current = clippedStart
		}

		if clippedEnd.After(clippedStart) {
			odometer := int(stop.DistanceFromStart)
			lat, lng := stop.Latitude, stop.Longitude
			entries = append(entries, LogEntryPlan{
				Status:          StatusForStopType(stop.StopType),
				StartTime:       clippedStart,
				EndTime:         clippedEnd,
				DurationMinutes: minutesBetween(clippedStart, clippedEnd),
				Location:        stop.Location,
				Latitude:        &lat,
				Longitude:       &lng,
				StartOdometer:   &odometer,
				EndOdometer:     &odometer,
				SequenceOrder:   sequence,
			})
			sequence++
			current = clippedEnd
		}

		previous = stop
	}

	// Fill remaining time until midnight with off-duty
	if current.Before(dayEnd) {
		entries = append(entries, offDutyEntry(current, dayEnd, "Rest Location", sequence))
	}

	return s.summarize(day, entries)
}

// drivingEntry builds the entry covering the gap between two stops.
// The odometer is back-filled from the configured average speed, starting
// from the previous stop's cumulative distance.
func (s *ELDService) drivingEntry(start, end time.Time, from, to *models.Stop, sequence int) LogEntryPlan {
	drivingHours := end.Sub(start).Hours()
	startOdo := int(from.DistanceFromStart)
	endOdo := startOdo + int(drivingHours*s.averageSpeedMph)
	lat, lng := to.Latitude, to.Longitude

	return LogEntryPlan{
		Status:          models.StatusDriving,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: minutesBetween(start, end),
		Location:        fmt.Sprintf("En route to %s", to.Location),
		Latitude:        &lat,
		Longitude:       &lng,
		StartOdometer:   &startOdo,
		EndOdometer:     &endOdo,
		SequenceOrder:   sequence,
	}
}

func offDutyEntry(start, end time.Time, location string, sequence int) LogEntryPlan {
	return LogEntryPlan{
		Status:          models.StatusOffDuty,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: minutesBetween(start, end),
		Location:        location,
		SequenceOrder:   sequence,
	}
}

// summarize derives the four duty-status hour totals, odometer readings and
// start/end locations from a day's entries. Hours come from the entry
// timestamps, not the rounded minute counts, so a fully covered day always
// sums to 24.
func (s *ELDService) summarize(day time.Time, entries []LogEntryPlan) DailyLogPlan {
	log := DailyLogPlan{Date: day, Entries: entries}

	var offDuty, sleeper, driving, onDuty float64
	startSet := false
	for _, entry := range entries {
		hours := entry.EndTime.Sub(entry.StartTime).Hours()
		switch entry.Status {
		case models.StatusOffDuty:
			offDuty += hours
		case models.StatusSleeper:
			sleeper += hours
		case models.StatusDriving:
			driving += hours
		case models.StatusOnDuty:
			onDuty += hours
		}

		if entry.StartOdometer != nil && !startSet {
			log.StartingOdometer = *entry.StartOdometer
			startSet = true
		}
		if entry.EndOdometer != nil {
			log.EndingOdometer = *entry.EndOdometer
		}
	}

	if len(entries) > 0 {
		log.StartingLocation = entries[0].Location
		log.EndingLocation = entries[len(entries)-1].Location
	}

	log.OffDutyHours = round2(offDuty)
	log.SleeperBerthHours = round2(sleeper)
	log.DrivingHours = round2(driving)
	log.OnDutyNotDrivingHours = round2(onDuty)

	// Rounding each bucket independently can drift the displayed sum by up
	// to 0.02h. The largest bucket absorbs the residue so the four totals
	// keep summing to the exact covered time.
	exactSum := offDuty + sleeper + driving + onDuty
	buckets := []*float64{&log.OffDutyHours, &log.SleeperBerthHours, &log.DrivingHours, &log.OnDutyNotDrivingHours}
	roundedSum := 0.0
	largest := buckets[0]
	for _, b := range buckets {
		roundedSum += *b
		if *b > *largest {
			largest = b
		}
	}
	*largest = round2(*largest + exactSum - roundedSum)

	return log
}

// minutesBetween rounds to the nearest minute. Planner timestamps carry
// sub-minute components from fractional-hour driving durations; truncation
// would leak that time out of the day's totals.
func minutesBetween(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Violation is one HOS rule breach on a specific log date.
type Violation struct {
	Date    time.Time `json:"date"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
}

// ComplianceResult is the outcome of validating a sequence of daily logs.
type ComplianceResult struct {
	Compliant  bool        `json:"compliant"`
	Violations []Violation `json:"violations"`
}

// ValidateCompliance checks every log independently against the 11-hour
// driving limit, the 14-hour on-duty limit and the 10-hour rest requirement.
// A single day can carry multiple violations.
func (s *ELDService) ValidateCompliance(logs []models.DailyLog) ComplianceResult {
	violations := []Violation{}

	for _, log := range logs {
		if log.DrivingHours > MaxDrivingHours {
			violations = append(violations, Violation{
				Date:    log.LogDate,
				Type:    ViolationDrivingLimit,
				Message: fmt.Sprintf("Driving time (%.2fh) exceeds 11-hour limit", log.DrivingHours),
			})
		}

		totalOnDuty := log.DrivingHours + log.OnDutyNotDrivingHours
		if totalOnDuty > MaxOnDutyHours {
			violations = append(violations, Violation{
				Date:    log.LogDate,
				Type:    ViolationOnDutyLimit,
				Message: fmt.Sprintf("On-duty time (%.2fh) exceeds 14-hour limit", totalOnDuty),
			})
		}

		restTime := log.OffDutyHours + log.SleeperBerthHours
		if restTime < RequiredRestHours {
			violations = append(violations, Violation{
				Date:    log.LogDate,
				Type:    ViolationRest,
				Message: fmt.Sprintf("Rest time (%.2fh) below required 10 hours", restTime),
			})
		}
	}

	return ComplianceResult{
		Compliant:  len(violations) == 0,
		Violations: violations,
	}
}

// AvailableHours reports the driving capacity a driver has left.
type AvailableHours struct {
	AvailableCycleHours   float64 `json:"available_cycle_hours"`
	AvailableDrivingToday float64 `json:"available_driving_today"`
	AvailableOnDutyToday  float64 `json:"available_on_duty_today"`
	TotalCycleHoursUsed   float64 `json:"total_cycle_hours_used"`
	TripHoursUsed         float64 `json:"trip_hours_used"`
}

// CalculateAvailableHours computes remaining cycle hours (70-hour/8-day cap)
// and today's remaining driving/on-duty hours from the most recent log.
func (s *ELDService) CalculateAvailableHours(cycleHoursUsed float64, logs []models.DailyLog) AvailableHours {
	var tripHours float64
	for _, log := range logs {
		tripHours += log.DrivingHours + log.OnDutyNotDrivingHours
	}

	totalCycleHours := cycleHoursUsed + tripHours

	availableCycle := 70 - totalCycleHours
	if availableCycle < 0 {
		availableCycle = 0
	}

	availableDriving := MaxDrivingHours
	availableOnDuty := MaxOnDutyHours
	if len(logs) > 0 {
		latest := logs[len(logs)-1]
		availableDriving = clampNonNegative(MaxDrivingHours - latest.DrivingHours)
		availableOnDuty = clampNonNegative(MaxOnDutyHours - (latest.DrivingHours + latest.OnDutyNotDrivingHours))
	}

	return AvailableHours{
		AvailableCycleHours:   round2(availableCycle),
		AvailableDrivingToday: round2(availableDriving),
		AvailableOnDutyToday:  round2(availableOnDuty),
		TotalCycleHoursUsed:   round2(totalCycleHours),
		TripHoursUsed:         round2(tripHours),
	}
}
