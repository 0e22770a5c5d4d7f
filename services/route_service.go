// File: /services/route_service.go
package services

import (
	"context"
	"math"
	"time"

	"eldtrip-api/models"
)

// FMCSA Hours of Service limits and related stop parameters.
const (
	MaxDrivingHours    = 11.0 // daily driving limit
	MaxOnDutyHours     = 14.0 // daily on-duty window
	RequiredRestHours  = 10.0 // off-duty rest before the next shift
	BreakAfterHours    = 8.0  // driving hours before a 30-minute break is due

	breakDurationMinutes   = 30
	fuelDurationMinutes    = 30
	restDurationMinutes    = 600
	loadingDurationMinutes = 60

	fuelIntervalMiles     = 1000.0 // fuel stop every 1000 miles
	fuelWindowMiles       = 200.0  // how far past a 1000-mile mark a fuel stop may still fire
	fuelMinRemainingMiles = 100.0  // skip fueling when the segment is nearly done
)

const earthRadiusMiles = 3956.0

// Haversine returns the great-circle distance in miles between two points.
func Haversine(from, to Coordinate) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusMiles * c
}

// SegmentResult is the distance and implied driving duration of one leg.
type SegmentResult struct {
	Distance float64 // miles
	Duration float64 // hours
}

// StopPlan describes one stop to be persisted for a trip.
type StopPlan struct {
	Type              string
	Location          string
	Latitude          float64
	Longitude         float64
	ArrivalTime       time.Time
	DepartureTime     time.Time
	DurationMinutes   int
	SequenceOrder     int
	DistanceFromStart float64
	Notes             string
}

// WaypointPlan is a map waypoint annotated with cumulative distance/time.
type WaypointPlan struct {
	Latitude          float64
	Longitude         float64
	SequenceOrder     int
	DistanceFromStart float64
	TimeFromStart     float64
}

// RoutePlan is the full output of route calculation for one trip.
type RoutePlan struct {
	TotalDistance     float64
	EstimatedDuration float64
	Stops             []StopPlan
	Waypoints         []WaypointPlan
}

// RoutePlanner computes routes and generates regulation stops.
// Geocoder and Clock are injected collaborators; averageSpeedMph is shared
// with the ELD service so duration estimates and odometer back-fill agree.
type RoutePlanner struct {
	geocoder        Geocoder
	clock           Clock
	averageSpeedMph float64
}

func NewRoutePlanner(geocoder Geocoder, clock Clock, averageSpeedMph float64) *RoutePlanner {
	return &RoutePlanner{
		geocoder:        geocoder,
		clock:           clock,
		averageSpeedMph: averageSpeedMph,
	}
}

// Segment computes distance and duration between two coordinates.
// Any finite pair is accepted, including identical points (distance 0).
func (p *RoutePlanner) Segment(from, to Coordinate) SegmentResult {
	distance := Haversine(from, to)
	return SegmentResult{
		Distance: distance,
		Duration: distance / p.averageSpeedMph,
	}
}

// driveState carries the running counters threaded through stop insertion.
// It replaces the loose mutable variables of a naive implementation so the
// loop's invariants can be tested in isolation, and so the counters survive
// the pickup boundary between the two legs.
type driveState struct {
	sequence           int
	cumulativeDistance float64   // miles from trip start
	now                time.Time // wall clock at the current route position

	drivingSinceBreak float64 // driving hours since the last 30-minute break or rest
	drivingSinceRest  float64 // driving hours since the last 10-hour rest
	onDutySinceRest   float64 // on-duty hours (driving + loading + fueling) since the last rest
}

// onDuty records non-driving on-duty time (pickup, dropoff, fueling).
// It counts toward the 14-hour window but not toward driving limits.
func (st *driveState) onDuty(hours float64) {
	st.onDutySinceRest += hours
}

// hoursUntilBreak returns the driving hours left before a 30-minute break is due.
func (st *driveState) hoursUntilBreak() float64 {
	return clampNonNegative(BreakAfterHours - st.drivingSinceBreak)
}

// hoursUntilRest returns the driving hours left before a 10-hour rest is due,
// bounded by both the 11-hour driving limit and the 14-hour on-duty window.
func (st *driveState) hoursUntilRest() float64 {
	byDriving := MaxDrivingHours - st.drivingSinceRest
	byOnDuty := MaxOnDutyHours - st.onDutySinceRest
	return clampNonNegative(math.Min(byDriving, byOnDuty))
}

func clampNonNegative(h float64) float64 {
	if h < 0 {
		return 0
	}
	return h
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// insertRegulationStops walks one driving segment and inserts the stops the
// HOS rules require, consuming the segment's duration:
//
//   - Fuel stop (30 min) when cumulative distance is within 200 miles past a
//     1000-mile mark and at least 100 miles remain in the segment.
//   - 30-minute break once 8 cumulative driving hours are reached.
//   - 10-hour off-duty rest once 11 driving hours or 14 on-duty hours are
//     reached; resets both the break and daily counters.
//
// The fuel check is independent of and precedes the break/rest check; only
// one of break/rest fires per iteration, with the break winning ties.
// Fuel, break and rest stops are placed at the segment's start coordinate -
// route-path fidelity is intentionally sacrificed.
func (p *RoutePlanner) insertRegulationStops(at Coordinate, distance, duration float64, st driveState) ([]StopPlan, driveState) {
	stops := []StopPlan{}

	remainingDistance := distance
	remainingDuration := duration

	// drive advances the route position by the given driving hours.
	drive := func(hours float64) {
		miles := 0.0
		if duration > 0 {
			miles = (hours / duration) * distance
		}
		st.now = st.now.Add(hoursToDuration(hours))
		st.cumulativeDistance += miles
		remainingDistance -= miles
		remainingDuration -= hours
		st.drivingSinceBreak += hours
		st.drivingSinceRest += hours
		st.onDutySinceRest += hours
	}

	for remainingDuration > 1e-9 {
		// Fuel stop check - side effect only, consumes 30 minutes of wall
		// clock but no distance. Fires within 200 miles past each 1000-mile
		// mark, so the first fuel stop needs at least 1000 miles behind it.
		if st.cumulativeDistance >= fuelIntervalMiles &&
			math.Mod(st.cumulativeDistance, fuelIntervalMiles) < fuelWindowMiles &&
			remainingDistance > fuelMinRemainingMiles {

			arrival := st.now
			departure := arrival.Add(time.Duration(fuelDurationMinutes) * time.Minute)
			stops = append(stops, StopPlan{
				Type:              models.StopTypeFuel,
				Location:          "Fuel Station",
				Latitude:          at.Lat,
				Longitude:         at.Lng,
				ArrivalTime:       arrival,
				DepartureTime:     departure,
				DurationMinutes:   fuelDurationMinutes,
				SequenceOrder:     st.sequence,
				DistanceFromStart: st.cumulativeDistance,
				Notes:             "Fuel stop",
			})
			st.sequence++
			st.now = departure
			st.onDuty(float64(fuelDurationMinutes) / 60.0)
		}

		untilBreak := st.hoursUntilBreak()
		untilRest := st.hoursUntilRest()

		switch {
		case remainingDuration > untilBreak && untilBreak <= untilRest:
			// Drive until the 30-minute break is due, then take it.
			// Ties with the rest threshold go to the break.
			drive(untilBreak)

			arrival := st.now
			departure := arrival.Add(time.Duration(breakDurationMinutes) * time.Minute)
			stops = append(stops, StopPlan{
				Type:              models.StopTypeRest,
				Location:          "Rest Area",
				Latitude:          at.Lat,
				Longitude:         at.Lng,
				ArrivalTime:       arrival,
				DepartureTime:     departure,
				DurationMinutes:   breakDurationMinutes,
				SequenceOrder:     st.sequence,
				DistanceFromStart: st.cumulativeDistance,
				Notes:             "30-minute break after 8 hours driving",
			})
			st.sequence++
			st.now = departure
			st.drivingSinceBreak = 0

		case remainingDuration > untilRest:
			// Drive until the daily limit, then take the 10-hour rest.
			drive(untilRest)

			arrival := st.now
			departure := arrival.Add(time.Duration(restDurationMinutes) * time.Minute)
			stops = append(stops, StopPlan{
				Type:              models.StopTypeOffDuty,
				Location:          "Rest Location",
				Latitude:          at.Lat,
				Longitude:         at.Lng,
				ArrivalTime:       arrival,
				DepartureTime:     departure,
				DurationMinutes:   restDurationMinutes,
				SequenceOrder:     st.sequence,
				DistanceFromStart: st.cumulativeDistance,
				Notes:             "10-hour off-duty rest period",
			})
			st.sequence++
			st.now = departure
			st.drivingSinceBreak = 0
			st.drivingSinceRest = 0
			st.onDutySinceRest = 0

		default:
			// Remaining driving fits within every limit.
			drive(remainingDuration)
		}
	}

	return stops, st
}

// PlanRoute computes the full route for a trip: resolve the three waypoint
// coordinates, compute both legs, insert regulation stops, and append the
// fixed 1-hour pickup and dropoff stops.
//
// Geocoding failures never abort planning - they degrade to the default
// coordinate inside the Geocoder.
func (p *RoutePlanner) PlanRoute(ctx context.Context, trip *models.Trip) (*RoutePlan, error) {
	current := p.resolveCoordinate(ctx, trip.CurrentLocation, trip.CurrentLat, trip.CurrentLng)
	pickup := p.resolveCoordinate(ctx, trip.PickupLocation, trip.PickupLat, trip.PickupLng)
	dropoff := p.resolveCoordinate(ctx, trip.DropoffLocation, trip.DropoffLat, trip.DropoffLng)

	leg1 := p.Segment(current, pickup)
	leg2 := p.Segment(pickup, dropoff)

	startTime := p.clock.Now()
	st := driveState{now: startTime}

	// Leg 1: current position to pickup
	stops, st := p.insertRegulationStops(current, leg1.Distance, leg1.Duration, st)

	// Pickup stop (1 hour for loading). Loading time counts toward the
	// 14-hour on-duty window of the current shift.
	pickupStop := p.loadingStop(models.StopTypePickup, trip.PickupLocation, pickup, &st, "Pickup location - 1 hour for loading")
	stops = append(stops, pickupStop)

	// Leg 2: pickup to dropoff, continuing from leg 1's counters
	leg2Stops, st := p.insertRegulationStops(pickup, leg2.Distance, leg2.Duration, st)
	stops = append(stops, leg2Stops...)

	// Dropoff stop (1 hour for unloading)
	dropoffStop := p.loadingStop(models.StopTypeDropoff, trip.DropoffLocation, dropoff, &st, "Dropoff location - 1 hour for unloading")
	stops = append(stops, dropoffStop)

	totalDistance := leg1.Distance + leg2.Distance

	var stopHours float64
	for _, s := range stops {
		stopHours += float64(s.DurationMinutes) / 60.0
	}
	estimatedDuration := leg1.Duration + leg2.Duration + stopHours

	waypoints := []WaypointPlan{
		{Latitude: current.Lat, Longitude: current.Lng, SequenceOrder: 0, DistanceFromStart: 0, TimeFromStart: 0},
		{Latitude: pickup.Lat, Longitude: pickup.Lng, SequenceOrder: 1, DistanceFromStart: leg1.Distance, TimeFromStart: leg1.Duration},
		{Latitude: dropoff.Lat, Longitude: dropoff.Lng, SequenceOrder: 2, DistanceFromStart: totalDistance, TimeFromStart: totalDistance / p.averageSpeedMph},
	}

	return &RoutePlan{
		TotalDistance:     round2(totalDistance),
		EstimatedDuration: round2(estimatedDuration),
		Stops:             stops,
		Waypoints:         waypoints,
	}, nil
}

// loadingStop appends a fixed 1-hour pickup or dropoff stop and advances the
// drive state past it.
func (p *RoutePlanner) loadingStop(stopType, location string, at Coordinate, st *driveState, notes string) StopPlan {
	arrival := st.now
	departure := arrival.Add(time.Duration(loadingDurationMinutes) * time.Minute)

	stop := StopPlan{
		Type:              stopType,
		Location:          location,
		Latitude:          at.Lat,
		Longitude:         at.Lng,
		ArrivalTime:       arrival,
		DepartureTime:     departure,
		DurationMinutes:   loadingDurationMinutes,
		SequenceOrder:     st.sequence,
		DistanceFromStart: st.cumulativeDistance,
		Notes:             notes,
	}

	st.sequence++
	st.now = departure
	st.onDuty(float64(loadingDurationMinutes) / 60.0)

	return stop
}

// resolveCoordinate uses provided coordinates verbatim when both are present,
// otherwise delegates to the geocoding collaborator.
func (p *RoutePlanner) resolveCoordinate(ctx context.Context, address string, lat, lng *float64) Coordinate {
	if lat != nil && lng != nil {
		return Coordinate{Lat: *lat, Lng: *lng}
	}
	return p.geocoder.Geocode(ctx, address)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
