// File: /services/route_service_test.go
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

var (
	newYork      = services.Coordinate{Lat: 40.7128, Lng: -74.0060}
	philadelphia = services.Coordinate{Lat: 39.9526, Lng: -75.1652}
	washington   = services.Coordinate{Lat: 38.9072, Lng: -77.0369}
	losAngeles   = services.Coordinate{Lat: 34.0522, Lng: -118.2437}
	chicago      = services.Coordinate{Lat: 41.8781, Lng: -87.6298}
)

// fakeGeocoder returns canned coordinates and records the addresses it saw.
type fakeGeocoder struct {
	coords map[string]services.Coordinate
	calls  []string
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) services.Coordinate {
	f.calls = append(f.calls, address)
	if c, ok := f.coords[address]; ok {
		return c
	}
	return services.FallbackCoordinate
}

// fixedClock pins the planner's notion of now for deterministic timelines.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func ptr(f float64) *float64 { return &f }

func newPlanner() *services.RoutePlanner {
	start := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	return services.NewRoutePlanner(&fakeGeocoder{}, fixedClock{t: start}, 60)
}

func TestHaversine_ZeroForIdenticalPoints(t *testing.T) {
	assert.InDelta(t, 0, services.Haversine(newYork, newYork), 1e-9)
}

func TestHaversine_Symmetric(t *testing.T) {
	forward := services.Haversine(newYork, philadelphia)
	backward := services.Haversine(philadelphia, newYork)
	assert.InDelta(t, forward, backward, 1e-9)
}

// New York to Philadelphia is roughly 80 miles great-circle.
func TestHaversine_KnownDistance(t *testing.T) {
	d := services.Haversine(newYork, philadelphia)
	assert.InDelta(t, 80.5, d, 5)
}

func TestSegment_DurationUsesConfiguredSpeed(t *testing.T) {
	start := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	planner := services.NewRoutePlanner(&fakeGeocoder{}, fixedClock{t: start}, 30)

	seg := planner.Segment(newYork, philadelphia)
	require.Greater(t, seg.Distance, 0.0)
	assert.InDelta(t, seg.Distance/30, seg.Duration, 1e-9)
}

// A short regional haul needs no fuel, break or rest stops: just the fixed
// 1-hour pickup and dropoff.
func TestPlanRoute_ShortHaul(t *testing.T) {
	planner := newPlanner()

	trip := &models.Trip{
		CurrentLocation: "New York, NY",
		CurrentLat:      ptr(newYork.Lat),
		CurrentLng:      ptr(newYork.Lng),
		PickupLocation:  "Philadelphia, PA",
		PickupLat:       ptr(philadelphia.Lat),
		PickupLng:       ptr(philadelphia.Lng),
		DropoffLocation: "Washington, DC",
		DropoffLat:      ptr(washington.Lat),
		DropoffLng:      ptr(washington.Lng),
	}

	plan, err := planner.PlanRoute(context.Background(), trip)
	require.NoError(t, err)

	assert.InDelta(t, 204, plan.TotalDistance, 15)
	// ~3.4 hours of driving plus two 1-hour loading stops
	assert.InDelta(t, 5.4, plan.EstimatedDuration, 0.5)

	require.Len(t, plan.Stops, 2)
	assert.Equal(t, models.StopTypePickup, plan.Stops[0].Type)
	assert.Equal(t, models.StopTypeDropoff, plan.Stops[1].Type)

	require.Len(t, plan.Waypoints, 3)
	assert.Equal(t, 0.0, plan.Waypoints[0].DistanceFromStart)
	assert.InDelta(t, plan.TotalDistance, plan.Waypoints[2].DistanceFromStart, 1)
}

// Los Angeles to Chicago (~1740 miles, ~29 driving hours) exercises every
// stop rule: two 30-minute breaks, two 10-hour rests and one fuel stop
// shortly after the 1000-mile mark.
func TestPlanRoute_LongHaul(t *testing.T) {
	planner := newPlanner()

	trip := &models.Trip{
		CurrentLocation: "Los Angeles, CA",
		CurrentLat:      ptr(losAngeles.Lat),
		CurrentLng:      ptr(losAngeles.Lng),
		PickupLocation:  "Los Angeles, CA",
		PickupLat:       ptr(losAngeles.Lat),
		PickupLng:       ptr(losAngeles.Lng),
		DropoffLocation: "Chicago, IL",
		DropoffLat:      ptr(chicago.Lat),
		DropoffLng:      ptr(chicago.Lng),
	}

	plan, err := planner.PlanRoute(context.Background(), trip)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, s := range plan.Stops {
		counts[s.Type]++
	}

	assert.Equal(t, 1, counts[models.StopTypePickup])
	assert.Equal(t, 1, counts[models.StopTypeDropoff])
	assert.Equal(t, 2, counts[models.StopTypeRest], "30-minute breaks")
	assert.Equal(t, 2, counts[models.StopTypeOffDuty], "10-hour rests")
	assert.Equal(t, 1, counts[models.StopTypeFuel])

	// The fuel stop fires within 200 miles past the 1000-mile mark.
	for _, s := range plan.Stops {
		if s.Type == models.StopTypeFuel {
			assert.GreaterOrEqual(t, s.DistanceFromStart, 1000.0)
			assert.Less(t, s.DistanceFromStart-1000, 200.0)
		}
	}

	assert.InDelta(t, 1741, plan.TotalDistance, 30)
}

// Sequence orders and arrival times increase monotonically, and every stop
// departs after it arrives.
func TestPlanRoute_StopOrdering(t *testing.T) {
	planner := newPlanner()

	trip := &models.Trip{
		CurrentLocation: "Los Angeles, CA",
		CurrentLat:      ptr(losAngeles.Lat),
		CurrentLng:      ptr(losAngeles.Lng),
		PickupLocation:  "Los Angeles, CA",
		PickupLat:       ptr(losAngeles.Lat),
		PickupLng:       ptr(losAngeles.Lng),
		DropoffLocation: "Chicago, IL",
		DropoffLat:      ptr(chicago.Lat),
		DropoffLng:      ptr(chicago.Lng),
	}

	plan, err := planner.PlanRoute(context.Background(), trip)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Stops)

	for i, s := range plan.Stops {
		assert.Equal(t, i, s.SequenceOrder)
		assert.True(t, s.DepartureTime.After(s.ArrivalTime), "stop %d departs after arrival", i)

		if i > 0 {
			prev := plan.Stops[i-1]
			assert.False(t, s.ArrivalTime.Before(prev.DepartureTime), "stop %d arrives after stop %d departs", i, i-1)
			assert.GreaterOrEqual(t, s.DistanceFromStart, prev.DistanceFromStart)
		}
	}
}

// Addresses without explicit coordinates go through the geocoder; addresses
// with coordinates are used verbatim.
func TestPlanRoute_GeocoderDelegation(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]services.Coordinate{
		"New York, NY":     newYork,
		"Philadelphia, PA": philadelphia,
	}}
	start := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	planner := services.NewRoutePlanner(geocoder, fixedClock{t: start}, 60)

	trip := &models.Trip{
		CurrentLocation: "New York, NY",
		PickupLocation:  "Philadelphia, PA",
		DropoffLocation: "Washington, DC",
		DropoffLat:      ptr(washington.Lat),
		DropoffLng:      ptr(washington.Lng),
	}

	plan, err := planner.PlanRoute(context.Background(), trip)
	require.NoError(t, err)

	assert.Equal(t, []string{"New York, NY", "Philadelphia, PA"}, geocoder.calls)

	require.Len(t, plan.Waypoints, 3)
	assert.Equal(t, newYork.Lat, plan.Waypoints[0].Latitude)
	assert.Equal(t, philadelphia.Lat, plan.Waypoints[1].Latitude)
	assert.Equal(t, washington.Lat, plan.Waypoints[2].Latitude)
}

// Planning starts from the injected clock's time, not the wall clock.
func TestPlanRoute_StartsAtInjectedClock(t *testing.T) {
	start := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	planner := services.NewRoutePlanner(&fakeGeocoder{}, fixedClock{t: start}, 60)

	trip := &models.Trip{
		CurrentLocation: "Philadelphia, PA",
		CurrentLat:      ptr(philadelphia.Lat),
		CurrentLng:      ptr(philadelphia.Lng),
		PickupLocation:  "Philadelphia, PA",
		PickupLat:       ptr(philadelphia.Lat),
		PickupLng:       ptr(philadelphia.Lng),
		DropoffLocation: "Washington, DC",
		DropoffLat:      ptr(washington.Lat),
		DropoffLng:      ptr(washington.Lng),
	}

	plan, err := planner.PlanRoute(context.Background(), trip)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Stops)

	// Leg 1 is zero-length, so the pickup starts exactly at the clock time.
	assert.Equal(t, models.StopTypePickup, plan.Stops[0].Type)
	assert.True(t, plan.Stops[0].ArrivalTime.Equal(start))
}
