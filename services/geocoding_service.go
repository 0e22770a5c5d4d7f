// File: /services/geocoding_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// FallbackCoordinate is the geographic center of the continental US.
// It is returned whenever geocoding fails so route planning can continue.
var FallbackCoordinate = Coordinate{Lat: 39.8283, Lng: -98.5795}

// Geocoder resolves a free-text address to coordinates.
// Implementations must never return an error - on any failure they fall
// back to FallbackCoordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) Coordinate
}

// Clock supplies the planning epoch for all relative stop timestamps.
// Injected so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// NominatimGeocoder geocodes addresses using OpenStreetMap's Nominatim API.
//
// Nominatim usage policy:
//   - Maximum 1 request per second
//   - Must provide a User-Agent header
//   - Free for low-volume usage
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewNominatimGeocoder(baseURL, userAgent string) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		// One request per second per the Nominatim usage policy
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address to coordinates. On any failure (network,
// timeout, empty result, parse error) it logs and returns the default
// coordinates instead of an error.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) Coordinate {
	// Wait to respect the rate limit before every call
	if err := g.limiter.Wait(ctx); err != nil {
		fmt.Printf("Geocoding cancelled for '%s': %v\n", address, err)
		return FallbackCoordinate
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		fmt.Printf("Geocoding error for '%s': %v\n", address, err)
		return FallbackCoordinate
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		fmt.Printf("Geocoding error for '%s': %v\n", address, err)
		return FallbackCoordinate
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Geocoding failed for '%s': status %d\n", address, resp.StatusCode)
		return FallbackCoordinate
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		fmt.Printf("Geocoding parse error for '%s': %v\n", address, err)
		return FallbackCoordinate
	}

	if len(results) == 0 {
		fmt.Printf("Geocoding failed for '%s': no results found\n", address)
		return FallbackCoordinate
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		fmt.Printf("Geocoding parse error for '%s': invalid coordinates\n", address)
		return FallbackCoordinate
	}

	fmt.Printf("Geocoded '%s' to (%f, %f)\n", address, lat, lng)
	return Coordinate{Lat: lat, Lng: lng}
}
