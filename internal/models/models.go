package models

import (
	"fmt"
	"math"
	"strings"
)

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that the point lies within the valid WGS84 range
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude out of range: %v", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude out of range: %v", c.Lng)
	}
	return nil
}

// RoundCoordinate rounds to 5 decimal places (~1m precision), the same
// rounding used for distance cache keys
func RoundCoordinate(coord float64) float64 {
	return math.Round(coord*100000) / 100000
}

// Route is a named polyline extracted from a KML document. FullName is the
// slash-joined folder path plus the placemark name.
type Route struct {
	FullName string        `json:"full_name"`
	Coords   []Coordinates `json:"coords"`
}

// ShortName returns the second-to-last path segment (the folder containing
// the route), or the full name when there is no folder path.
func (r *Route) ShortName() string {
	parts := strings.Split(r.FullName, "/")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	return r.FullName
}

// RouteMatch is one route ranked against a query point
type RouteMatch struct {
	Route          *Route      `json:"route"`
	DistanceMeters float64     `json:"distance_meters"`
	NearestPoint   Coordinates `json:"nearest_point"`
}

// PairMatch is the best route for a pair of query points
type PairMatch struct {
	Route           *Route      `json:"route"`
	Distance1Meters float64     `json:"distance1_meters"`
	Distance2Meters float64     `json:"distance2_meters"`
	NearestPoint1   Coordinates `json:"nearest_point1"`
	NearestPoint2   Coordinates `json:"nearest_point2"`
}

// TotalMeters is the combined connection distance for both endpoints
func (m *PairMatch) TotalMeters() float64 {
	return m.Distance1Meters + m.Distance2Meters
}

// Router represents a candidate router site. Type, Priority and SiteID are
// optional; loaders fill zero values when the minimal schema is used.
type Router struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Type     string  `json:"type"`
	Priority int     `json:"priority"`
	SiteID   string  `json:"site_id"`
}

// GetCoords returns the coordinates of the router
func (r *Router) GetCoords() Coordinates {
	return Coordinates{Lat: r.Lat, Lng: r.Lng}
}

// Target represents a base station to be assigned a router
type Target struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// GetCoords returns the coordinates of the target
func (t *Target) GetCoords() Coordinates {
	return Coordinates{Lat: t.Lat, Lng: t.Lng}
}

// AssignmentStatus is the outcome of one target's solve
type AssignmentStatus string

const (
	StatusSuccess         AssignmentStatus = "Success"
	StatusNoRouterInRange AssignmentStatus = "No router in radius"
	StatusRouteFailed     AssignmentStatus = "OSRM Route Failed"
	StatusNotAssigned     AssignmentStatus = "Not Assigned after Loop"
)

// Assignment is the solve result for a single target. Router is nil when no
// router could be assigned; DistanceKM is only meaningful on Success.
type Assignment struct {
	Target     Target           `json:"target"`
	Router     *Router          `json:"router"`
	DistanceKM float64          `json:"distance_km"`
	Status     AssignmentStatus `json:"status"`
}

// DistanceCacheEntry is a cached road distance between two points
type DistanceCacheEntry struct {
	Origin         Coordinates `json:"origin"`
	Destination    Coordinates `json:"destination"`
	DistanceMeters float64     `json:"distance_meters"`
}
