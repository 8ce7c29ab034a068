// Package geo provides the great-circle and nearest-point primitives shared
// by the KML route finder and the router assignment solver.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine. Spherical
// model, not an ellipsoid; good to ~0.5% which is fine for ranking.
const EarthRadiusMeters = 6371000.0

// ErrEmptyRoute is returned when a route has too few coordinates for the
// requested strategy
var ErrEmptyRoute = errors.New("route has too few coordinates")

// Haversine returns the great-circle distance between two points in meters
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance returns the great-circle distance between two points in meters
func Distance(a, b models.Coordinates) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Strategy selects how the nearest point on a route is computed. The source
// data comes from tools that disagree on this, so it stays configurable.
type Strategy int

const (
	// StrategyProjection projects the query point orthogonally onto the
	// nearest segment of the polyline (default)
	StrategyProjection Strategy = iota
	// StrategyNearestVertex returns the closest route vertex, with no
	// interpolation between vertices
	StrategyNearestVertex
)

func (s Strategy) String() string {
	switch s {
	case StrategyProjection:
		return "projection"
	case StrategyNearestVertex:
		return "nearest-vertex"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a config/CLI value to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "projection":
		return StrategyProjection, nil
	case "nearest-vertex", "vertex":
		return StrategyNearestVertex, nil
	default:
		return StrategyProjection, fmt.Errorf("unknown nearest-point strategy: %q", s)
	}
}

// NearestPointOnRoute finds the point on the route closest to p and returns
// its great-circle distance in meters. Projection mode needs at least two
// coordinates, vertex mode needs one; otherwise ErrEmptyRoute is returned
// with an infinite distance.
func NearestPointOnRoute(p models.Coordinates, coords []models.Coordinates, strategy Strategy) (float64, models.Coordinates, error) {
	switch strategy {
	case StrategyNearestVertex:
		return nearestVertex(p, coords)
	default:
		return projectOntoRoute(p, coords)
	}
}

func nearestVertex(p models.Coordinates, coords []models.Coordinates) (float64, models.Coordinates, error) {
	if len(coords) == 0 {
		return math.Inf(1), models.Coordinates{}, ErrEmptyRoute
	}

	best := coords[0]
	bestDist := Distance(p, best)
	for _, c := range coords[1:] {
		if d := Distance(p, c); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return bestDist, best, nil
}

// projectOntoRoute works segment by segment in the raw lat/lng plane, the
// same planar interpolation the original tooling used, then reports the
// great-circle distance to the winning point.
func projectOntoRoute(p models.Coordinates, coords []models.Coordinates) (float64, models.Coordinates, error) {
	if len(coords) < 2 {
		return math.Inf(1), models.Coordinates{}, ErrEmptyRoute
	}

	var best models.Coordinates
	bestPlanar := math.Inf(1)

	for i := 0; i < len(coords)-1; i++ {
		candidate := projectOntoSegment(p, coords[i], coords[i+1])
		dLat := p.Lat - candidate.Lat
		dLng := p.Lng - candidate.Lng
		planar := dLat*dLat + dLng*dLng
		if planar < bestPlanar {
			bestPlanar = planar
			best = candidate
		}
	}

	return Distance(p, best), best, nil
}

// projectOntoSegment returns the point on segment [a,b] nearest to p in the
// planar sense. Zero-length segments collapse to their start point.
func projectOntoSegment(p, a, b models.Coordinates) models.Coordinates {
	abLat := b.Lat - a.Lat
	abLng := b.Lng - a.Lng
	lenSq := abLat*abLat + abLng*abLng
	if lenSq == 0 {
		return a
	}

	t := ((p.Lat-a.Lat)*abLat + (p.Lng-a.Lng)*abLng) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return models.Coordinates{Lat: a.Lat + t*abLat, Lng: a.Lng + t*abLng}
}
