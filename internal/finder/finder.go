// Package finder ranks extracted KML routes against query points.
package finder

import (
	"log"
	"sort"

	"github.com/nguyensongnghiem/routeplanner/internal/geo"
	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

// NearestRoutes ranks every route by its distance to p, nearest first.
// Routes with fewer than two coordinates are skipped. The sort is stable, so
// exact ties keep extraction order. An empty result is valid.
func NearestRoutes(p models.Coordinates, routes []models.Route, strategy geo.Strategy) []models.RouteMatch {
	matches := make([]models.RouteMatch, 0, len(routes))

	for i := range routes {
		route := &routes[i]
		if len(route.Coords) < 2 {
			continue
		}

		dist, nearest, err := geo.NearestPointOnRoute(p, route.Coords, strategy)
		if err != nil {
			log.Printf("[FINDER] Skipping degenerate route: name=%s err=%v", route.FullName, err)
			continue
		}

		matches = append(matches, models.RouteMatch{
			Route:          route,
			DistanceMeters: dist,
			NearestPoint:   nearest,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})

	return matches
}

// BestRouteForPair finds the single route minimizing the summed distance to
// both points, used to decide whether two cable endpoints should hang off
// the same physical route. First-seen wins on exact ties. Returns nil when
// no usable route exists.
func BestRouteForPair(p1, p2 models.Coordinates, routes []models.Route, strategy geo.Strategy) *models.PairMatch {
	var best *models.PairMatch

	for i := range routes {
		route := &routes[i]
		if len(route.Coords) < 2 {
			continue
		}

		dist1, nearest1, err := geo.NearestPointOnRoute(p1, route.Coords, strategy)
		if err != nil {
			continue
		}
		dist2, nearest2, err := geo.NearestPointOnRoute(p2, route.Coords, strategy)
		if err != nil {
			continue
		}

		if best == nil || dist1+dist2 < best.TotalMeters() {
			best = &models.PairMatch{
				Route:           route,
				Distance1Meters: dist1,
				Distance2Meters: dist2,
				NearestPoint1:   nearest1,
				NearestPoint2:   nearest2,
			}
		}
	}

	if best != nil {
		log.Printf("[FINDER] Best pair route: name=%s total=%.2fm", best.Route.FullName, best.TotalMeters())
	}
	return best
}
