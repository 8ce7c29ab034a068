package finder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyensongnghiem/routeplanner/internal/geo"
	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

func line(name string, pts ...models.Coordinates) models.Route {
	return models.Route{FullName: name, Coords: pts}
}

func TestNearestRoutesSortedAscending(t *testing.T) {
	routes := []models.Route{
		line("far", models.Coordinates{Lat: 5, Lng: 0}, models.Coordinates{Lat: 5, Lng: 1}),
		line("near", models.Coordinates{Lat: 1, Lng: 0}, models.Coordinates{Lat: 1, Lng: 1}),
		line("mid", models.Coordinates{Lat: 3, Lng: 0}, models.Coordinates{Lat: 3, Lng: 1}),
	}
	query := models.Coordinates{Lat: 0, Lng: 0.5}

	matches := NearestRoutes(query, routes, geo.StrategyProjection)
	require.Len(t, matches, 3)

	assert.Equal(t, "near", matches[0].Route.FullName)
	assert.Equal(t, "mid", matches[1].Route.FullName)
	assert.Equal(t, "far", matches[2].Route.FullName)
	assert.Less(t, matches[0].DistanceMeters, matches[1].DistanceMeters)
}

func TestNearestRoutesSkipsShortRoutes(t *testing.T) {
	routes := []models.Route{
		line("single-point", models.Coordinates{Lat: 0, Lng: 0}),
		line("empty"),
		line("ok", models.Coordinates{Lat: 1, Lng: 0}, models.Coordinates{Lat: 1, Lng: 1}),
	}

	matches := NearestRoutes(models.Coordinates{Lat: 0, Lng: 0}, routes, geo.StrategyProjection)
	require.Len(t, matches, 1)
	assert.Equal(t, "ok", matches[0].Route.FullName)
}

func TestNearestRoutesStableOnTies(t *testing.T) {
	// Identical geometry means identical distances; extraction order wins
	routes := []models.Route{
		line("first", models.Coordinates{Lat: 1, Lng: 0}, models.Coordinates{Lat: 1, Lng: 1}),
		line("second", models.Coordinates{Lat: 1, Lng: 0}, models.Coordinates{Lat: 1, Lng: 1}),
	}

	matches := NearestRoutes(models.Coordinates{Lat: 0, Lng: 0.5}, routes, geo.StrategyProjection)
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].Route.FullName)
	assert.Equal(t, "second", matches[1].Route.FullName)
}

func TestNearestRoutesEmptyInput(t *testing.T) {
	matches := NearestRoutes(models.Coordinates{}, nil, geo.StrategyProjection)
	assert.Empty(t, matches)
}

func TestBestRouteForPairMinimizesSum(t *testing.T) {
	// "shared" sits between both query points; "close1" hugs p1 only
	routes := []models.Route{
		line("close1", models.Coordinates{Lat: 0.01, Lng: 0}, models.Coordinates{Lat: 0.01, Lng: 1}),
		line("shared", models.Coordinates{Lat: 0.5, Lng: 0}, models.Coordinates{Lat: 0.5, Lng: 1}),
	}
	p1 := models.Coordinates{Lat: 0, Lng: 0.5}
	p2 := models.Coordinates{Lat: 1, Lng: 0.5}

	best := BestRouteForPair(p1, p2, routes, geo.StrategyProjection)
	require.NotNil(t, best)
	assert.Equal(t, "shared", best.Route.FullName)
	assert.InDelta(t, best.Distance1Meters, best.Distance2Meters, 1.0)
	assert.Equal(t, best.Distance1Meters+best.Distance2Meters, best.TotalMeters())
}

func TestBestRouteForPairFirstSeenWinsTies(t *testing.T) {
	routes := []models.Route{
		line("a", models.Coordinates{Lat: 1, Lng: 0}, models.Coordinates{Lat: 1, Lng: 1}),
		line("b", models.Coordinates{Lat: 1, Lng: 0}, models.Coordinates{Lat: 1, Lng: 1}),
	}

	best := BestRouteForPair(models.Coordinates{Lat: 0, Lng: 0.2}, models.Coordinates{Lat: 0, Lng: 0.8}, routes, geo.StrategyProjection)
	require.NotNil(t, best)
	assert.Equal(t, "a", best.Route.FullName)
}

func TestBestRouteForPairNoRoutes(t *testing.T) {
	assert.Nil(t, BestRouteForPair(models.Coordinates{}, models.Coordinates{}, nil, geo.StrategyProjection))

	// Only degenerate routes is the same as no routes
	routes := []models.Route{line("dot", models.Coordinates{Lat: 1, Lng: 1})}
	assert.Nil(t, BestRouteForPair(models.Coordinates{}, models.Coordinates{}, routes, geo.StrategyProjection))
}
