// Command nearestroute searches a KML file for the routes closest to a
// query point, or for the best shared route for a pair of points.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nguyensongnghiem/routeplanner/internal/config"
	"github.com/nguyensongnghiem/routeplanner/internal/finder"
	"github.com/nguyensongnghiem/routeplanner/internal/geo"
	"github.com/nguyensongnghiem/routeplanner/internal/kml"
	"github.com/nguyensongnghiem/routeplanner/internal/models"
	"github.com/nguyensongnghiem/routeplanner/internal/osrm"
	"github.com/nguyensongnghiem/routeplanner/internal/report"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "optional YAML config file")
	kmlPath := flag.String("kml", "", "KML file with cable routes")
	lat := flag.Float64("lat", 0, "query point latitude")
	lon := flag.Float64("lon", 0, "query point longitude")
	lat2 := flag.Float64("lat2", 0, "second point latitude (pair mode)")
	lon2 := flag.Float64("lon2", 0, "second point longitude (pair mode)")
	strategyFlag := flag.String("strategy", "", "nearest-point strategy: projection or nearest-vertex")
	output := flag.String("output", "", "optional result file (.csv or .xlsx); default prints to stdout")
	top := flag.Int("top", 10, "number of ranked routes to report")
	road := flag.Bool("road", false, "pair mode: fetch the road route between the two connection points from OSRM")
	routeKML := flag.String("route-kml", "", "pair mode: write the fetched road geometry to this KML file (implies -road)")
	osrmURL := flag.String("osrm-url", "", "OSRM server base URL")
	flag.Parse()

	if *kmlPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ERROR] Failed to load config: %v", err)
	}

	strategyName := cfg.Finder.Strategy
	if *strategyFlag != "" {
		strategyName = *strategyFlag
	}
	strategy, err := geo.ParseStrategy(strategyName)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	point := models.Coordinates{Lat: *lat, Lng: *lon}
	if err := point.Validate(); err != nil {
		log.Fatalf("[ERROR] Invalid query point: %v", err)
	}

	routes, err := kml.ExtractRoutesFromFile(*kmlPath)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if len(routes) == 0 {
		log.Printf("[MAIN] No routes found in %s", *kmlPath)
		return
	}

	pairMode := isFlagSet("lat2") || isFlagSet("lon2")
	if pairMode {
		var client *osrm.Client
		if *road || *routeKML != "" {
			if isFlagSet("osrm-url") {
				cfg.OSRM.BaseURL = *osrmURL
			}
			client = osrm.NewClient(osrm.Config{
				BaseURL:    cfg.OSRM.BaseURL,
				Profile:    cfg.OSRM.Profile,
				MaxRetries: cfg.OSRM.MaxRetries,
				RetryDelay: time.Duration(cfg.OSRM.RetryDelaySeconds) * time.Second,
				Timeout:    time.Duration(cfg.OSRM.TimeoutSeconds) * time.Second,
			})
		}
		runPairMode(point, models.Coordinates{Lat: *lat2, Lng: *lon2}, routes, strategy, client, *routeKML)
		return
	}

	matches := finder.NearestRoutes(point, routes, strategy)
	if len(matches) == 0 {
		log.Printf("[MAIN] No usable routes near (%.6f,%.6f)", point.Lat, point.Lng)
		return
	}
	if *top > 0 && len(matches) > *top {
		matches = matches[:*top]
	}

	rows := report.RouteMatchRows(matches)
	switch {
	case *output == "":
		for i, m := range matches {
			fmt.Printf("%2d. %-40s %10.2f m  nearest=(%.6f,%.6f)\n",
				i+1, m.Route.FullName, m.DistanceMeters, m.NearestPoint.Lat, m.NearestPoint.Lng)
		}
	case strings.HasSuffix(strings.ToLower(*output), ".csv"):
		if err := report.WriteCSV(*output, report.RouteMatchHeader, rows); err != nil {
			log.Fatalf("[ERROR] Failed to write results: %v", err)
		}
	default:
		if err := report.WriteExcel(*output, report.RouteMatchHeader, rows); err != nil {
			log.Fatalf("[ERROR] Failed to write results: %v", err)
		}
	}
}

func runPairMode(p1, p2 models.Coordinates, routes []models.Route, strategy geo.Strategy, client *osrm.Client, routeKMLPath string) {
	if err := p2.Validate(); err != nil {
		log.Fatalf("[ERROR] Invalid second point: %v", err)
	}

	best := finder.BestRouteForPair(p1, p2, routes, strategy)
	if best == nil {
		log.Printf("[MAIN] No usable route for the pair")
		return
	}

	fmt.Printf("Best route: %s (short: %s)\n", best.Route.FullName, best.Route.ShortName())
	fmt.Printf("  P1 -> route: %.2f m at (%.6f,%.6f)\n", best.Distance1Meters, best.NearestPoint1.Lat, best.NearestPoint1.Lng)
	fmt.Printf("  P2 -> route: %.2f m at (%.6f,%.6f)\n", best.Distance2Meters, best.NearestPoint2.Lat, best.NearestPoint2.Lng)
	fmt.Printf("  Total: %.2f m\n", best.TotalMeters())

	if client == nil {
		return
	}

	// Road route between the two connection points on the chosen route
	result, err := client.Route(context.Background(), best.NearestPoint1, best.NearestPoint2)
	if err != nil {
		log.Fatalf("[ERROR] Road route lookup failed: %v", err)
	}
	if result == nil {
		fmt.Printf("  Road span: connection points coincide, nothing to route\n")
		return
	}
	fmt.Printf("  Road span: %.3f km (%d geometry points)\n", result.DistanceKM, len(result.Geometry))

	if routeKMLPath != "" {
		span := models.Route{FullName: best.Route.FullName, Coords: result.Geometry}
		if err := kml.WriteRoutes(routeKMLPath, "Road Spans", []models.Route{span}); err != nil {
			log.Fatalf("[ERROR] Failed to write route KML: %v", err)
		}
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
