// Command routerplan assigns base-station targets to routers by road
// distance from an OSRM server, optionally enforcing a unique
// router-per-target mapping.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nguyensongnghiem/routeplanner/internal/config"
	"github.com/nguyensongnghiem/routeplanner/internal/models"
	"github.com/nguyensongnghiem/routeplanner/internal/osrm"
	"github.com/nguyensongnghiem/routeplanner/internal/report"
	"github.com/nguyensongnghiem/routeplanner/internal/solver"
	"github.com/nguyensongnghiem/routeplanner/internal/sqlite"
	"github.com/nguyensongnghiem/routeplanner/internal/tabular"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "optional YAML config file")
	osrmURL := flag.String("osrm-url", "", "OSRM server base URL")
	routerCSV := flag.String("router-csv", "", "router list CSV (Name, Lat, Lon[, Type, Priority, Site ID])")
	targetCSV := flag.String("target-csv", "", "target list CSV (Name, Lat, Lon)")
	outputFile := flag.String("output-file", "routing_results.xlsx", "result file (.xlsx or .csv)")
	profile := flag.String("profile", "", "OSRM travel profile")
	radius := flag.Float64("radius", 0, "pre-filter radius in km")
	unique := flag.Bool("unique", false, "enforce one router per target via conflict resolution")
	cachePath := flag.String("cache", "", "sqlite distance cache path (empty disables caching)")
	flag.Parse()

	if *routerCSV == "" || *targetCSV == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ERROR] Failed to load config: %v", err)
	}

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if explicit["osrm-url"] {
		cfg.OSRM.BaseURL = *osrmURL
	}
	if explicit["profile"] {
		cfg.OSRM.Profile = *profile
	}
	if explicit["radius"] {
		cfg.Solver.RadiusKM = *radius
	}
	if explicit["unique"] {
		cfg.Solver.Unique = *unique
	}
	if explicit["cache"] {
		cfg.Cache.Path = *cachePath
	}

	routers, err := tabular.LoadRouters(*routerCSV)
	if err != nil {
		log.Fatalf("[ERROR] Failed to load routers: %v", err)
	}
	targets, err := tabular.LoadTargets(*targetCSV)
	if err != nil {
		log.Fatalf("[ERROR] Failed to load targets: %v", err)
	}
	if len(routers) == 0 || len(targets) == 0 {
		log.Fatalf("[ERROR] Nothing to solve: routers=%d targets=%d", len(routers), len(targets))
	}

	var cache osrm.DistanceCache
	if cfg.Cache.Path != "" {
		store, err := sqlite.New(cfg.Cache.Path)
		if err != nil {
			log.Fatalf("[ERROR] Failed to open distance cache: %v", err)
		}
		defer store.Close()
		cache = store.DistanceCache()
	}

	client := osrm.NewClient(osrm.Config{
		BaseURL:    cfg.OSRM.BaseURL,
		Profile:    cfg.OSRM.Profile,
		MaxRetries: cfg.OSRM.MaxRetries,
		RetryDelay: time.Duration(cfg.OSRM.RetryDelaySeconds) * time.Second,
		Timeout:    time.Duration(cfg.OSRM.TimeoutSeconds) * time.Second,
		Cache:      cache,
	})

	s := solver.New(client, cfg.Solver.RadiusKM)
	ctx := context.Background()

	var assignments []models.Assignment
	if cfg.Solver.Unique {
		log.Printf("[MAIN] Unique assignment mode enabled")
		assignments = s.AssignUnique(ctx, targets, routers)
	} else {
		assignments = s.Assign(ctx, targets, routers)
	}

	rows := report.AssignmentRows(assignments)
	if strings.HasSuffix(strings.ToLower(*outputFile), ".csv") {
		err = report.WriteCSV(*outputFile, report.AssignmentHeader, rows)
	} else {
		err = report.WriteExcel(*outputFile, report.AssignmentHeader, rows)
	}
	if err != nil {
		log.Fatalf("[ERROR] Failed to write results: %v", err)
	}

	log.Printf("[MAIN] Done: targets=%d results=%s", len(targets), *outputFile)
}
