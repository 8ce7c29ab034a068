// Package tabular loads router and target lists from CSV files.
package tabular

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

// Router CSV columns. Type, Priority and Site ID are optional; files
// carrying only the minimal schema load with zero values for them.
const (
	colName     = "Name"
	colLat      = "Lat"
	colLon      = "Lon"
	colType     = "Type"
	colPriority = "Priority"
	colSiteID   = "Site ID"
)

func readRecords(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("CSV %s has no header row", path)
	}

	header := records[0]
	// Excel exports prepend a BOM to the first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	return records[1:], col, nil
}

func requireColumns(col map[string]int, path string, names ...string) error {
	for _, name := range names {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("CSV %s is missing required column %q", path, name)
		}
	}
	return nil
}

func field(row []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// LoadRouters reads the router list. Rows with malformed numbers are
// skipped with a log line; only an unreadable file is an error.
func LoadRouters(path string) ([]models.Router, error) {
	rows, col, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(col, path, colName, colLat, colLon); err != nil {
		return nil, err
	}

	_, hasPriority := col[colPriority]

	var routers []models.Router
	for i, row := range rows {
		lat, err1 := strconv.ParseFloat(field(row, col, colLat), 64)
		lng, err2 := strconv.ParseFloat(field(row, col, colLon), 64)
		if err1 != nil || err2 != nil {
			log.Printf("[INPUT] Skipping router row %d: bad coordinates %v", i+2, row)
			continue
		}

		router := models.Router{
			Name:   field(row, col, colName),
			Lat:    lat,
			Lng:    lng,
			Type:   field(row, col, colType),
			SiteID: field(row, col, colSiteID),
		}
		if (models.Coordinates{Lat: lat, Lng: lng}).Validate() != nil {
			log.Printf("[INPUT] Skipping router row %d: coordinates out of range %v", i+2, row)
			continue
		}

		if hasPriority {
			priority, err := strconv.Atoi(field(row, col, colPriority))
			if err != nil {
				log.Printf("[INPUT] Skipping router row %d: bad priority %v", i+2, row)
				continue
			}
			router.Priority = priority
		}

		routers = append(routers, router)
	}

	log.Printf("[INPUT] Loaded %d routers from %s", len(routers), path)
	return routers, nil
}

// LoadTargets reads the target (base station) list: Name, Lat, Lon
func LoadTargets(path string) ([]models.Target, error) {
	rows, col, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(col, path, colName, colLat, colLon); err != nil {
		return nil, err
	}

	var targets []models.Target
	for i, row := range rows {
		lat, err1 := strconv.ParseFloat(field(row, col, colLat), 64)
		lng, err2 := strconv.ParseFloat(field(row, col, colLon), 64)
		if err1 != nil || err2 != nil {
			log.Printf("[INPUT] Skipping target row %d: bad coordinates %v", i+2, row)
			continue
		}
		if (models.Coordinates{Lat: lat, Lng: lng}).Validate() != nil {
			log.Printf("[INPUT] Skipping target row %d: coordinates out of range %v", i+2, row)
			continue
		}

		targets = append(targets, models.Target{Name: field(row, col, colName), Lat: lat, Lng: lng})
	}

	log.Printf("[INPUT] Loaded %d targets from %s", len(targets), path)
	return targets, nil
}
