// Package kml extracts named LineString routes from KML 2.2 documents.
package kml

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

// ReadError is returned when a KML file cannot be read or parsed at all.
// Callers should treat it as "no data" rather than a fatal condition.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to read KML %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to read KML: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// frame tracks one open XML element during the walk
type frame struct {
	tag    string // lowercased local name
	name   strings.Builder
	text   strings.Builder
	coords []models.Coordinates
}

// ExtractRoutesFromFile opens path and extracts its routes
func ExtractRoutesFromFile(path string) ([]models.Route, error) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[ERROR] Cannot open KML file: path=%s err=%v", path, err)
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	routes, err := ExtractRoutes(f)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return routes, nil
}

// ExtractRoutes walks the container hierarchy (Document/Folder, arbitrarily
// nested) with an explicit element stack and collects every Placemark that
// carries LineString geometry, either directly or inside a MultiGeometry.
// Multiple LineStrings under one Placemark are concatenated into a single
// route in document order. Placemarks without line geometry are skipped.
func ExtractRoutes(r io.Reader) ([]models.Route, error) {
	dec := xml.NewDecoder(r)

	var routes []models.Route
	var stack []*frame

	// parent returns the n-th frame from the top, or nil
	parent := func(n int) *frame {
		if len(stack) <= n {
			return nil
		}
		return stack[len(stack)-1-n]
	}

	// nearest open Placemark, if any
	openPlacemark := func() *frame {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].tag == "placemark" {
				return stack[i]
			}
		}
		return nil
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[ERROR] KML parse failed: err=%v", err)
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &frame{tag: strings.ToLower(t.Name.Local)})

		case xml.CharData:
			top := parent(0)
			if top == nil {
				continue
			}
			switch top.tag {
			case "name":
				if owner := parent(1); owner != nil {
					owner.name.Write(t)
				}
			case "coordinates":
				top.text.Write(t)
			}

		case xml.EndElement:
			top := parent(0)
			if top == nil {
				continue
			}

			switch top.tag {
			case "coordinates":
				// Only LineString coordinate blocks count; Point and
				// Polygon geometry is not route data.
				if ls := parent(1); ls != nil && ls.tag == "linestring" {
					if pm := openPlacemark(); pm != nil {
						pm.coords = append(pm.coords, parseCoordinates(top.text.String())...)
					}
				}
			case "placemark":
				if len(top.coords) > 0 {
					routes = append(routes, models.Route{
						FullName: joinPath(stack[:len(stack)-1], placemarkName(top)),
						Coords:   top.coords,
					})
				}
			}

			stack = stack[:len(stack)-1]
		}
	}

	log.Printf("[KML] Extraction complete: routes=%d", len(routes))
	return routes, nil
}

func placemarkName(pm *frame) string {
	name := strings.TrimSpace(pm.name.String())
	if name == "" {
		return "NoName"
	}
	return name
}

// joinPath builds the slash-joined path of the open containers above a
// placemark, using "Unnamed" for containers without a usable name
func joinPath(containers []*frame, leaf string) string {
	var parts []string
	for _, f := range containers {
		if f.tag != "document" && f.tag != "folder" {
			continue
		}
		name := strings.TrimSpace(f.name.String())
		if name == "" {
			name = "Unnamed"
		}
		parts = append(parts, name)
	}
	parts = append(parts, leaf)
	return strings.Join(parts, "/")
}

// parseCoordinates parses a KML coordinate block: whitespace-separated
// "lon,lat[,alt]" tuples. Malformed tuples are skipped individually.
func parseCoordinates(text string) []models.Coordinates {
	var coords []models.Coordinates
	for _, tok := range strings.Fields(text) {
		parts := strings.Split(tok, ",")
		if len(parts) < 2 {
			continue
		}
		lng, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		coords = append(coords, models.Coordinates{Lat: lat, Lng: lng})
	}
	return coords
}
