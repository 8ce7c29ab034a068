package kml

import (
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type kmlFile struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name       string         `xml:"name,omitempty"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name       string        `xml:"name"`
	LineString kmlLineString `xml:"LineString"`
}

type kmlLineString struct {
	Coordinates string `xml:"coordinates"`
}

// WriteRoutes writes the routes as LineString placemarks in a single KML
// document that ExtractRoutes can read back. Routes without coordinates are
// skipped.
func WriteRoutes(path, docName string, routes []models.Route) error {
	doc := kmlFile{Xmlns: kmlNamespace, Document: kmlDocument{Name: docName}}
	for _, r := range routes {
		if len(r.Coords) == 0 {
			continue
		}
		doc.Document.Placemarks = append(doc.Document.Placemarks, kmlPlacemark{
			Name:       r.FullName,
			LineString: kmlLineString{Coordinates: formatCoordinates(r.Coords)},
		})
	}
	if len(doc.Document.Placemarks) == 0 {
		return fmt.Errorf("no routes with coordinates to write")
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render KML: %w", err)
	}

	if err := os.WriteFile(path, []byte(xml.Header+string(out)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write KML %s: %w", path, err)
	}

	log.Printf("[KML] Wrote %d routes to %s", len(doc.Document.Placemarks), path)
	return nil
}

// formatCoordinates renders a KML coordinate block, "lon,lat,0" per point
func formatCoordinates(coords []models.Coordinates) string {
	var b strings.Builder
	for i, c := range coords {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%f,%f,0", c.Lng, c.Lat)
	}
	return b.String()
}
