package kml

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kmlHeader = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">`

func TestExtractFolderPlacemarkLineString(t *testing.T) {
	doc := kmlHeader + `
<Folder>
  <name>A</name>
  <Placemark>
    <name>B</name>
    <LineString>
      <coordinates>
        106.60,10.70,0 106.65,10.75,0 106.70,10.80,0
      </coordinates>
    </LineString>
  </Placemark>
</Folder>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, routes, 1)

	assert.Equal(t, "A/B", routes[0].FullName)
	require.Len(t, routes[0].Coords, 3)
	assert.Equal(t, 10.70, routes[0].Coords[0].Lat)
	assert.Equal(t, 106.60, routes[0].Coords[0].Lng)
}

func TestExtractUnnamedDocumentContributesUnnamed(t *testing.T) {
	doc := kmlHeader + `
<Document>
  <Folder>
    <name>A</name>
    <Placemark>
      <name>B</name>
      <LineString><coordinates>1,1 2,2</coordinates></LineString>
    </Placemark>
  </Folder>
</Document>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "Unnamed/A/B", routes[0].FullName)
}

func TestExtractMultiGeometryConcatenates(t *testing.T) {
	doc := kmlHeader + `
<Document>
  <Placemark>
    <name>Cable</name>
    <MultiGeometry>
      <LineString><coordinates>0,0 1,1</coordinates></LineString>
      <LineString><coordinates>2,2 3,3</coordinates></LineString>
    </MultiGeometry>
  </Placemark>
</Document>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, routes, 1)

	require.Len(t, routes[0].Coords, 4)
	// Concatenated in document order
	assert.Equal(t, 0.0, routes[0].Coords[0].Lng)
	assert.Equal(t, 3.0, routes[0].Coords[3].Lng)
}

func TestExtractNestedFoldersBuildPath(t *testing.T) {
	doc := kmlHeader + `
<Document>
  <name>Net</name>
  <Folder>
    <name>Region</name>
    <Folder>
      <Placemark>
        <name>R1</name>
        <LineString><coordinates>1,1 2,2</coordinates></LineString>
      </Placemark>
    </Folder>
  </Folder>
</Document>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "Net/Region/Unnamed/R1", routes[0].FullName)
}

func TestExtractSkipsPointPlacemarks(t *testing.T) {
	doc := kmlHeader + `
<Document>
  <Placemark>
    <name>Site</name>
    <Point><coordinates>106.6,10.7,0</coordinates></Point>
  </Placemark>
  <Placemark>
    <name>NoGeometry</name>
  </Placemark>
</Document>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestExtractSkipsMalformedCoordinateTokens(t *testing.T) {
	doc := kmlHeader + `
<Document>
  <Placemark>
    <name>Partial</name>
    <LineString>
      <coordinates>1,1,0 garbage 2,x 2,2,0 3</coordinates>
    </LineString>
  </Placemark>
</Document>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Len(t, routes[0].Coords, 2)
}

func TestExtractUnnamedPlacemark(t *testing.T) {
	doc := kmlHeader + `
<Folder>
  <name>F</name>
  <Placemark>
    <LineString><coordinates>1,1 2,2</coordinates></LineString>
  </Placemark>
</Folder>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "F/NoName", routes[0].FullName)
}

func TestExtractTraversalOrder(t *testing.T) {
	doc := kmlHeader + `
<Document>
  <name>Net</name>
  <Placemark><name>First</name><LineString><coordinates>1,1 2,2</coordinates></LineString></Placemark>
  <Folder>
    <name>F</name>
    <Placemark><name>Second</name><LineString><coordinates>3,3 4,4</coordinates></LineString></Placemark>
  </Folder>
  <Placemark><name>Third</name><LineString><coordinates>5,5 6,6</coordinates></LineString></Placemark>
</Document>
</kml>`

	routes, err := ExtractRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, "Net/First", routes[0].FullName)
	assert.Equal(t, "Net/F/Second", routes[1].FullName)
	assert.Equal(t, "Net/Third", routes[2].FullName)
}

func TestExtractBrokenXMLFails(t *testing.T) {
	_, err := ExtractRoutes(strings.NewReader("<kml><Document><Folder>"))
	assert.Error(t, err)
}

func TestExtractRoutesFromFileMissing(t *testing.T) {
	routes, err := ExtractRoutesFromFile("/nonexistent/file.kml")
	assert.Nil(t, routes)

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
}
