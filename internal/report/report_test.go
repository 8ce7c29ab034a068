package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

func sampleAssignments() []models.Assignment {
	return []models.Assignment{
		{
			Target: models.Target{Name: "BS1", Lat: 10.7, Lng: 106.6},
			Router: &models.Router{
				Name: "R1", Lat: 10.71, Lng: 106.61,
				Type: "CPE", Priority: 1, SiteID: "HCM001",
			},
			DistanceKM: 2.345,
			Status:     models.StatusSuccess,
		},
		{
			Target: models.Target{Name: "BS2", Lat: 10.8, Lng: 106.7},
			Status: models.StatusNoRouterInRange,
		},
	}
}

func TestAssignmentRows(t *testing.T) {
	rows := AssignmentRows(sampleAssignments())
	require.Len(t, rows, 2)

	require.Len(t, rows[0], len(AssignmentHeader))
	assert.Equal(t, "BS1", rows[0][0])
	assert.Equal(t, "R1", rows[0][3])
	assert.Equal(t, "CPE", rows[0][6])
	assert.Equal(t, "1", rows[0][7])
	assert.Equal(t, "HCM001", rows[0][8])
	assert.Equal(t, "2.345", rows[0][9])
	assert.Equal(t, "Success", rows[0][10])

	// Unassigned target renders N/A for every router field
	assert.Equal(t, "BS2", rows[1][0])
	for i := 3; i <= 9; i++ {
		assert.Equal(t, "N/A", rows[1][i])
	}
	assert.Equal(t, "No router in radius", rows[1][10])
}

func TestRouteMatchRows(t *testing.T) {
	route := models.Route{FullName: "Region/District/Cable-7", Coords: []models.Coordinates{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}}
	rows := RouteMatchRows([]models.RouteMatch{
		{Route: &route, DistanceMeters: 123.456, NearestPoint: models.Coordinates{Lat: 1.5, Lng: 1.5}},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Region/District/Cable-7", rows[0][0])
	assert.Equal(t, "District", rows[0][1])
	assert.Equal(t, "123.46", rows[0][2])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := AssignmentRows(sampleAssignments())

	require.NoError(t, WriteCSV(path, AssignmentHeader, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, AssignmentHeader, records[0])
	assert.Equal(t, rows[0], records[1])
}

func TestWriteExcelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	rows := AssignmentRows(sampleAssignments())

	require.NoError(t, WriteExcel(path, AssignmentHeader, rows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Routing_Results")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, AssignmentHeader, got[0])
	assert.Equal(t, "BS1", got[1][0])
	assert.Equal(t, "Success", got[1][10])
}
