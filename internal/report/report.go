// Package report turns solver and finder results into tabular records and
// writes them as CSV or Excel files.
package report

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

const assignmentSheet = "Routing_Results"

// AssignmentHeader is the column order of the assignment report
var AssignmentHeader = []string{
	"BS_Name", "BS_Lat", "BS_Lon",
	"Nearest_Router_Name", "Nearest_Router_Lat", "Nearest_Router_Lon",
	"Router_Type", "Router_Priority", "Router_Site_ID",
	"Route_Distance_KM", "Status",
}

// AssignmentRows renders assignments into rows matching AssignmentHeader.
// Missing router fields and distances are rendered as "N/A".
func AssignmentRows(assignments []models.Assignment) [][]string {
	rows := make([][]string, 0, len(assignments))
	for _, a := range assignments {
		row := []string{
			a.Target.Name,
			formatCoord(a.Target.Lat),
			formatCoord(a.Target.Lng),
		}
		if a.Router != nil {
			row = append(row,
				a.Router.Name,
				formatCoord(a.Router.Lat),
				formatCoord(a.Router.Lng),
				a.Router.Type,
				strconv.Itoa(a.Router.Priority),
				a.Router.SiteID,
				fmt.Sprintf("%.3f", a.DistanceKM),
			)
		} else {
			row = append(row, "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A")
		}
		row = append(row, string(a.Status))
		rows = append(rows, row)
	}
	return rows
}

// RouteMatchHeader is the column order of the nearest-route report
var RouteMatchHeader = []string{
	"Route_Full_Name", "Route_Short_Name", "Distance_M", "Nearest_Lat", "Nearest_Lon",
}

// RouteMatchRows renders ranked route matches into rows matching
// RouteMatchHeader
func RouteMatchRows(matches []models.RouteMatch) [][]string {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			m.Route.FullName,
			m.Route.ShortName(),
			fmt.Sprintf("%.2f", m.DistanceMeters),
			formatCoord(m.NearestPoint.Lat),
			formatCoord(m.NearestPoint.Lng),
		})
	}
	return rows
}

// WriteCSV writes a header plus rows to path
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	log.Printf("[REPORT] Wrote %d rows to %s", len(rows), path)
	return nil
}

// WriteExcel writes a header plus rows to an .xlsx workbook with a single
// named sheet
func WriteExcel(path string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(assignmentSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(assignmentSheet, cell, &row)
	}

	if err := writeRow(1, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		if err := writeRow(i+2, r); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	log.Printf("[REPORT] Wrote %d rows to %s", len(rows), path)
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
