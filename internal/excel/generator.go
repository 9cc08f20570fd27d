package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/opsdesk/internal/model"
	"github.com/nurpe/opsdesk/internal/movement"
)

const (
	summarySheet      = "Summary"
	destinationsSheet = "Destinations"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.MovementReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(destinationsSheet); err != nil {
		return nil, err
	}
	if err := g.writeDestinations(file, report.Summary.Destinations); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, report model.MovementReport) error {
	summary := report.Summary
	rows := [][2]interface{}{
		{"Organization", report.Organization.Name},
		{"Vehicle", vehicleLabel(report.Vehicle)},
		{"Period start", formatDateTime(report.PeriodStart)},
		{"Period end", formatDateTime(report.PeriodEnd)},
		{"Location samples", summary.SampleCount},
		{"Total distance, km", formatFloat(summary.TotalDistanceKm, 2)},
		{"Driving time, min", formatFloat(summary.TotalDrivingTimeMinutes, 1)},
		{"Destinations", len(summary.Destinations)},
		{"Completed trips", countTripEnds(summary.Destinations)},
		{"Generated at", formatDateTime(report.GeneratedAt)},
	}
	if summary.Message != "" {
		rows = append(rows, [2]interface{}{"Note", summary.Message})
	}

	for i, row := range rows {
		if err := file.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			return err
		}
		if err := file.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 24)
	_ = file.SetColWidth(summarySheet, "B", "B", 40)
	return nil
}

func (g *Generator) writeDestinations(file *excelize.File, destinations []movement.Destination) error {
	headers := []string{
		"#",
		"Arrived",
		"Departed",
		"Duration, min",
		"Latitude",
		"Longitude",
		"Trip end",
		"Trip details",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(destinationsSheet, cell, header); err != nil {
			return err
		}
	}

	for i, d := range destinations {
		values := []interface{}{
			i + 1,
			formatDateTime(d.StartTime),
			formatDateTime(d.EndTime),
			formatFloat(d.DurationMinutes, 1),
			formatFloat(d.Latitude, 6),
			formatFloat(d.Longitude, 6),
			yesNo(d.IsTripEnd),
			formatMetadata(d.TripMetadata),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(destinationsSheet, cell, value); err != nil {
				return err
			}
		}
	}

	_ = file.SetColWidth(destinationsSheet, "A", "A", 6)
	_ = file.SetColWidth(destinationsSheet, "B", "C", 20)
	_ = file.SetColWidth(destinationsSheet, "D", "G", 14)
	_ = file.SetColWidth(destinationsSheet, "H", "H", 48)
	return nil
}

func vehicleLabel(v model.Vehicle) string {
	name := strings.TrimSpace(v.Name)
	plate := strings.TrimSpace(v.PlateNumber)
	switch {
	case name != "" && plate != "":
		return fmt.Sprintf("%s (%s)", name, plate)
	case plate != "":
		return plate
	case name != "":
		return name
	default:
		return v.ID.String()
	}
}

func countTripEnds(destinations []movement.Destination) int {
	count := 0
	for _, d := range destinations {
		if d.IsTripEnd {
			count++
		}
	}
	return count
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatFloat(value float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, value)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// formatMetadata renders trip metadata as sorted key=value pairs, skipping the
// trip event marker itself.
func formatMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		if key == movement.TripEventKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, metadata[key]))
	}
	return strings.Join(parts, ", ")
}
