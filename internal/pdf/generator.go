package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/opsdesk/internal/model"
	"github.com/nurpe/opsdesk/internal/movement"
)

const maxDestinationRows = 200

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(report model.MovementReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Vehicle movement report", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s - %s", safeValue(report.Organization.Name), vehicleLabel(report.Vehicle))), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s - %s", formatDateTime(report.PeriodStart), formatDateTime(report.PeriodEnd)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	summary := report.Summary
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	lines := []string{
		fmt.Sprintf("Location samples: %d", summary.SampleCount),
		fmt.Sprintf("Total distance: %s km", formatAmount(summary.TotalDistanceKm, 2)),
		fmt.Sprintf("Driving time: %s min", formatAmount(summary.TotalDrivingTimeMinutes, 1)),
		fmt.Sprintf("Destinations: %d", len(summary.Destinations)),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	if summary.Message != "" {
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 6, tr(summary.Message), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	if len(summary.Destinations) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Destinations", "", 1, "L", false, 0, "")

		headers := []string{"#", "Arrived", "Departed", "Duration, min", "Latitude", "Longitude", "Trip end"}
		colWidths := []float64{12, 45, 45, 35, 40, 40, 30}
		drawTableRow(pdf, g.fontName, headers, colWidths, true)
		for i, d := range summary.Destinations {
			if i == maxDestinationRows {
				pdf.Ln(2)
				pdf.CellFormat(0, 6, fmt.Sprintf("%d more destinations omitted; use the XLSX export for the full list.", len(summary.Destinations)-maxDestinationRows), "", 1, "L", false, 0, "")
				break
			}
			drawTableRow(pdf, g.fontName, destinationRow(i, d), colWidths, false)
		}
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s UTC", formatDateTime(report.GeneratedAt)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func destinationRow(index int, d movement.Destination) []string {
	tripEnd := "no"
	if d.IsTripEnd {
		tripEnd = "yes"
	}
	return []string{
		fmt.Sprintf("%d", index+1),
		formatDateTime(d.StartTime),
		formatDateTime(d.EndTime),
		formatAmount(d.DurationMinutes, 1),
		formatAmount(d.Latitude, 6),
		formatAmount(d.Longitude, 6),
		tripEnd,
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func vehicleLabel(v model.Vehicle) string {
	switch {
	case strings.TrimSpace(v.PlateNumber) != "" && strings.TrimSpace(v.Name) != "":
		return fmt.Sprintf("%s (%s)", v.Name, v.PlateNumber)
	case strings.TrimSpace(v.PlateNumber) != "":
		return v.PlateNumber
	case strings.TrimSpace(v.Name) != "":
		return v.Name
	default:
		return v.ID.String()
	}
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, value)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02.01.2006 15:04")
}
