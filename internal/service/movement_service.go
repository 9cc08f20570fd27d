package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/nurpe/opsdesk/internal/config"
	"github.com/nurpe/opsdesk/internal/model"
	"github.com/nurpe/opsdesk/internal/movement"
)

type VehicleStore interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	ListSamples(ctx context.Context, vehicleID uuid.UUID, from, to time.Time) ([]model.LocationSample, error)
}

type ExcelGenerator interface {
	Generate(report model.MovementReport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(report model.MovementReport) ([]byte, error)
}

type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

type MovementService struct {
	vehicles      VehicleStore
	analyzer      *movement.Analyzer
	excel         ExcelGenerator
	pdf           PDFGenerator
	audit         *AuditService
	defaultWindow time.Duration
	maxWindow     time.Duration
	now           func() time.Time
}

func NewMovementService(
	vehicles VehicleStore,
	analyzer *movement.Analyzer,
	excel ExcelGenerator,
	pdf PDFGenerator,
	audit *AuditService,
	cfg *config.Config,
) *MovementService {
	return &MovementService{
		vehicles:      vehicles,
		analyzer:      analyzer,
		excel:         excel,
		pdf:           pdf,
		audit:         audit,
		defaultWindow: cfg.Movement.DefaultWindow,
		maxWindow:     cfg.Movement.MaxWindow,
		now:           time.Now,
	}
}

type MovementInput struct {
	Principal model.Principal
	VehicleID uuid.UUID
	From      *time.Time
	To        *time.Time
}

type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Analyze loads the vehicle's fixes for the requested window and runs the
// movement analysis over them.
func (s *MovementService) Analyze(ctx context.Context, input MovementInput) (*model.MovementReport, error) {
	if input.VehicleID == uuid.Nil {
		return nil, fmt.Errorf("%w: vehicle id is required", ErrInvalidInput)
	}
	from, to, err := s.window(input.From, input.To)
	if err != nil {
		return nil, err
	}

	var (
		org     *model.Organization
		vehicle *model.Vehicle
		rows    []model.LocationSample
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		org, err = s.vehicles.GetOrganization(gctx, input.Principal.OrgID)
		return err
	})
	g.Go(func() error {
		var err error
		vehicle, err = s.vehicles.GetVehicle(gctx, input.VehicleID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.vehicles.ListSamples(gctx, input.VehicleID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if vehicle.OrgID != input.Principal.OrgID {
		return nil, ErrNotFound
	}

	samples := make([]movement.Sample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, movement.Sample{
			Timestamp: row.RecordedAt,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Metadata:  row.Metadata,
		})
	}

	return &model.MovementReport{
		Organization: *org,
		Vehicle:      *vehicle,
		PeriodStart:  from,
		PeriodEnd:    to,
		Summary:      s.analyzer.Analyze(samples, from),
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// Export renders the movement analysis as a downloadable document.
func (s *MovementService) Export(ctx context.Context, input MovementInput, format ExportFormat) (*ExportResult, error) {
	var generate func(model.MovementReport) ([]byte, error)
	var contentType string
	switch format {
	case ExportFormatXLSX:
		generate = s.excel.Generate
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatPDF:
		generate = s.pdf.Generate
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, format)
	}

	report, err := s.Analyze(ctx, input)
	if err != nil {
		return nil, err
	}
	content, err := generate(*report)
	if err != nil {
		return nil, err
	}

	vehicleID := report.Vehicle.ID
	s.audit.Record(ctx, input.Principal, AuditEntry{
		Action:     model.AuditActionMovementExported,
		EntityType: "vehicle",
		EntityID:   &vehicleID,
		Details: map[string]interface{}{
			"format":       string(format),
			"period_start": report.PeriodStart.Format(time.RFC3339),
			"period_end":   report.PeriodEnd.Format(time.RFC3339),
			"destinations": len(report.Summary.Destinations),
		},
	})

	return &ExportResult{
		FileName:    buildFileName(*report, format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *MovementService) window(fromIn, toIn *time.Time) (time.Time, time.Time, error) {
	to := s.now().UTC()
	if toIn != nil {
		to = toIn.UTC()
	}
	from := to.Add(-s.defaultWindow)
	if fromIn != nil {
		from = fromIn.UTC()
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be before to", ErrInvalidInput)
	}
	if to.Sub(from) > s.maxWindow {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: window must not exceed %s", ErrInvalidInput, s.maxWindow)
	}
	return from, to, nil
}

func buildFileName(report model.MovementReport, format ExportFormat) string {
	target := sanitizeFileName(report.Vehicle.PlateNumber)
	if target == "" {
		target = report.Vehicle.ID.String()
	}
	period := fmt.Sprintf("%s-%s", report.PeriodStart.Format("20060102"), report.PeriodEnd.Format("20060102"))
	return fmt.Sprintf("movement-%s-%s.%s", target, period, format)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
