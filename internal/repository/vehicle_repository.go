package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/opsdesk/internal/model"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, type, COALESCE(address, '') AS address, COALESCE(phone, '') AS phone, created_at
		FROM organizations
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&org).Error; err != nil {
		return nil, err
	}
	if org.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &org, nil
}

func (r *VehicleRepository) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, org_id, plate_number, name, created_at
		FROM vehicles
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&vehicle).Error; err != nil {
		return nil, err
	}
	if vehicle.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &vehicle, nil
}

// ListSamples returns the fixes recorded in [from, to) ordered by time.
func (r *VehicleRepository) ListSamples(
	ctx context.Context,
	vehicleID uuid.UUID,
	from, to time.Time,
) ([]model.LocationSample, error) {
	var rows []model.LocationSample
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			vehicle_id,
			recorded_at,
			latitude,
			longitude,
			metadata
		FROM vehicle_locations
		WHERE vehicle_id = ?
			AND recorded_at >= ?
			AND recorded_at < ?
		ORDER BY recorded_at ASC
	`, vehicleID, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
