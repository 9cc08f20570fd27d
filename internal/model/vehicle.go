package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Vehicle struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	PlateNumber string
	Name        string
	CreatedAt   time.Time
}

type LocationSample struct {
	ID         uuid.UUID
	VehicleID  uuid.UUID
	RecordedAt time.Time
	Latitude   float64
	Longitude  float64
	Metadata   datatypes.JSONMap
}
