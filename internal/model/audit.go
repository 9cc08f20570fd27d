package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionPageAccessUpdated AuditAction = "PAGE_ACCESS_UPDATED"
	AuditActionMovementExported  AuditAction = "MOVEMENT_EXPORTED"
)

type AuditLog struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	UserID     uuid.UUID
	Action     AuditAction
	EntityType string
	EntityID   *uuid.UUID
	Details    datatypes.JSONMap
	CreatedAt  time.Time
}

type AuditFilter struct {
	Action *AuditAction
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
	Limit  int
}
