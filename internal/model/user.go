package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserRole string

const (
	UserRoleStaff   UserRole = "STAFF"
	UserRoleManager UserRole = "MANAGER"
	UserRoleAdmin   UserRole = "ADMIN"
)

type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "PENDING"
	AccountStatusApproved  AccountStatus = "APPROVED"
	AccountStatusRejected  AccountStatus = "REJECTED"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

type CustomRole struct {
	ID           uuid.UUID
	OrgID        uuid.UUID
	Name         string
	IsSupervisor bool
}

type User struct {
	ID           uuid.UUID
	OrgID        uuid.UUID
	Email        string
	FullName     string
	Role         UserRole
	IsAdmin      bool
	Status       AccountStatus
	CustomRoleID *uuid.UUID
	PageAccess   datatypes.JSONMap
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccessRecord is the flattened row the permission resolver is built from.
type AccessRecord struct {
	UserID               uuid.UUID
	OrgID                uuid.UUID
	Role                 UserRole
	IsAdmin              bool
	Status               AccountStatus
	CustomRoleName       *string
	CustomRoleSupervisor *bool
	PageAccess           datatypes.JSONMap
}
