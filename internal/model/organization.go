package model

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID        uuid.UUID
	Name      string
	Type      string
	Address   string
	Phone     string
	CreatedAt time.Time
}
