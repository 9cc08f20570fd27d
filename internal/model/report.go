package model

import (
	"time"

	"github.com/nurpe/opsdesk/internal/movement"
)

type MovementReport struct {
	Organization Organization
	Vehicle      Vehicle
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Summary      movement.Summary
	GeneratedAt  time.Time
}
