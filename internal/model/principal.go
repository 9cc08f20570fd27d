package model

import "github.com/google/uuid"

// Principal is the identity extracted from a verified access token. Role and
// page access are always re-read from the store; the token role is advisory.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Email  string
	Role   UserRole
}

func (p Principal) IsZero() bool {
	return p.UserID == uuid.Nil
}
