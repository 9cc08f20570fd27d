package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/opsdesk/internal/model"
)

type AuditStore interface {
	Create(ctx context.Context, entry model.AuditLog) (*model.AuditLog, error)
	List(ctx context.Context, orgID uuid.UUID, filter model.AuditFilter) ([]model.AuditLog, error)
}

type AuditService struct {
	store AuditStore
	log   zerolog.Logger
}

func NewAuditService(store AuditStore, log zerolog.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

type AuditEntry struct {
	Action     model.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	Details    map[string]interface{}
}

// Record stores an audit entry. Failures are logged and never returned: an
// audit outage must not fail the action being audited.
func (s *AuditService) Record(ctx context.Context, principal model.Principal, entry AuditEntry) {
	ctx = context.WithoutCancel(ctx)
	_, err := s.store.Create(ctx, model.AuditLog{
		OrgID:      principal.OrgID,
		UserID:     principal.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
	})
	if err != nil {
		s.log.Error().
			Err(err).
			Str("action", string(entry.Action)).
			Str("user_id", principal.UserID.String()).
			Msg("record audit log failed")
	}
}

func (s *AuditService) List(ctx context.Context, principal model.Principal, filter model.AuditFilter) ([]model.AuditLog, error) {
	if principal.OrgID == uuid.Nil {
		return nil, ErrPermissionDenied
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidInput)
	}
	logs, err := s.store.List(ctx, principal.OrgID, filter)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
