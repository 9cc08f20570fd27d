package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/opsdesk/internal/model"
)

const maxAuditPage = 500

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry model.AuditLog) (*model.AuditLog, error) {
	var saved model.AuditLog
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO audit_logs (
			org_id,
			user_id,
			action,
			entity_type,
			entity_id,
			details
		) VALUES (?, ?, ?, ?, ?, ?)
		RETURNING
			id,
			org_id,
			user_id,
			action,
			entity_type,
			entity_id,
			details,
			created_at
	`,
		entry.OrgID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Details,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *AuditRepository) List(ctx context.Context, orgID uuid.UUID, filter model.AuditFilter) ([]model.AuditLog, error) {
	baseQuery := `
		SELECT
			id,
			org_id,
			user_id,
			action,
			entity_type,
			entity_id,
			details,
			created_at
		FROM audit_logs
		WHERE org_id = ?
	`
	args := []interface{}{orgID}
	var filters []string
	if filter.Action != nil {
		filters = append(filters, "action = ?")
		args = append(args, *filter.Action)
	}
	if filter.UserID != nil {
		filters = append(filters, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.From != nil {
		filters = append(filters, "created_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		filters = append(filters, "created_at < ?")
		args = append(args, *filter.To)
	}
	if len(filters) > 0 {
		baseQuery += " AND " + strings.Join(filters, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxAuditPage {
		limit = maxAuditPage
	}
	baseQuery += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	var rows []model.AuditLog
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
