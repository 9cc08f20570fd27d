package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nurpe/opsdesk/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			org_id,
			email,
			full_name,
			role,
			is_admin,
			status,
			custom_role_id,
			page_access,
			created_at,
			updated_at
		FROM users
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

// GetAccessRecord returns the role, flags and page access map the permission
// resolver needs for one user.
func (r *UserRepository) GetAccessRecord(ctx context.Context, userID uuid.UUID) (*model.AccessRecord, error) {
	var record model.AccessRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id AS user_id,
			u.org_id,
			u.role,
			u.is_admin,
			u.status,
			cr.name AS custom_role_name,
			cr.is_supervisor AS custom_role_supervisor,
			u.page_access
		FROM users u
		LEFT JOIN custom_roles cr ON cr.id = u.custom_role_id
		WHERE u.id = ?
		LIMIT 1
	`, userID).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.UserID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &record, nil
}

func (r *UserRepository) UpdatePageAccess(ctx context.Context, userID uuid.UUID, pageAccess map[string]bool) error {
	payload := make(datatypes.JSONMap, len(pageAccess))
	for path, allow := range pageAccess {
		payload[path] = allow
	}

	result := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET
			page_access = ?,
			updated_at = NOW()
		WHERE id = ?
	`, payload, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
