package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/opsdesk/internal/access"
	"github.com/nurpe/opsdesk/internal/cache"
	"github.com/nurpe/opsdesk/internal/model"
)

const maxPageAccessEntries = 500

type AccessStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetAccessRecord(ctx context.Context, userID uuid.UUID) (*model.AccessRecord, error)
	UpdatePageAccess(ctx context.Context, userID uuid.UUID, pageAccess map[string]bool) error
}

type AccessService struct {
	store    AccessStore
	profiles cache.Cache[access.Profile]
	resolver *access.Resolver
	audit    *AuditService
	log      zerolog.Logger
}

func NewAccessService(
	store AccessStore,
	profiles cache.Cache[access.Profile],
	resolver *access.Resolver,
	audit *AuditService,
	log zerolog.Logger,
) *AccessService {
	return &AccessService{
		store:    store,
		profiles: profiles,
		resolver: resolver,
		audit:    audit,
		log:      log,
	}
}

// Profile returns the permission context of a user, served from the cache
// when a fresh copy exists.
func (s *AccessService) Profile(ctx context.Context, userID uuid.UUID) (*access.Profile, error) {
	key := userID.String()
	cached, ok, err := s.profiles.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", key).Msg("profile cache read failed")
	}
	if ok {
		return &cached, nil
	}

	record, err := s.store.GetAccessRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	profile := access.ProfileFromRecord(*record)
	if err := s.profiles.Set(ctx, key, *profile); err != nil {
		s.log.Warn().Err(err).Str("user_id", key).Msg("profile cache write failed")
	}
	return profile, nil
}

// Check reports whether the principal may view pagePath. Lookup failures deny.
func (s *AccessService) Check(ctx context.Context, principal model.Principal, pagePath string) bool {
	if principal.IsZero() {
		return false
	}
	profile, err := s.Profile(ctx, principal.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", principal.UserID.String()).Str("path", pagePath).Msg("access check failed closed")
		return false
	}
	if profile.OrgID != principal.OrgID {
		s.log.Warn().Str("user_id", principal.UserID.String()).Msg("token organization does not match user")
		return false
	}
	return s.resolver.HasAccess(profile, pagePath)
}

// CurrentUser returns the caller's account together with its permission
// context.
func (s *AccessService) CurrentUser(ctx context.Context, principal model.Principal) (*model.User, *access.Profile, error) {
	if principal.IsZero() {
		return nil, nil, ErrPermissionDenied
	}
	user, err := s.store.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if user.OrgID != principal.OrgID {
		return nil, nil, ErrNotFound
	}
	profile, err := s.Profile(ctx, principal.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

func (s *AccessService) GetPageAccess(ctx context.Context, principal model.Principal, userID uuid.UUID) ([]access.Rule, error) {
	record, err := s.targetRecord(ctx, principal, userID)
	if err != nil {
		return nil, err
	}
	return access.ParseRules(record.PageAccess).Entries(), nil
}

type UpdatePageAccessInput struct {
	Principal  model.Principal
	UserID     uuid.UUID
	PageAccess map[string]bool
}

// UpdatePageAccess replaces the page access map of a user in the caller's
// organization.
func (s *AccessService) UpdatePageAccess(ctx context.Context, input UpdatePageAccessInput) ([]access.Rule, error) {
	entries, err := validatePageAccess(input.PageAccess)
	if err != nil {
		return nil, err
	}

	record, err := s.targetRecord(ctx, input.Principal, input.UserID)
	if err != nil {
		return nil, err
	}
	before := access.ParseRules(record.PageAccess)
	after := access.NewRules(entries)

	if err := s.store.UpdatePageAccess(ctx, input.UserID, after.Map()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.profiles.Delete(ctx, input.UserID.String()); err != nil {
		s.log.Warn().Err(err).Str("user_id", input.UserID.String()).Msg("profile cache invalidation failed")
	}

	userID := input.UserID
	s.audit.Record(ctx, input.Principal, AuditEntry{
		Action:     model.AuditActionPageAccessUpdated,
		EntityType: "user",
		EntityID:   &userID,
		Details: map[string]interface{}{
			"before": before.Map(),
			"after":  after.Map(),
		},
	})
	return after.Entries(), nil
}

func (s *AccessService) targetRecord(ctx context.Context, principal model.Principal, userID uuid.UUID) (*model.AccessRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	record, err := s.store.GetAccessRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if record.OrgID != principal.OrgID {
		return nil, ErrNotFound
	}
	return record, nil
}

func validatePageAccess(entries map[string]bool) (map[string]bool, error) {
	if len(entries) > maxPageAccessEntries {
		return nil, fmt.Errorf("%w: at most %d page access entries are allowed", ErrInvalidInput, maxPageAccessEntries)
	}
	result := make(map[string]bool, len(entries))
	for key, allow := range entries {
		path := strings.TrimSpace(key)
		if !strings.HasPrefix(path, "/") || strings.ContainsAny(path, "?# ") {
			return nil, fmt.Errorf("%w: invalid page path %q", ErrInvalidInput, key)
		}
		result[path] = allow
	}
	return result, nil
}
