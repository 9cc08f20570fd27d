package access

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/opsdesk/internal/model"
)

const (
	AdminSectionPrefix   = "/admin"
	StaffActivitySection = "/staff-activity"
	DashboardPath        = "/dashboard"
)

// DashboardPolicy decides how the dashboard page is granted to approved
// non-admin users.
type DashboardPolicy string

const (
	// DashboardApproved grants the dashboard to every approved user.
	DashboardApproved DashboardPolicy = "approved"
	// DashboardExplicit requires a "/dashboard": true entry in the page map.
	DashboardExplicit DashboardPolicy = "explicit"
)

type CustomRole struct {
	Name       string `json:"name"`
	Supervisor bool   `json:"supervisor"`
}

// Profile is the permission context of one user.
type Profile struct {
	UserID     uuid.UUID           `json:"user_id"`
	OrgID      uuid.UUID           `json:"org_id"`
	Role       model.UserRole      `json:"role"`
	IsAdmin    bool                `json:"is_admin"`
	Status     model.AccountStatus `json:"status"`
	CustomRole *CustomRole         `json:"custom_role,omitempty"`
	Rules      Rules               `json:"page_access"`
}

// ProfileFromRecord converts a stored access row into a Profile.
func ProfileFromRecord(record model.AccessRecord) *Profile {
	profile := &Profile{
		UserID:  record.UserID,
		OrgID:   record.OrgID,
		Role:    record.Role,
		IsAdmin: record.IsAdmin,
		Status:  record.Status,
		Rules:   ParseRules(record.PageAccess),
	}
	if record.CustomRoleName != nil {
		profile.CustomRole = &CustomRole{Name: *record.CustomRoleName}
		if record.CustomRoleSupervisor != nil {
			profile.CustomRole.Supervisor = *record.CustomRoleSupervisor
		}
	}
	return profile
}

func (p *Profile) IsSupervisor() bool {
	return p.CustomRole != nil && p.CustomRole.Supervisor
}

type Resolver struct {
	dashboard DashboardPolicy
	log       zerolog.Logger
}

func NewResolver(dashboard DashboardPolicy, log zerolog.Logger) *Resolver {
	if dashboard != DashboardExplicit {
		dashboard = DashboardApproved
	}
	return &Resolver{dashboard: dashboard, log: log}
}

// HasAccess decides whether the profile may view pagePath. The first matching
// step wins; anything unmatched is denied.
func (r *Resolver) HasAccess(profile *Profile, pagePath string) bool {
	allowed, reason := r.decide(profile, pagePath)
	event := r.log.Debug().Str("path", pagePath).Bool("allowed", allowed).Str("reason", reason)
	if profile != nil {
		event = event.Str("user_id", profile.UserID.String())
	}
	event.Msg("page access resolved")
	return allowed
}

func (r *Resolver) decide(profile *Profile, pagePath string) (bool, string) {
	if profile == nil || profile.UserID == uuid.Nil {
		return false, "no user"
	}
	if profile.IsAdmin {
		return true, "admin"
	}
	if profile.Status != model.AccountStatusApproved {
		return false, "account not approved"
	}

	path := normalizePath(pagePath)
	if path == "" {
		return false, "invalid path"
	}

	if profile.Role == model.UserRoleManager && !strings.HasPrefix(path, AdminSectionPrefix) {
		return true, "manager"
	}
	if profile.IsSupervisor() && inSection(path, StaffActivitySection) {
		return true, "supervisor"
	}
	if path == DashboardPath {
		if r.dashboard == DashboardExplicit {
			return profile.Rules.allows(DashboardPath), "dashboard explicit"
		}
		return true, "dashboard approved"
	}

	rules := profile.Rules
	if rules.allows(path) {
		return true, "exact"
	}
	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		dynamic := strings.Join(parts[:len(parts)-1], "/") + "/" + DynamicPlaceholder
		if rules.allows(dynamic) {
			return true, "dynamic segment"
		}
		if rules.allows(strings.Join(parts[:2], "/")) {
			return true, "section root"
		}
	}
	if rules.allows("/") {
		return true, "global root"
	}
	return false, "no matching rule"
}

// inSection reports whether path is section itself or a path below it.
func inSection(path, section string) bool {
	return path == section || strings.HasPrefix(path, section+"/")
}
