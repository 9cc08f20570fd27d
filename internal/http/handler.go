package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/opsdesk/internal/access"
	"github.com/nurpe/opsdesk/internal/http/middleware"
	"github.com/nurpe/opsdesk/internal/model"
	"github.com/nurpe/opsdesk/internal/movement"
	"github.com/nurpe/opsdesk/internal/service"
)

const (
	pageAdminUsers     = "/admin/users"
	pageAdminAuditLogs = "/admin/audit-logs"
	pageVehicles       = "/vehicles"
)

type Handler struct {
	access   *service.AccessService
	movement *service.MovementService
	audit    *service.AuditService
	log      zerolog.Logger
}

func NewHandler(
	accessService *service.AccessService,
	movementService *service.MovementService,
	auditService *service.AuditService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		access:   accessService,
		movement: movementService,
		audit:    auditService,
		log:      log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/access/check", h.checkAccess)
	protected.GET("/access/me", h.myAccess)

	users := protected.Group("/users", middleware.RequirePage(h.access, pageAdminUsers))
	users.GET("/:id/page-access", h.getPageAccess)
	users.PUT("/:id/page-access", h.updatePageAccess)

	vehicles := protected.Group("/vehicles", middleware.RequirePagePath(h.access, vehiclePage))
	vehicles.GET("/:id/movement", h.vehicleMovement)
	vehicles.GET("/:id/movement/export", h.exportMovement)

	protected.GET("/audit-logs", middleware.RequirePage(h.access, pageAdminAuditLogs), h.listAuditLogs)
}

func vehiclePage(c *gin.Context) string {
	return pageVehicles + "/" + c.Param("id")
}

func (h *Handler) checkAccess(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	allowed := h.access.Check(c.Request.Context(), principal, path)
	c.JSON(http.StatusOK, gin.H{"path": path, "allowed": allowed})
}

func (h *Handler) myAccess(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	user, profile, err := h.access.CurrentUser(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse{
			ID:       user.ID,
			OrgID:    user.OrgID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
			Status:   user.Status,
		},
		"profile":     profile,
		"page_access": profile.Rules.Entries(),
	})
}

type userResponse struct {
	ID       uuid.UUID           `json:"id"`
	OrgID    uuid.UUID           `json:"org_id"`
	Email    string              `json:"email"`
	FullName string              `json:"full_name"`
	Role     model.UserRole      `json:"role"`
	Status   model.AccountStatus `json:"status"`
}

type pageAccessResponse struct {
	UserID     uuid.UUID     `json:"user_id"`
	PageAccess []access.Rule `json:"page_access"`
}

func (h *Handler) getPageAccess(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	rules, err := h.access.GetPageAccess(c.Request.Context(), principal, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageAccessResponse{UserID: userID, PageAccess: rules})
}

type updatePageAccessRequest struct {
	PageAccess map[string]bool `json:"page_access" binding:"required"`
}

func (h *Handler) updatePageAccess(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updatePageAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rules, err := h.access.UpdatePageAccess(c.Request.Context(), service.UpdatePageAccessInput{
		Principal:  principal,
		UserID:     userID,
		PageAccess: req.PageAccess,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageAccessResponse{UserID: userID, PageAccess: rules})
}

type movementResponse struct {
	OrgID       uuid.UUID        `json:"org_id"`
	VehicleID   uuid.UUID        `json:"vehicle_id"`
	PlateNumber string           `json:"plate_number"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`
	Summary     movement.Summary `json:"summary"`
	GeneratedAt time.Time        `json:"generated_at"`
}

func (h *Handler) vehicleMovement(c *gin.Context) {
	input, ok := h.movementInput(c)
	if !ok {
		return
	}

	report, err := h.movement.Analyze(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, movementResponse{
		OrgID:       report.Organization.ID,
		VehicleID:   report.Vehicle.ID,
		PlateNumber: report.Vehicle.PlateNumber,
		PeriodStart: report.PeriodStart,
		PeriodEnd:   report.PeriodEnd,
		Summary:     report.Summary,
		GeneratedAt: report.GeneratedAt,
	})
}

func (h *Handler) exportMovement(c *gin.Context) {
	input, ok := h.movementInput(c)
	if !ok {
		return
	}

	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(service.ExportFormatXLSX)))))
	result, err := h.movement.Export(c.Request.Context(), input, format)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Type", result.ContentType)
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) movementInput(c *gin.Context) (service.MovementInput, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return service.MovementInput{}, false
	}

	vehicleID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return service.MovementInput{}, false
	}

	from, err := parseOptionalDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return service.MovementInput{}, false
	}
	to, err := parseOptionalDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return service.MovementInput{}, false
	}

	return service.MovementInput{
		Principal: principal,
		VehicleID: vehicleID,
		From:      from,
		To:        to,
	}, true
}

type auditLogResponse struct {
	ID         uuid.UUID              `json:"id"`
	UserID     uuid.UUID              `json:"user_id"`
	Action     model.AuditAction      `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uuid.UUID             `json:"entity_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

func (h *Handler) listAuditLogs(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var filter model.AuditFilter
	if raw := strings.TrimSpace(c.Query("action")); raw != "" {
		action := model.AuditAction(strings.ToUpper(raw))
		filter.Action = &action
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserID = &userID
	}
	var err error
	if filter.From, err = parseOptionalDate(c.Query("from")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return
	}
	if filter.To, err = parseOptionalDate(c.Query("to")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	logs, err := h.audit.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	items := make([]auditLogResponse, 0, len(logs))
	for _, entry := range logs {
		items = append(items, auditLogResponse{
			ID:         entry.ID,
			UserID:     entry.UserID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Details:    entry.Details,
			CreatedAt:  entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
