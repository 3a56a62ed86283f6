package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// AuditHandler lists the admin action trail.
type AuditHandler struct {
	audits *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List godoc
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Param user_id query string false "Acting user"
// @Param resource query string false "Resource name"
// @Param action query string false "Action"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Router /admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	filter := models.AuditLogFilter{
		UserID:   c.Query("user_id"),
		Resource: c.Query("resource"),
		Action:   c.Query("action"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "limit", 20),
	}

	logs, pagination, err := h.audits.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
