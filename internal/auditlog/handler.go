package auditlog

import (
	"net/http"
	"strconv"

	"assetdesk/pkg/security"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repository *AuditLogRepository
}

func NewHandler(r *AuditLogRepository) *Handler {
	return &Handler{repository: r}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit/:resourceType/:id", security.Authorize("tech"), h.getResourceLog)
}

func (h *Handler) getResourceLog(c *gin.Context) {
	resourceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource ID"})
		return
	}

	logs, err := h.repository.GetResourceLog(resourceID, c.Param("resourceType"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch audit log", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, logs)
}
