package pm

import (
	"net/http"
	"strconv"

	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/security"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	maintenance := router.Group("/maintenance")
	{
		maintenance.GET("/schedules", security.Authorize("staff"), h.listSchedules)
		maintenance.GET("/schedules/due", security.Authorize("staff"), h.listDue)
		maintenance.GET("/schedules/:id", security.Authorize("staff"), h.getSchedule)
		maintenance.POST("/schedules", security.Authorize("tech"), h.createSchedule)
		maintenance.PATCH("/schedules/:id", security.Authorize("tech"), h.updateSchedule)
		maintenance.POST("/schedules/:id/execute", security.Authorize("tech"), h.executePM)
		maintenance.POST("/logs", security.Authorize("tech"), h.recordManualMaintenance)
		maintenance.GET("/logs", security.Authorize("staff"), h.listMaintenanceLogs)
		maintenance.POST("/usage/:assetId", security.Authorize("staff"), h.advanceUsage)
	}
}

func (h *Handler) createSchedule(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	schedule, err := h.service.CreateSchedule(actorID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

func (h *Handler) updateSchedule(c *gin.Context) {
	actorID, scheduleID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	schedule, err := h.service.UpdateSchedule(actorID, scheduleID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) executePM(c *gin.Context) {
	actorID, scheduleID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	log, err := h.service.ExecutePM(actorID, scheduleID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, log)
}

func (h *Handler) recordManualMaintenance(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	var req ManualMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	log, err := h.service.RecordManualMaintenance(actorID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, log)
}

func (h *Handler) advanceUsage(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	assetID, err := strconv.Atoi(c.Param("assetId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	var req AdvanceUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	value, err := h.service.AdvanceUsage(actorID, assetID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "metric": req.Metric, "value": value})
}

func (h *Handler) listDue(c *gin.Context) {
	schedules, err := h.service.ListDue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list due schedules", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, schedules)
}

func (h *Handler) getSchedule(c *gin.Context) {
	scheduleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	schedule, err := h.service.GetSchedule(scheduleID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) listSchedules(c *gin.Context) {
	var assetID *int
	if id, err := strconv.Atoi(c.Query("asset_id")); err == nil {
		assetID = &id
	}

	schedules, err := h.service.ListSchedules(assetID, c.Query("active") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list schedules", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, schedules)
}

func (h *Handler) listMaintenanceLogs(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Query("asset_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid asset_id"})
		return
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	logs, err := h.service.ListMaintenanceLogs(assetID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list maintenance logs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, logs)
}

func (h *Handler) actorAndID(c *gin.Context) (int, int, bool) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return 0, 0, false
	}

	scheduleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return 0, 0, false
	}

	return actorID, scheduleID, true
}
