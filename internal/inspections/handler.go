package inspections

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
	inspections := router.Group("/inspections")
	{
		inspections.GET("", security.Authorize("staff"), h.listInspections)
		inspections.GET("/:id", security.Authorize("staff"), h.getInspection)
		inspections.POST("", security.Authorize("staff"), h.createInspection)
		inspections.PATCH("/:id", security.Authorize("staff"), h.updateInspection)
		inspections.DELETE("/:id", security.Authorize("admin"), h.deleteInspection)

		inspections.POST("/:id/assess", security.Authorize("tech"), h.assessDamage)
		inspections.POST("/:id/repair/start", security.Authorize("tech"), h.startRepair)
		inspections.POST("/:id/repair/progress", security.Authorize("tech"), h.updateRepairProgress)
		inspections.POST("/:id/repair/complete", security.Authorize("tech"), h.completeRepair)
		inspections.POST("/:id/repair/unrepairable", security.Authorize("tech"), h.markUnrepairable)
		inspections.POST("/:id/repair/accept", security.Authorize("tech"), h.acceptDamageAsIs)
	}
}

func (h *Handler) createInspection(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	var req CreateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.CreateInspection(actorID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, inspection)
}

func (h *Handler) updateInspection(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req UpdateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.UpdateInspection(actorID, inspectionID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) assessDamage(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req AssessDamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.AssessDamage(actorID, inspectionID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) startRepair(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req StartRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.StartRepair(actorID, inspectionID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) updateRepairProgress(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req RepairProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.UpdateRepairProgress(actorID, inspectionID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) completeRepair(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req CompleteRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.CompleteRepair(actorID, inspectionID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) markUnrepairable(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req UnrepairableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.MarkUnrepairable(actorID, inspectionID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) acceptDamageAsIs(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req AcceptAsIsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	inspection, err := h.service.AcceptDamageAsIs(actorID, inspectionID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) deleteInspection(c *gin.Context) {
	actorID, inspectionID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteInspection(actorID, inspectionID); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Inspection deleted"})
}

func (h *Handler) getInspection(c *gin.Context) {
	inspectionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inspection ID"})
		return
	}

	inspection, err := h.service.GetInspection(inspectionID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

func (h *Handler) listInspections(c *gin.Context) {
	filter := ListFilter{DamageOnly: c.Query("damage") == "true"}

	if assetID, err := strconv.Atoi(c.Query("asset_id")); err == nil {
		filter.AssetID = &assetID
	}
	if assignmentID, err := strconv.Atoi(c.Query("assignment_id")); err == nil {
		filter.AssignmentID = &assignmentID
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	filter.Limit = limit
	filter.Offset = offset

	inspections, err := h.service.ListInspections(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list inspections", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspections)
}

func (h *Handler) actorAndID(c *gin.Context) (int, int, bool) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return 0, 0, false
	}

	inspectionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inspection ID"})
		return 0, 0, false
	}

	return actorID, inspectionID, true
}
