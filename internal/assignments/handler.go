package assignments

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
	assignments := router.Group("/assignments")
	{
		assignments.GET("", security.Authorize("staff"), h.listAssignments)
		assignments.GET("/:id", security.Authorize("staff"), h.getAssignment)
		assignments.POST("", security.Authorize("staff"), h.createAssignment)
		assignments.POST("/:id/borrows", security.Authorize("staff"), h.createBorrowTransaction)
		assignments.POST("/:id/returns", security.Authorize("staff"), h.createReturnTransaction)
		assignments.POST("/:id/close", security.Authorize("staff"), h.closeAssignment)
	}
}

func (h *Handler) createAssignment(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	assignment, err := h.service.CreateAssignment(actorID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

func (h *Handler) createBorrowTransaction(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	transaction, err := h.service.CreateBorrowTransaction(actorID, assignmentID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *Handler) createReturnTransaction(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	transaction, err := h.service.CreateReturnTransaction(actorID, assignmentID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *Handler) closeAssignment(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if err := h.service.CloseAssignment(actorID, assignmentID, req); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Assignment closed"})
}

func (h *Handler) getAssignment(c *gin.Context) {
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	assignment, err := h.service.GetAssignment(assignmentID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *Handler) listAssignments(c *gin.Context) {
	status := c.Query("status")
	limit, offset := paginationParams(c)

	assignments, err := h.service.ListAssignments(status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list assignments", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assignments)
}

func paginationParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return limit, offset
}
