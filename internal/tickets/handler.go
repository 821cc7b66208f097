package tickets

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
	tickets := router.Group("/tickets")
	{
		tickets.GET("", security.Authorize("staff"), h.listTickets)
		tickets.GET("/:id", security.Authorize("staff"), h.getTicket)
		tickets.POST("", security.Authorize("staff"), h.createTicket)
		tickets.PATCH("/:id/status", security.Authorize("tech"), h.changeStatus)
		tickets.POST("/:id/assign", security.Authorize("tech"), h.assignTicket)
		tickets.POST("/:id/resolve", security.Authorize("tech"), h.resolveTicket)
		tickets.POST("/:id/cancel", security.Authorize("tech"), h.cancelTicket)
	}
}

func (h *Handler) createTicket(c *gin.Context) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return
	}

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	ticket, err := h.service.CreateTicket(actorID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

func (h *Handler) changeStatus(c *gin.Context) {
	actorID, ticketID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	ticket, err := h.service.ChangeStatus(actorID, ticketID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *Handler) assignTicket(c *gin.Context) {
	actorID, ticketID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	ticket, err := h.service.AssignTicket(actorID, ticketID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *Handler) resolveTicket(c *gin.Context) {
	actorID, ticketID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	ticket, err := h.service.ResolveTicket(actorID, ticketID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *Handler) cancelTicket(c *gin.Context) {
	actorID, ticketID, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	ticket, err := h.service.CancelTicket(actorID, ticketID, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *Handler) getTicket(c *gin.Context) {
	ticketID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	ticket, err := h.service.GetTicket(ticketID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *Handler) listTickets(c *gin.Context) {
	filter := ListFilter{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}

	if assigneeID, err := strconv.Atoi(c.Query("assigned_to")); err == nil {
		filter.AssignedTo = &assigneeID
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

	tickets, err := h.service.ListTickets(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list tickets", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tickets)
}

func (h *Handler) actorAndID(c *gin.Context) (int, int, bool) {
	actorID, err := security.ActorID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve actor"})
		return 0, 0, false
	}

	ticketID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return 0, 0, false
	}

	return actorID, ticketID, true
}
