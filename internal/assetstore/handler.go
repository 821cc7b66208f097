package assetstore

import (
	"net/http"
	"strconv"

	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/models"
	"assetdesk/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterAssetRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Category   string `json:"category" binding:"required"`
	Condition  string `json:"condition,omitempty"`
	StockTotal int    `json:"stock_total,omitempty"`
}

type Handler struct {
	repository *AssetRepository
}

func NewHandler(r *AssetRepository) *Handler {
	return &Handler{repository: r}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	assets := router.Group("/assets")
	{
		assets.GET("", security.Authorize("staff"), h.listAssets)
		assets.GET("/:id", security.Authorize("staff"), h.getAsset)
		assets.POST("", security.Authorize("admin"), h.registerAsset)
	}
}

func (h *Handler) registerAsset(c *gin.Context) {
	var req RegisterAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if req.Category != models.AssetCategoryIT && req.Category != models.AssetCategoryFM {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category must be 'it' or 'fm'"})
		return
	}

	if req.Condition == "" {
		req.Condition = "good"
	}
	if req.StockTotal < 1 {
		req.StockTotal = 1
	}

	asset := models.Asset{
		Code:           req.Code,
		Name:           req.Name,
		Category:       req.Category,
		Condition:      req.Condition,
		Status:         models.AssetStatusAvailable,
		StockTotal:     req.StockTotal,
		StockAvailable: req.StockTotal,
		QRPayload:      uuid.NewString(),
	}

	assetID, err := h.repository.InsertAsset(asset)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	asset.ID = assetID

	c.JSON(http.StatusCreated, asset)
}

func (h *Handler) getAsset(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	asset, err := h.repository.GetAsset(assetID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *Handler) listAssets(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	assets, err := h.repository.ListAssets(c.Query("status"), c.Query("category"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list assets", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assets)
}
