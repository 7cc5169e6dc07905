package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/stockbill/backend/internal/application/inventory"
)

// BatchHandler handles goods receipt and batch lookup API endpoints
type BatchHandler struct {
	BaseHandler
	batchService *inventoryapp.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *inventoryapp.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// RegisterRoutes registers batch routes
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/batches")
	{
		batches.POST("/receipts", h.Receive)
		batches.GET("/:id", h.Get)
	}
}

// Receive records a goods receipt
func (h *BatchHandler) Receive(c *gin.Context) {
	var req inventoryapp.GoodsReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	receipt, err := h.batchService.Receive(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// Get retrieves a batch by ID
func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	batch, err := h.batchService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}
