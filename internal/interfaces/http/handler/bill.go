package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/stockbill/backend/internal/application/billing"
)

// IdempotencyKeyHeader carries the client-chosen key that makes bill creation
// safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// BillHandler handles bill-related API endpoints
type BillHandler struct {
	BaseHandler
	billService *billingapp.BillService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *billingapp.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// RegisterRoutes registers bill routes
func (h *BillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bills := rg.Group("/bills")
	{
		bills.POST("", h.Create)
		bills.GET("", h.List)
		bills.GET("/:id", h.Get)
		bills.GET("/number/:number", h.GetByNumber)
		bills.PUT("/:id", h.Update)
		bills.DELETE("/:id", h.Delete)
	}
}

// Create creates a bill, allocating stock and posting the customer's due.
// A repeated Idempotency-Key returns the originally created bill.
func (h *BillHandler) Create(c *gin.Context) {
	var req billingapp.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	bill, err := h.billService.Create(c.Request.Context(), req, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// Get retrieves a bill by ID
func (h *BillHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	bill, err := h.billService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// GetByNumber retrieves a bill by its human-readable number
func (h *BillHandler) GetByNumber(c *gin.Context) {
	bill, err := h.billService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// List retrieves bills matching the filter
func (h *BillHandler) List(c *gin.Context) {
	var filter billingapp.BillListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	page, err := h.billService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update rewrites a bill's lines, reconciling stock and the customer balance
func (h *BillHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req billingapp.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	bill, err := h.billService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Delete voids a bill, restoring stock and reversing the customer's due
func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.billService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, "deleted": true})
}
