package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/stockbill/backend/internal/application/inventory"
)

// ProductHandler handles product catalog API endpoints
type ProductHandler struct {
	BaseHandler
	productService *inventoryapp.ProductService
	batchService   *inventoryapp.BatchService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *inventoryapp.ProductService, batchService *inventoryapp.BatchService) *ProductHandler {
	return &ProductHandler{productService: productService, batchService: batchService}
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.Create)
		products.GET("", h.List)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.DELETE("/:id", h.Delete)
		products.POST("/:id/reconcile", h.Reconcile)
		products.GET("/:id/batches", h.ListBatches)
		products.GET("/:id/batches/available", h.ListAvailableBatches)
		products.GET("/:id/batches/oldest", h.OldestBatch)
	}
}

// Create creates a product
func (h *ProductHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Get retrieves a product by ID
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List retrieves products matching the filter
func (h *ProductHandler) List(c *gin.Context) {
	var filter inventoryapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	page, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update changes a product's name, price and reorder level
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req inventoryapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete removes a product without stock or batch history
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Reconcile recomputes the product's cached quantity from its batches
func (h *ProductHandler) Reconcile(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	product, err := h.productService.Reconcile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListBatches lists all batches of a product in FIFO order
func (h *ProductHandler) ListBatches(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	batches, err := h.batchService.ListByProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// OldestBatch returns the batch the next sale would draw from
func (h *ProductHandler) OldestBatch(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	batch, err := h.batchService.Oldest(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// ListAvailableBatches lists batches with remaining stock in FIFO order
func (h *ProductHandler) ListAvailableBatches(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	batches, err := h.batchService.ListAvailable(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}
