package handlers

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-gateway/internal/backend"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

const maxUploadBytes = 5 << 20

type productRequest struct {
	Name           string            `json:"name" validate:"required"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price" validate:"required"`
	Category       string            `json:"category" validate:"required"`
	Stock          int               `json:"stock" validate:"min=0"`
	ImageURL       string            `json:"imageUrl"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
}

// ListInventory is the console's product table: the whole catalog with stock
// badges, unpaged since the console renders its own table controls.
func (h *Handler) ListInventory(c *gin.Context) {
	products, err := h.api.Products(c.Request.Context())
	if err != nil {
		relayBackendError(c, err, "Failed to load inventory")
		return
	}

	type row struct {
		backend.Product
		StockStatus string `json:"stockStatus"`
	}
	rows := make([]row, 0, len(products))
	for _, p := range products {
		rows = append(rows, row{Product: p, StockStatus: p.StockStatus()})
	}
	c.JSON(http.StatusOK, gin.H{"products": rows, "total": len(rows)})
}

// InventoryStats summarizes the catalog for the console dashboard cards.
func (h *Handler) InventoryStats(c *gin.Context) {
	products, err := h.api.Products(c.Request.Context())
	if err != nil {
		relayBackendError(c, err, "Failed to load inventory")
		return
	}

	var outOfStock, lowStock int
	stockValue := decimal.Zero
	for _, p := range products {
		switch p.StockStatus() {
		case "out-of-stock":
			outOfStock++
		case "low-stock":
			lowStock++
		}
		if p.Stock > 0 {
			stockValue = stockValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"totalProducts": len(products),
		"outOfStock":    outOfStock,
		"lowStock":      lowStock,
		"stockValue":    stockValue.Round(2),
	})
}

// ExportInventory streams the catalog as CSV for offline bookkeeping.
func (h *Handler) ExportInventory(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	products, err := h.api.Products(c.Request.Context())
	if err != nil {
		relayBackendError(c, err, "Failed to load inventory")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="inventory.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "name", "category", "price", "stock", "status"})
	for _, p := range products {
		_ = w.Write([]string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Category,
			p.Price.StringFixed(2),
			strconv.Itoa(p.Stock),
			p.StockStatus(),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		slog.Error("writing inventory csv", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
}

func (h *Handler) CreateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId),
			slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	created, err := h.api.CreateProduct(c.Request.Context(), backend.Product{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		Stock:          req.Stock,
		ImageURL:       req.ImageURL,
		Features:       req.Features,
		Specifications: req.Specifications,
	})
	if err != nil {
		relayBackendError(c, err, "Product creation failed")
		return
	}
	slog.Info("product created", slog.String(logkey.TraceID, traceId), slog.Int64("ProductID", created.ID))
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID must be numeric"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	updated, err := h.api.UpdateProduct(c.Request.Context(), backend.Product{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		Stock:          req.Stock,
		ImageURL:       req.ImageURL,
		Features:       req.Features,
		Specifications: req.Specifications,
	})
	if err != nil {
		relayBackendError(c, err, "Product update failed")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID must be numeric"})
		return
	}
	if err := h.api.DeleteProduct(c.Request.Context(), id); err != nil {
		relayBackendError(c, err, "Product deletion failed")
		return
	}
	slog.Info("product deleted", slog.String(logkey.TraceID, traceId), slog.Int64("ProductID", id))
	c.Status(http.StatusNoContent)
}

// UploadImage relays a product image to the API's upload endpoint and hands
// back the stored URL for the product form.
func (h *Handler) UploadImage(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > maxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image exceeds the 5 MB limit"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		slog.Error("missing upload file", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "An image file is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		slog.Error("opening upload file", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}
	defer f.Close()

	url, err := h.api.Upload(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		relayBackendError(c, err, "Image upload failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
