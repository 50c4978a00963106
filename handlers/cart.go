package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/cart"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/pricing"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

// GetCart returns the persisted cart plus running totals for the drawer. An
// empty basket gets the empty-state payload with no totals block, so the
// page never shows a shipping fee on nothing.
func (h *Handler) GetCart(c *gin.Context) {
	lines := h.carts.Load()
	if len(lines) == 0 {
		c.JSON(http.StatusOK, gin.H{"items": lines, "count": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":  lines,
		"count":  h.carts.Count(),
		"totals": cartTotals(lines, pricing.ShippingStandard),
	})
}

// ClearCart empties the basket on request, mirroring what a confirmed
// checkout does automatically.
func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if err := h.carts.Clear(); err != nil {
		slog.Error("clearing cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if req.ProductID <= 0 || req.Quantity <= 0 {
		slog.Error("invalid product id or quantity", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID and quantity must be valid"})
		return
	}

	// The catalog is the authority on price and stock, never the request.
	product, err := h.api.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		relayBackendError(c, err, "Failed to fetch product details")
		return
	}
	if req.Quantity > product.Stock {
		slog.Error("insufficient stock", slog.String(logkey.TraceID, traceId),
			slog.Int64("ProductID", req.ProductID), slog.Int("Requested", req.Quantity), slog.Int("Available", product.Stock))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Insufficient stock available"})
		return
	}

	lines, err := h.carts.Add(cart.Line{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		ImageURL:  product.ImageURL,
		Quantity:  req.Quantity,
	})
	if err != nil {
		slog.Error("error adding product to cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product to cart"})
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.Int64("ProductID", req.ProductID), slog.Int("Quantity", req.Quantity))
	c.JSON(http.StatusOK, gin.H{"items": lines, "count": h.carts.Count()})
}

// UpdateCartItem changes a line's quantity. The API-side cart is updated
// first; the local slot only moves when the API accepted the change.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID must be numeric"})
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if req.Quantity <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive"})
		return
	}

	if err := h.api.UpdateCartQuantity(c.Request.Context(), productID, req.Quantity); err != nil {
		relayBackendError(c, err, "Failed to update cart")
		return
	}

	lines, err := h.carts.SetQuantity(productID, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not in cart"})
			return
		}
		slog.Error("error updating cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": lines, "count": h.carts.Count()})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID must be numeric"})
		return
	}

	lines, err := h.carts.Remove(productID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not in cart"})
			return
		}
		slog.Error("error removing cart line", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": lines, "count": h.carts.Count()})
}

// BuyNow stages a single product for immediate checkout without touching the
// cart. The staged item lives in its own slot and is consumed by checkout.
func (h *Handler) BuyNow(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID must be numeric"})
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity <= 0 {
		req.Quantity = 1
	}

	product, err := h.api.Product(c.Request.Context(), productID)
	if err != nil {
		relayBackendError(c, err, "Failed to fetch product details")
		return
	}
	if req.Quantity > product.Stock {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Insufficient stock available"})
		return
	}

	staged := cart.Line{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		ImageURL:  product.ImageURL,
		Quantity:  req.Quantity,
	}
	if err := h.slots.Put(localstore.SlotBuyNow, staged); err != nil {
		slog.Error("staging buy-now item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to stage purchase"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": staged, "redirect": "/store/checkout"})
}

func cartTotals(lines []cart.Line, method pricing.ShippingMethod) pricing.Totals {
	items := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, pricing.Item{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	return pricing.Calculate(items, method)
}
