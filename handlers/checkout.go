package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/cart"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/orders"
	"storefront-gateway/internal/pricing"
	"storefront-gateway/middleware"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

type checkoutRequest struct {
	ContactNumber  string `json:"contactNumber" validate:"required"`
	Street         string `json:"street" validate:"required"`
	City           string `json:"city" validate:"required"`
	Province       string `json:"province" validate:"required"`
	Postal         string `json:"postal" validate:"required"`
	Country        string `json:"country"`
	Address        string `json:"address"`
	ShippingMethod string `json:"shippingMethod"`
}

// GetCheckout previews the order about to be placed. A staged buy-now item
// wins over the cart; an empty basket redirects back to the catalog.
func (h *Handler) GetCheckout(c *gin.Context) {
	lines, fromBuyNow := h.checkoutLines()
	if len(lines) == 0 {
		c.JSON(http.StatusOK, gin.H{"redirect": "/store/products", "reason": "Cart is empty"})
		return
	}

	method := pricing.ShippingMethod(c.DefaultQuery("shippingMethod", string(pricing.ShippingStandard)))
	from, to := orders.EstimateDelivery(time.Now())
	c.JSON(http.StatusOK, gin.H{
		"items":                 lines,
		"buyNow":                fromBuyNow,
		"totals":                cartTotals(lines, method),
		"shippingMethod":        method,
		"estimatedDeliveryFrom": from.Format("2006-01-02"),
		"estimatedDeliveryTo":   to.Format("2006-01-02"),
	})
}

// PlaceOrder submits the basket as an order. Only a confirmed submission
// clears the basket and lands in the local history.
func (h *Handler) PlaceOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	id, ok := middleware.IdentityFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	// A single free-form address is accepted in place of the structured
	// fields and split the same way the form does.
	if req.Address != "" && req.Street == "" {
		addr := orders.ParseAddress(req.Address)
		req.Street, req.City, req.Province = addr.Street, addr.City, addr.Province
		req.Postal, req.Country = addr.Postal, addr.Country
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	lines, fromBuyNow := h.checkoutLines()
	if len(lines) == 0 {
		c.JSON(http.StatusOK, gin.H{"redirect": "/store/products", "reason": "Cart is empty"})
		return
	}

	country := req.Country
	if country == "" {
		country = "Philippines"
	}
	method := pricing.ShippingMethod(req.ShippingMethod)
	if method != pricing.ShippingExpress {
		method = pricing.ShippingStandard
	}

	draft := orders.Draft{
		Customer:      id,
		ContactNumber: req.ContactNumber,
		Address: orders.ShippingAddress{
			Street:   req.Street,
			City:     req.City,
			Province: req.Province,
			Postal:   req.Postal,
			Country:  country,
		},
		ShippingMethod: method,
		PlacedAt:       time.Now(),
	}
	order := orders.BuildOrder(lines, draft)

	confirmed, err := h.submitter.Submit(c.Request.Context(), order)
	if err != nil {
		if errors.Is(err, orders.ErrSubmissionInFlight) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "An order is already being placed. Please wait."})
			return
		}
		relayBackendError(c, err, "Failed to place order")
		return
	}

	// The basket only empties once the API confirmed the order.
	if fromBuyNow {
		if err := h.slots.Delete(localstore.SlotBuyNow); err != nil {
			slog.Error("clearing buy-now slot", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	} else if err := h.carts.Clear(); err != nil {
		slog.Error("clearing cart after checkout", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	slog.Info("order placed", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", confirmed.OrderID), slog.Int64("CustomerID", id.ID))
	c.JSON(http.StatusCreated, gin.H{
		"order":    confirmed,
		"redirect": "/store/orders/" + confirmed.OrderID + "/confirmation",
	})
}

// checkoutLines picks what is being bought: the staged buy-now item when one
// exists, the cart otherwise.
func (h *Handler) checkoutLines() ([]cart.Line, bool) {
	var staged cart.Line
	if h.slots.Get(localstore.SlotBuyNow, &staged) && staged.ProductID != 0 {
		return []cart.Line{staged}, true
	}
	return h.carts.Load(), false
}
