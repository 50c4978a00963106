package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/middleware"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

// MyOrders lists the customer's orders. The API is authoritative; the local
// history only answers when the API cannot.
func (h *Handler) MyOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	id, ok := middleware.IdentityFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	serverOrders, err := h.api.CustomerOrders(c.Request.Context(), id.ID)
	if err != nil {
		slog.Error("falling back to cached order history",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusOK, gin.H{"orders": h.history.ForCustomer(id.ID), "cached": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": serverOrders, "cached": false})
}

// OrderConfirmation shows the receipt for one order the customer just
// placed. The local cache answers first since the order was written there on
// confirmation; the API covers history from other devices.
func (h *Handler) OrderConfirmation(c *gin.Context) {
	id, ok := middleware.IdentityFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	orderID := c.Param("id")

	if o, found := h.history.Find(orderID); found && o.CustomerID == id.ID {
		c.JSON(http.StatusOK, gin.H{"order": o})
		return
	}

	serverOrders, err := h.api.CustomerOrders(c.Request.Context(), id.ID)
	if err != nil {
		relayBackendError(c, err, "Failed to load order")
		return
	}
	for _, o := range serverOrders {
		if o.OrderID == orderID {
			c.JSON(http.StatusOK, gin.H{"order": o})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
}
