package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/orders"
	"storefront-gateway/internal/pageview"
	"storefront-gateway/internal/session"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

func (h *Handler) AdminLogin(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	info, err := h.api.AdminLogin(c.Request.Context(), backend.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		relayBackendError(c, err, "Invalid admin credentials")
		return
	}

	id := session.Identity{
		ID:        info.ID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Email:     info.Email,
		Phone:     info.Phone,
		Role:      "admin",
	}
	token, err := h.sessions.IssueToken(id)
	if err != nil {
		slog.Error("issuing admin token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	c.SetCookie(session.AdminCookie, token, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	if err := h.slots.Put(localstore.SlotAdminLoggedIn, true); err != nil {
		slog.Error("caching admin flag", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
	if err := h.slots.Put(localstore.SlotAdminUser, id); err != nil {
		slog.Error("caching admin slot", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	slog.Info("admin logged in", slog.String(logkey.TraceID, traceId), slog.Int64("AdminID", id.ID))
	c.JSON(http.StatusOK, id)
}

func (h *Handler) AdminLogout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	c.SetCookie(session.AdminCookie, "", -1, "/", "", false, true)
	if err := h.slots.Delete(localstore.SlotAdminLoggedIn); err != nil {
		slog.Error("clearing admin flag", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
	if err := h.slots.Delete(localstore.SlotAdminUser); err != nil {
		slog.Error("clearing admin slot", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ListCustomers serves the console's customer table, paged and searchable.
// Successful fetches refresh the local cache; when the API is unreachable
// the cache answers so the console stays usable read-only.
func (h *Handler) ListCustomers(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	cached := false
	customers, err := h.api.Customers(c.Request.Context())
	if err != nil {
		var fallback []backend.Customer
		if !h.slots.Get(localstore.SlotUsers, &fallback) {
			relayBackendError(c, err, "Failed to load customers")
			return
		}
		slog.Error("serving cached customer list",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		customers, cached = fallback, true
	} else if err := h.slots.Put(localstore.SlotUsers, customers); err != nil {
		slog.Error("caching customer list",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	view := pageview.New(customers, customersPerPage)

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		view.Filter(func(cu backend.Customer) bool {
			return strings.Contains(strings.ToLower(cu.FirstName+" "+cu.LastName), search) ||
				strings.Contains(strings.ToLower(cu.Email), search)
		})
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		view.Goto(page)
	}

	page := view.Current()

	// The orders column counts only completed purchases (a status-less order
	// reads as completed), while spend sums everything the customer paid.
	type customerRow struct {
		backend.Customer
		TotalOrders int             `json:"totalOrders"`
		TotalSpent  decimal.Decimal `json:"totalSpent"`
	}
	rows := make([]customerRow, 0, len(page.Items))
	for _, cu := range page.Items {
		completed := 0
		spent := decimal.Zero
		for _, o := range cu.Orders {
			if isCompletedStatus(o.Status) {
				completed++
			}
			spent = spent.Add(o.Total)
		}
		rows = append(rows, customerRow{Customer: cu, TotalOrders: completed, TotalSpent: spent.Round(2)})
	}

	c.JSON(http.StatusOK, gin.H{
		"customers":   rows,
		"page":        page.Number,
		"pages":       page.Pages,
		"prevEnabled": page.PrevEnabled,
		"nextEnabled": page.NextEnabled,
		"total":       view.Len(),
		"cached":      cached,
	})
}

func (h *Handler) BlockCustomer(c *gin.Context) {
	h.customerAction(c, h.api.BlockCustomer, "blocked")
}

func (h *Handler) UnblockCustomer(c *gin.Context) {
	h.customerAction(c, h.api.UnblockCustomer, "unblocked")
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	h.customerAction(c, h.api.DeleteCustomer, "deleted")
}

func (h *Handler) customerAction(c *gin.Context, do func(ctx context.Context, id int64) error, verb string) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Customer ID must be numeric"})
		return
	}
	if err := do(c.Request.Context(), id); err != nil {
		relayBackendError(c, err, "Failed to update customer")
		return
	}
	slog.Info("customer "+verb, slog.String(logkey.TraceID, traceId), slog.Int64("CustomerID", id))
	c.Status(http.StatusNoContent)
}

// ListOrders serves the console's order table with free-text search, status
// filter, and an order-date window. The API exposes no standalone order
// listing; the table is assembled from the order list embedded in each
// customer record, falling back to the cached customer slot when the API is
// down.
func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	customers, err := h.api.Customers(c.Request.Context())
	if err != nil {
		var fallback []backend.Customer
		if !h.slots.Get(localstore.SlotUsers, &fallback) {
			relayBackendError(c, err, "Failed to load orders")
			return
		}
		slog.Error("serving orders from cached customer list",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		customers = fallback
	}
	all := flattenCustomerOrders(customers)

	view := pageview.New(all, ordersPerPage)

	search := c.Query("search")
	status := strings.TrimSpace(c.Query("status"))
	from := parseDateQuery(c.Query("from"))
	to := parseDateQuery(c.Query("to"))
	if !to.IsZero() {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	if search != "" || status != "" || !from.IsZero() || !to.IsZero() {
		view.Filter(func(o backend.Order) bool {
			if status != "" && !strings.EqualFold(o.Status, status) {
				return false
			}
			return orders.MatchesSearch(o, search) && orders.WithinWindow(o, from, to)
		})
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		view.Goto(page)
	}

	page := view.Current()
	c.JSON(http.StatusOK, gin.H{
		"orders":      page.Items,
		"page":        page.Number,
		"pages":       page.Pages,
		"prevEnabled": page.PrevEnabled,
		"nextEnabled": page.NextEnabled,
		"total":       view.Len(),
	})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	orderID := c.Param("id")
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	switch req.Status {
	case backend.StatusPending, backend.StatusShipped, backend.StatusDelivered, backend.StatusCancelled:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
		return
	}

	if err := h.api.UpdateOrderStatus(c.Request.Context(), orderID, req.Status); err != nil {
		relayBackendError(c, err, "Failed to update order status")
		return
	}
	slog.Info("order status updated", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", orderID), slog.String("Status", req.Status))
	c.JSON(http.StatusOK, gin.H{"orderId": orderID, "status": req.Status})
}

// flattenCustomerOrders collects every embedded order, stamping in the
// owning customer's identity where the order document leaves it blank, and
// sorts newest first.
func flattenCustomerOrders(customers []backend.Customer) []backend.Order {
	var all []backend.Order
	for _, cu := range customers {
		for _, o := range cu.Orders {
			if o.CustomerID == 0 {
				o.CustomerID = cu.ID
			}
			if o.CustomerName == "" {
				o.CustomerName = strings.TrimSpace(cu.FirstName + " " + cu.LastName)
			}
			if o.Email == "" {
				o.Email = cu.Email
			}
			all = append(all, o)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].OrderDate > all[j].OrderDate })
	return all
}

// isCompletedStatus reports whether an order counts as a finished purchase.
// Older order documents carry no status at all and read as completed.
func isCompletedStatus(status string) bool {
	return status == "" ||
		strings.EqualFold(status, "completed") ||
		strings.EqualFold(status, backend.StatusDelivered)
}

func parseDateQuery(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
