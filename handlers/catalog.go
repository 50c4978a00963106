package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/pageview"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

// ListProducts serves the storefront grid: the full catalog is fetched, then
// filtered, sorted, and paged locally so page numbers stay stable while the
// shopper narrows the view.
func (h *Handler) ListProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	products, err := h.api.Products(c.Request.Context())
	if err != nil {
		relayBackendError(c, err, "Failed to load products")
		return
	}

	view := pageview.New(products, productsPerPage)

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	category := strings.TrimSpace(c.Query("category"))
	minPrice, hasMin := parsePriceQuery(c.Query("minPrice"))
	maxPrice, hasMax := parsePriceQuery(c.Query("maxPrice"))
	if search != "" || (category != "" && category != "all") || hasMin || hasMax {
		view.Filter(func(p backend.Product) bool {
			if category != "" && category != "all" && !strings.EqualFold(p.Category, category) {
				return false
			}
			if hasMin && p.Price.LessThan(minPrice) {
				return false
			}
			if hasMax && maxPrice.LessThan(p.Price) {
				return false
			}
			if search == "" {
				return true
			}
			return strings.Contains(strings.ToLower(p.Name), search) ||
				strings.Contains(strings.ToLower(p.Description), search)
		})
	}

	// Page target is applied before sorting so an out-of-range page from a
	// stale pager link clamps instead of erroring.
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		view.Goto(page)
	}

	switch c.Query("sort") {
	case "price-asc":
		view.Sort(func(a, b backend.Product) bool { return a.Price.LessThan(b.Price) })
	case "price-desc":
		view.Sort(func(a, b backend.Product) bool { return b.Price.LessThan(a.Price) })
	case "name":
		view.Sort(func(a, b backend.Product) bool { return a.Name < b.Name })
	}

	page := view.Current()

	type listedProduct struct {
		backend.Product
		StockStatus string `json:"stockStatus"`
	}
	items := make([]listedProduct, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, listedProduct{Product: p, StockStatus: p.StockStatus()})
	}

	slog.Info("catalog served", slog.String(logkey.TraceID, traceId),
		slog.Int("Total", view.Len()), slog.Int("Page", page.Number))
	c.JSON(http.StatusOK, gin.H{
		"products":    items,
		"page":        page.Number,
		"pages":       page.Pages,
		"prevEnabled": page.PrevEnabled,
		"nextEnabled": page.NextEnabled,
		"total":       view.Len(),
	})
}

func parsePriceQuery(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (h *Handler) GetProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid product id", slog.String(logkey.TraceID, traceId), slog.String("ID", c.Param("id")))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID must be numeric"})
		return
	}

	product, err := h.api.Product(c.Request.Context(), id)
	if err != nil {
		relayBackendError(c, err, "Failed to load product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product":     product,
		"stockStatus": product.StockStatus(),
	})
}
