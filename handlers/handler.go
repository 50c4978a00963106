// Package handlers exposes the storefront and admin console over HTTP and
// wires every route to the local stores and the commerce API client.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/cart"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/orders"
	"storefront-gateway/internal/session"
	"storefront-gateway/middleware"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

// Listing page sizes match what the storefront grid and the console table
// render per page.
const (
	productsPerPage  = 4
	customersPerPage = 5
	ordersPerPage    = 5
)

type Handler struct {
	api       *backend.Client
	carts     *cart.Store
	slots     *localstore.Store
	sessions  *session.Manager
	submitter *orders.Submitter
	history   *orders.History
	validate  *validator.Validate
}

func NewHandler(api *backend.Client, slots *localstore.Store, sessions *session.Manager) *Handler {
	history := orders.NewHistory(slots)
	return &Handler{
		api:       api,
		carts:     cart.NewStore(slots),
		slots:     slots,
		sessions:  sessions,
		submitter: orders.NewSubmitter(api, history),
		history:   history,
		validate:  validator.New(),
	}
}

func API(api *backend.Client, slots *localstore.Store, sessions *session.Manager) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m := middleware.NewMid(sessions, api, slots)
	h := NewHandler(api, slots, sessions)

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}

	store := r.Group("/store")
	{
		store.GET("/products", h.ListProducts)
		store.GET("/products/:id", h.GetProduct)

		gated := store.Group("")
		gated.Use(m.Authentication())
		{
			gated.GET("/profile", h.Profile)

			gated.GET("/cart", h.GetCart)
			gated.DELETE("/cart", h.ClearCart)
			gated.POST("/cart/items", h.AddCartItem)
			gated.PUT("/cart/items/:id", h.UpdateCartItem)
			gated.DELETE("/cart/items/:id", h.RemoveCartItem)
			gated.POST("/buy-now/:id", h.BuyNow)

			gated.GET("/checkout", h.GetCheckout)
			gated.POST("/checkout", h.PlaceOrder)

			gated.GET("/orders", h.MyOrders)
			gated.GET("/orders/:id/confirmation", h.OrderConfirmation)
		}
	}

	admin := r.Group("/admin")
	{
		admin.POST("/login", h.AdminLogin)
		admin.POST("/logout", h.AdminLogout)

		gated := admin.Group("")
		gated.Use(m.AdminGate())
		{
			gated.GET("/customers", h.ListCustomers)
			gated.PATCH("/customers/:id/block", h.BlockCustomer)
			gated.PATCH("/customers/:id/unblock", h.UnblockCustomer)
			gated.DELETE("/customers/:id", h.DeleteCustomer)

			gated.GET("/orders", h.ListOrders)
			gated.PATCH("/orders/:id/status", h.UpdateOrderStatus)

			gated.GET("/inventory", h.ListInventory)
			gated.GET("/inventory/stats", h.InventoryStats)
			gated.GET("/inventory/export", h.ExportInventory)
			gated.POST("/inventory", h.CreateProduct)
			gated.PUT("/inventory/:id", h.UpdateProduct)
			gated.DELETE("/inventory/:id", h.DeleteProduct)
			gated.POST("/inventory/upload", h.UploadImage)
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// relayBackendError turns a client error into the response the browser
// expects: 503 when the API is unreachable, the API's own verdict when it
// answered with an error, 500 otherwise.
func relayBackendError(c *gin.Context, err error, fallback string) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if errors.Is(err, backend.ErrUnavailable) {
		slog.Error("commerce api unreachable",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service is temporarily unavailable"})
		return
	}
	if se, ok := backend.AsStatusError(err); ok {
		slog.Error("commerce api refused request",
			slog.String(logkey.TraceID, traceId), slog.Int("STATUS", se.Code), slog.String(logkey.ERROR, se.Body))
		msg := fallback
		switch se.Code {
		case http.StatusForbidden:
			msg = "Account is blocked. Please contact support."
		case http.StatusNotFound:
			msg = "Not found"
		case http.StatusConflict:
			msg = "Request conflicts with current state"
		}
		c.AbortWithStatusJSON(se.Code, gin.H{"error": msg})
		return
	}
	slog.Error("backend call failed",
		slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// validationMessage walks validator errors the way the forms report them,
// surfacing the first broken field.
func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			switch vErr.Tag() {
			case "required":
				return vErr.Field() + " value missing"
			case "email":
				return vErr.Field() + " must be a valid email"
			case "min":
				return vErr.Field() + " value is less than " + vErr.Param()
			default:
				return vErr.Field() + " is invalid"
			}
		}
	}
	return http.StatusText(http.StatusBadRequest)
}
