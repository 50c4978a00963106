package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/session"
	"storefront-gateway/middleware"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req registerRequest
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

	info, err := h.api.Register(c.Request.Context(), backend.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		relayBackendError(c, err, "Registration failed")
		return
	}

	h.startSession(c, info, traceId)
	c.JSON(http.StatusCreated, info)
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req loginRequest
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

	info, err := h.api.Login(c.Request.Context(), backend.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		relayBackendError(c, err, "Invalid email or password")
		return
	}

	h.startSession(c, info, traceId)
	slog.Info("user logged in", slog.String(logkey.TraceID, traceId), slog.Int64("UserID", info.ID))
	c.JSON(http.StatusOK, info)
}

func (h *Handler) Logout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	c.SetCookie(session.ShopperCookie, "", -1, "/", "", false, true)
	if err := h.slots.Delete(localstore.SlotCurrentUser); err != nil {
		slog.Error("clearing user slot", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
	// The cart and buy-now item are session-scoped state too.
	if err := h.carts.Clear(); err != nil {
		slog.Error("clearing cart slot", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
	if err := h.slots.Delete(localstore.SlotBuyNow); err != nil {
		slog.Error("clearing buy-now slot", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me reports the locally cached identity without hitting the API. Browsers
// poll this on every page to draw the header.
func (h *Handler) Me(c *gin.Context) {
	if token, err := c.Cookie(session.ShopperCookie); err == nil {
		if id, err := h.sessions.Verify(token); err == nil {
			c.JSON(http.StatusOK, id)
			return
		}
	}
	var id session.Identity
	if h.slots.Get(localstore.SlotCurrentUser, &id) && id.ID != 0 {
		c.JSON(http.StatusOK, id)
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
}

// Profile is the gated variant: identity plus order count for the account
// page.
func (h *Handler) Profile(c *gin.Context) {
	id, ok := middleware.IdentityFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	serverOrders, err := h.api.CustomerOrders(c.Request.Context(), id.ID)
	if err != nil {
		// Fall back to the local cache when the API is down.
		serverOrders = h.history.ForCustomer(id.ID)
	}
	c.JSON(http.StatusOK, gin.H{
		"user":       id,
		"orderCount": len(serverOrders),
	})
}

func (h *Handler) startSession(c *gin.Context, info backend.UserInfo, traceId string) {
	id := session.Identity{
		ID:        info.ID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Email:     info.Email,
		Phone:     info.Phone,
		Role:      info.Role,
	}
	token, err := h.sessions.IssueToken(id)
	if err != nil {
		slog.Error("issuing session token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	c.SetCookie(session.ShopperCookie, token, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	if err := h.slots.Put(localstore.SlotCurrentUser, id); err != nil {
		slog.Error("caching user slot", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
}
