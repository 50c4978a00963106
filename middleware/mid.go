// Package middleware carries the gateway's request-scoped plumbing: trace
// ids, request logging, and the session gates in front of shopper and admin
// routes.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/session"
	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

type Mid struct {
	sessions *session.Manager
	api      *backend.Client
	slots    *localstore.Store
}

func NewMid(sessions *session.Manager, api *backend.Client, slots *localstore.Store) *Mid {
	return &Mid{sessions: sessions, api: api, slots: slots}
}

// Authentication gates shopper routes. The signed cookie is checked first;
// when it is missing or stale the API is probed once, and a confirmed
// identity is re-cached so the next request skips the probe. Anything else
// is a 401 with a login redirect hint.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		if token, err := c.Cookie(session.ShopperCookie); err == nil {
			if id, err := m.sessions.Verify(token); err == nil {
				m.proceed(c, id)
				return
			}
		}

		info, err := m.api.Me(c.Request.Context())
		if err != nil {
			slog.Info("unauthenticated request",
				slog.String(logkey.TraceID, traceId), slog.String("PATH", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Unauthorized",
				"redirect": "/auth/login",
			})
			return
		}

		id := session.Identity{
			ID:        info.ID,
			FirstName: info.FirstName,
			LastName:  info.LastName,
			Email:     info.Email,
			Phone:     info.Phone,
			Role:      info.Role,
		}
		m.cacheIdentity(c, id, session.ShopperCookie, localstore.SlotCurrentUser, traceId)
		m.proceed(c, id)
	}
}

// AdminGate gates console routes. Only a valid admin cookie with the admin
// role gets through; there is no API fallback because the console login is
// an explicit step.
func (m *Mid) AdminGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		token, err := c.Cookie(session.AdminCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Unauthorized",
				"redirect": "/admin/login",
			})
			return
		}
		id, err := m.sessions.Verify(token)
		if err != nil {
			slog.Error("invalid admin session token",
				slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Unauthorized",
				"redirect": "/admin/login",
			})
			return
		}
		if id.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		m.proceed(c, id)
	}
}

func (m *Mid) proceed(c *gin.Context, id session.Identity) {
	ctx := session.WithIdentity(c.Request.Context(), id)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func (m *Mid) cacheIdentity(c *gin.Context, id session.Identity, cookie, slot, traceId string) {
	token, err := m.sessions.IssueToken(id)
	if err != nil {
		slog.Error("issuing session token",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	c.SetCookie(cookie, token, int(m.sessions.TTL().Seconds()), "/", "", false, true)
	if err := m.slots.Put(slot, id); err != nil {
		slog.Error("caching identity slot",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
}

// IdentityFromRequest is the handler-side accessor for the gated identity.
func IdentityFromRequest(c *gin.Context) (session.Identity, bool) {
	return session.IdentityFrom(c.Request.Context())
}
