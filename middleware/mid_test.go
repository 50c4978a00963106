package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newGatedRouter(t *testing.T, apiHandler http.Handler) (*gin.Engine, *session.Manager, *localstore.Store) {
	t.Helper()

	srv := httptest.NewServer(apiHandler)
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	slots, err := localstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	sessions, err := session.NewManager(testKey, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	m := NewMid(sessions, client, slots)
	r := gin.New()
	r.GET("/gated", m.Authentication(), func(c *gin.Context) {
		id, _ := IdentityFromRequest(c)
		c.JSON(http.StatusOK, gin.H{"email": id.Email})
	})
	r.GET("/admin-gated", m.AdminGate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, sessions, slots
}

func deniedAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func TestAuthenticationAcceptsValidCookie(t *testing.T) {
	r, sessions, _ := newGatedRouter(t, deniedAPI())

	token, err := sessions.IssueToken(session.Identity{ID: 7, Email: "maria@example.com", Role: "customer"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.AddCookie(&http.Cookie{Name: session.ShopperCookie, Value: token})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAuthenticationRejectsAnonymous(t *testing.T) {
	r, _, _ := newGatedRouter(t, deniedAPI())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthenticationFallsBackToAPIProbe(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":9,"firstName":"Juan","email":"juan@example.com","role":"customer"}`))
	})
	r, _, slots := newGatedRouter(t, api)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	// The probe result is re-cached locally for the next request.
	var cached session.Identity
	if !slots.Get(localstore.SlotCurrentUser, &cached) || cached.ID != 9 {
		t.Errorf("cached identity = %+v", cached)
	}
}

func TestAdminGateRejectsShopperToken(t *testing.T) {
	r, sessions, _ := newGatedRouter(t, deniedAPI())

	token, err := sessions.IssueToken(session.Identity{ID: 7, Role: "customer"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin-gated", nil)
	req.AddCookie(&http.Cookie{Name: session.AdminCookie, Value: token})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestAdminGateAcceptsAdminToken(t *testing.T) {
	r, sessions, _ := newGatedRouter(t, deniedAPI())

	token, err := sessions.IssueToken(session.Identity{ID: 1, Role: "admin"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin-gated", nil)
	req.AddCookie(&http.Cookie{Name: session.AdminCookie, Value: token})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}
