// Package session signs and verifies the gateway's own session cookies.
// The backend remains the authority on who a user is; these tokens only
// cache an identity the backend already confirmed, so a stale cookie can
// never mint access the backend would refuse.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Cookie names for the two independent login tracks.
const (
	ShopperCookie = "storefront_session"
	AdminCookie   = "admin_session"
)

// Identity is the locally cached view of a logged-in user.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

func (i Identity) FullName() string {
	return i.FirstName + " " + i.LastName
}

type Claims struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	signKey []byte
	ttl     time.Duration
}

func NewManager(signKey []byte, ttl time.Duration) (*Manager, error) {
	if len(signKey) < 32 {
		return nil, fmt.Errorf("session: signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{signKey: signKey, ttl: ttl}, nil
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// IssueToken mints a signed token carrying the identity.
func (m *Manager) IssueToken(id Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Email:     id.Email,
		Phone:     id.Phone,
		Role:      id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", id.ID),
			Issuer:    "storefront-gateway",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and rebuilds the identity it carries.
func (m *Manager) Verify(tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.signKey, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("session: parsing token: %w", err)
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("session: invalid token")
	}

	var id int64
	fmt.Sscanf(claims.Subject, "%d", &id)
	return Identity{
		ID:        id,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
		Phone:     claims.Phone,
		Role:      claims.Role,
	}, nil
}
