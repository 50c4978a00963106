// Package orders assembles order documents from the local cart, submits them
// to the commerce API, and maintains the device-local order history cache.
package orders

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/cart"
	"storefront-gateway/internal/pricing"
	"storefront-gateway/internal/session"
)

const idLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID mints a display id like ORD483920XKQZ: the last six digits of
// the unix-milli clock plus four random letters. Collisions within the same
// millisecond are possible in principle; the API's own key is authoritative.
func NewOrderID() string {
	ms := time.Now().UnixMilli() % 1_000_000
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = idLetters[rand.Intn(len(idLetters))]
	}
	return fmt.Sprintf("ORD%06d%s", ms, suffix)
}

// EstimateDelivery returns the shipping window: three to five days out from
// the order date. The bounds are computed independently from the same
// anchor, never derived from each other.
func EstimateDelivery(placedAt time.Time) (from, to time.Time) {
	from = placedAt.AddDate(0, 0, 3)
	to = placedAt.AddDate(0, 0, 5)
	return from, to
}

// ShippingAddress is the structured form collected at checkout.
type ShippingAddress struct {
	Street   string `json:"street" validate:"required"`
	City     string `json:"city" validate:"required"`
	Province string `json:"province" validate:"required"`
	Postal   string `json:"postal" validate:"required"`
	Country  string `json:"country"`
}

// ParseAddress splits a free-form comma-separated address into its parts.
// Missing trailing parts stay empty and the country defaults to Philippines.
func ParseAddress(raw string) ShippingAddress {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	addr := ShippingAddress{
		Street:   get(0),
		City:     get(1),
		Province: get(2),
		Postal:   get(3),
		Country:  get(4),
	}
	if addr.Country == "" {
		addr.Country = "Philippines"
	}
	return addr
}

// Draft is everything needed to build an order besides the cart itself.
type Draft struct {
	Customer       session.Identity
	ContactNumber  string
	Address        ShippingAddress
	ShippingMethod pricing.ShippingMethod
	PlacedAt       time.Time
}

// BuildOrder turns cart lines plus checkout details into the order document
// the API accepts. Totals are computed here, not trusted from the client.
func BuildOrder(lines []cart.Line, d Draft) backend.Order {
	items := make([]backend.OrderItem, 0, len(lines))
	priced := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, backend.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			ImageURL:  l.ImageURL,
			Quantity:  l.Quantity,
		})
		priced = append(priced, pricing.Item{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	totals := pricing.Calculate(priced, d.ShippingMethod)
	from, to := EstimateDelivery(d.PlacedAt)

	return backend.Order{
		OrderID:    NewOrderID(),
		CustomerID: d.Customer.ID,
		OrderDate:  d.PlacedAt.Format(time.RFC3339),
		Status:     backend.StatusPending,

		Items: items,

		Subtotal:     totals.Subtotal,
		VAT:          totals.VAT,
		ShippingCost: totals.Shipping,
		Total:        totals.GrandTotal,

		CustomerName:  d.Customer.FullName(),
		ContactNumber: d.ContactNumber,
		Email:         d.Customer.Email,

		ShippingStreet:   d.Address.Street,
		ShippingCity:     d.Address.City,
		ShippingProvince: d.Address.Province,
		ShippingPostal:   d.Address.Postal,
		ShippingCountry:  d.Address.Country,

		ShippingMethod: string(d.ShippingMethod),
		PaymentMethod:  "COD",

		EstimatedDeliveryFrom: from.Format("2006-01-02"),
		EstimatedDeliveryTo:   to.Format("2006-01-02"),
	}
}

// MatchesSearch reports whether the order matches a free-text admin search
// over id, customer name, and email.
func MatchesSearch(o backend.Order, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(o.OrderID), q) ||
		strings.Contains(strings.ToLower(o.CustomerName), q) ||
		strings.Contains(strings.ToLower(o.Email), q)
}

// WithinWindow reports whether the order date falls inside [from, to]. Zero
// bounds are open ends; an unparseable order date never matches a bounded
// window.
func WithinWindow(o backend.Order, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	placed, err := time.Parse(time.RFC3339, o.OrderDate)
	if err != nil {
		return false
	}
	if !from.IsZero() && placed.Before(from) {
		return false
	}
	if !to.IsZero() && placed.After(to) {
		return false
	}
	return true
}
