package backend

import "github.com/shopspring/decimal"

// Product is the catalog record as the API serves it.
type Product struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	Category       string            `json:"category"`
	Stock          int               `json:"stock"`
	ImageURL       string            `json:"imageUrl"`
	Features       []string          `json:"features,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

// StockStatus buckets the raw stock count the way listings badge it.
func (p Product) StockStatus() string {
	switch {
	case p.Stock <= 0:
		return "out-of-stock"
	case p.Stock < 10:
		return "low-stock"
	default:
		return "in-stock"
	}
}

// Customer is the admin-side view of a registered account.
type Customer struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Blocked   bool    `json:"blocked"`
	Orders    []Order `json:"orders,omitempty"`
}

// UserInfo is what the auth endpoints return about an account.
type UserInfo struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// OrderItem is one purchased line inside an order.
type OrderItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Order is the full order document exchanged with the API and cached in the
// local history slot.
type Order struct {
	OrderID    string `json:"orderId"`
	CustomerID int64  `json:"customerId"`
	OrderDate  string `json:"orderDate"`
	Status     string `json:"status"`

	Items []OrderItem `json:"items"`

	Subtotal     decimal.Decimal `json:"subtotal"`
	VAT          decimal.Decimal `json:"vat"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Total        decimal.Decimal `json:"total"`

	CustomerName  string `json:"customerName"`
	ContactNumber string `json:"contactNumber"`
	Email         string `json:"email"`

	ShippingStreet   string `json:"shippingStreet"`
	ShippingCity     string `json:"shippingCity"`
	ShippingProvince string `json:"shippingProvince"`
	ShippingPostal   string `json:"shippingPostal"`
	ShippingCountry  string `json:"shippingCountry"`

	ShippingMethod string `json:"shippingMethod"`
	PaymentMethod  string `json:"paymentMethod"`

	EstimatedDeliveryFrom string `json:"estimatedDeliveryFrom,omitempty"`
	EstimatedDeliveryTo   string `json:"estimatedDeliveryTo,omitempty"`
}

// Order lifecycle states as the API reports them.
const (
	StatusPending   = "Pending"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)
