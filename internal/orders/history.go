package orders

import (
	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/localstore"
)

// History is the device-local order cache. It only ever holds orders the API
// has confirmed; a draft that failed to submit is never written here.
type History struct {
	slots *localstore.Store
}

func NewHistory(slots *localstore.Store) *History {
	return &History{slots: slots}
}

func (h *History) All() []backend.Order {
	var out []backend.Order
	if !h.slots.Get(localstore.SlotOrders, &out) {
		return []backend.Order{}
	}
	return out
}

// Append records a confirmed order, newest first.
func (h *History) Append(o backend.Order) error {
	cached := h.All()
	updated := append([]backend.Order{o}, cached...)
	return h.slots.Put(localstore.SlotOrders, updated)
}

// ForCustomer returns the cached orders belonging to one customer.
func (h *History) ForCustomer(customerID int64) []backend.Order {
	var out []backend.Order
	for _, o := range h.All() {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out
}

// Find looks up one cached order by its display id.
func (h *History) Find(orderID string) (backend.Order, bool) {
	for _, o := range h.All() {
		if o.OrderID == orderID {
			return o, true
		}
	}
	return backend.Order{}, false
}
