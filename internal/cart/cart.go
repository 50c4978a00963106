// Package cart keeps the shopper's device-local cart. Lines are keyed by
// product id, so adding an already-carted product merges quantities instead
// of producing a duplicate row.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"storefront-gateway/internal/localstore"
)

var ErrNotFound = errors.New("product not in cart")

// Line is one cart row. JSON tags match the persisted slot layout.
type Line struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Store reads and writes the cart slot. All mutations load the persisted
// lines, apply the change, and write back, so the slot is always the source
// of truth.
type Store struct {
	slots *localstore.Store
}

func NewStore(slots *localstore.Store) *Store {
	return &Store{slots: slots}
}

// Load returns the persisted cart, or an empty one when the slot is missing
// or unreadable.
func (s *Store) Load() []Line {
	var lines []Line
	if !s.slots.Get(localstore.SlotCart, &lines) {
		return []Line{}
	}
	return lines
}

// Add merges the line into the cart by product id. A non-positive quantity
// is a no-op.
func (s *Store) Add(line Line) ([]Line, error) {
	if line.Quantity <= 0 {
		return s.Load(), nil
	}
	lines := s.Load()
	merged := false
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, line)
	}
	return lines, s.save(lines)
}

// SetQuantity replaces the quantity of an existing line. A non-positive
// quantity leaves the cart untouched; removal is an explicit Remove.
func (s *Store) SetQuantity(productID int64, quantity int) ([]Line, error) {
	lines := s.Load()
	if quantity <= 0 {
		return lines, nil
	}
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return lines, s.save(lines)
		}
	}
	return lines, ErrNotFound
}

// Remove drops the line for the product id.
func (s *Store) Remove(productID int64) ([]Line, error) {
	lines := s.Load()
	for i := range lines {
		if lines[i].ProductID == productID {
			lines = append(lines[:i], lines[i+1:]...)
			return lines, s.save(lines)
		}
	}
	return lines, ErrNotFound
}

// Replace swaps the whole cart, used when restoring a server-side snapshot.
func (s *Store) Replace(lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	return s.save(lines)
}

// Clear empties the cart, as after a successful checkout.
func (s *Store) Clear() error {
	return s.slots.Delete(localstore.SlotCart)
}

// Count is the badge number: total units across all lines.
func (s *Store) Count() int {
	total := 0
	for _, l := range s.Load() {
		total += l.Quantity
	}
	return total
}

func (s *Store) save(lines []Line) error {
	return s.slots.Put(localstore.SlotCart, lines)
}
