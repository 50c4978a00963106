package orders

import (
	"context"
	"errors"
	"sync"

	"storefront-gateway/internal/backend"
)

// ErrSubmissionInFlight means this customer already has a checkout being
// submitted. The second attempt is refused rather than queued, since a
// duplicate order is worse than asking the shopper to wait.
var ErrSubmissionInFlight = errors.New("order submission already in flight")

// OrderPlacer is the slice of the API client the submitter needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, o backend.Order) (backend.Order, error)
}

// Submitter serializes order submission per customer and caches confirmed
// orders into the local history.
type Submitter struct {
	api     OrderPlacer
	history *History

	mu       sync.Mutex
	inFlight map[int64]bool
}

func NewSubmitter(api OrderPlacer, history *History) *Submitter {
	return &Submitter{
		api:      api,
		history:  history,
		inFlight: make(map[int64]bool),
	}
}

// Submit sends the order to the API and, only on success, appends it to the
// local history. A concurrent submit for the same customer gets
// ErrSubmissionInFlight.
func (s *Submitter) Submit(ctx context.Context, o backend.Order) (backend.Order, error) {
	s.mu.Lock()
	if s.inFlight[o.CustomerID] {
		s.mu.Unlock()
		return backend.Order{}, ErrSubmissionInFlight
	}
	s.inFlight[o.CustomerID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, o.CustomerID)
		s.mu.Unlock()
	}()

	confirmed, err := s.api.PlaceOrder(ctx, o)
	if err != nil {
		return backend.Order{}, err
	}
	if err := s.history.Append(confirmed); err != nil {
		// The order exists server-side; a cache write failure must not make
		// the checkout look failed.
		return confirmed, nil
	}
	return confirmed, nil
}
