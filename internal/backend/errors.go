package backend

import (
	"errors"
	"fmt"
)

// ErrUnavailable wraps transport-level failures: DNS, refused connections,
// deadline expiry. Handlers map it to 503 rather than echoing a raw error.
var ErrUnavailable = errors.New("backend unavailable")

// StatusError is a non-2xx answer from the API. The status code and body are
// kept so handlers can relay the backend's verdict (403 blocked account, 404
// missing product) instead of flattening everything to 500.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// AsStatusError unwraps err to a StatusError if one is in the chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
