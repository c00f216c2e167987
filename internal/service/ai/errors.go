package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse marks an upstream reply with no usable content; it is a
// failure, never an empty success.
var ErrEmptyResponse = errors.New("completion service returned no content")

// UpstreamError wraps a transport, auth, or quota failure from the external
// completion service. The boundary surfaces a generic message and logs the
// wrapped detail instead of leaking it to clients.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream completion failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
