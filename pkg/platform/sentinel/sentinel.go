// Package sentinel holds sentinel errors for infrastructure facts. Stores and
// infrastructure layers return these (optionally wrapped) so callers can
// translate them into domain errors or health states.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
package sentinel

import "errors"

// ErrUnavailable marks a service or resource as temporarily unreachable.
// Health checks map it to a "degraded" status distinct from hard failures.
var ErrUnavailable = errors.New("unavailable")
