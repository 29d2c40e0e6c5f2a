// Package geocode resolves (district, province) pairs to coordinates through
// a tiered cache in front of an external HTTP geocoding service.
package geocode

import (
	"errors"
	"fmt"
)

// ErrGeocodingFailed is returned for every lookup that could not produce a
// coordinate. Callers treat it as "location unknown".
var ErrGeocodingFailed = errors.New("geocoding failed")

// Failure reasons reported in FailureError and the upstream failure metric.
const (
	ReasonStatus      = "status"
	ReasonNoResults   = "no_results"
	ReasonHTTPStatus  = "http_status"
	ReasonTransport   = "transport"
	ReasonDecode      = "decode"
	ReasonCircuitOpen = "circuit_open"
	ReasonTimeout     = "timeout"
)

// FailureError describes why an upstream lookup failed.
// It matches ErrGeocodingFailed with errors.Is.
type FailureError struct {
	Address string
	Reason  string
	Err     error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("geocoding %q failed: %s", e.Address, e.Reason)
	}
	return fmt.Sprintf("geocoding %q failed: %s: %v", e.Address, e.Reason, e.Err)
}

// Unwrap exposes both ErrGeocodingFailed and the underlying cause.
func (e *FailureError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGeocodingFailed}
	}
	return []error{ErrGeocodingFailed, e.Err}
}

// failureReason extracts the reason from err, or "unknown".
func failureReason(err error) string {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return "unknown"
}
