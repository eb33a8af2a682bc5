// Package booking implements the availability and pricing engine: the
// availability checker, the reservation lifecycle state machine and the
// janitor sweep rules.  It talks to storage, the payment gateway and
// the notification queue only through the interfaces in stores.go so
// the whole engine can be exercised in tests without infrastructure.
package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain-rule sentinels.  Handlers translate these into HTTP codes;
// they are expected outcomes, not bugs, and are always computed before
// any write happens.
var (
	ErrCategoryNotFound    = errors.New("room category not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCapacityExceeded    = errors.New("no free units for the selected dates")
	ErrAlreadyPaid         = errors.New("reservation is already paid")
	ErrBookingCancelled    = errors.New("reservation is cancelled")
	ErrRefundWindowClosed  = errors.New("refund window has closed")
	ErrRefundFailed        = errors.New("refund could not be processed")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)

// ValidationError carries field-level details about malformed input.
// It is returned before any store access happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
