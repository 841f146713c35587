package portalapi

import (
	"errors"
	"fmt"

	"agora/pkg/platform/sentinel"
)

// ErrorCategory is the normalized failure taxonomy of upstream calls.
type ErrorCategory string

const (
	// ErrorTimeout: the portal service took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData: the response could not be decoded or was rejected as
	// a malformed request.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorNotFound: the requested resource does not exist.
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorOutage: transport failure or 5xx from the portal service.
	ErrorOutage ErrorCategory = "outage"

	// ErrorCircuitOpen: the call was not attempted because the breaker is open.
	ErrorCircuitOpen ErrorCategory = "circuit_open"

	ErrorInternal ErrorCategory = "internal"
)

// ClientError wraps upstream failures with a category.
type ClientError struct {
	Category   ErrorCategory
	Resource   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ClientError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("portal %s [%s]: %s: %v", e.Resource, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("portal %s [%s]: %s", e.Resource, e.Category, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Underlying
}

// Is lets callers match categories against platform sentinels:
// not_found matches sentinel.ErrNotFound; timeout, outage and
// circuit_open match sentinel.ErrUnavailable; bad_data matches
// sentinel.ErrBadData.
func (e *ClientError) Is(target error) bool {
	switch target {
	case sentinel.ErrNotFound:
		return e.Category == ErrorNotFound
	case sentinel.ErrUnavailable:
		return e.Category == ErrorTimeout || e.Category == ErrorOutage || e.Category == ErrorCircuitOpen
	case sentinel.ErrBadData:
		return e.Category == ErrorBadData
	}
	return false
}

func NewClientError(category ErrorCategory, resource, message string, underlying error) *ClientError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorCircuitOpen

	return &ClientError{
		Category:   category,
		Resource:   resource,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether a later attempt may succeed.
func IsRetryable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// CategoryOf extracts the category of err, ErrorInternal when it has none.
func CategoryOf(err error) ErrorCategory {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrorInternal
}
