package chitchat_errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPage        = errors.New("invalid page number")
	ErrLimitReached       = errors.New("limit reached")
	ErrQueueFull          = errors.New("queue full")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAlreadyExists      = errors.New("already exists")
)

// Event bus errors
var (
	ErrTopicNotRegistered = errors.New("topic not registered")
	ErrSlowConsumer       = errors.New("subscriber buffer overflow")
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// ConfigurationError reports topics the live adapters need but the bus was
// not built with. It is a startup failure, never a per-call one.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("event bus missing topics: %s", strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrTopicNotRegistered
}

// DeliveryError is raised when one subscriber's filter or view failed on an
// envelope. Only that subscriber is affected.
type DeliveryError struct {
	Topic        string
	SubscriberID string
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s on %s failed: %v", e.SubscriberID, e.Topic, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// AggregationError wraps the failure of one notification source. Callers get
// no partial feed when this is returned.
type AggregationError struct {
	Source string
	Err    error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("notification source %s: %v", e.Source, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// StatusFromError maps domain errors to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return 200
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidPage):
		return 400
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict), errors.Is(err, ErrLimitReached):
		return 409
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrServiceUnavailable):
		return 503
	default:
		return 500
	}
}

// CodeFromError returns the machine readable code used in error responses.
func CodeFromError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPage):
		return "INVALID_PAGE"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrLimitReached):
		return "LIMIT_REACHED"
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}
