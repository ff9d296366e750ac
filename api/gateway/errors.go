package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Type Kind of gateway failure. Both kinds collapse to a single message for callers.
type Type string

const (
	// Network Transport failure or a non-2xx response without an error payload
	Network Type = "network"
	// Api A response carrying an `error` field, whatever its status code
	Api Type = "api"
)

// Error Uniform error returned by every gateway operation
type Error struct {
	Type Type
	// Message human-readable message, surfaced verbatim to the user
	Message string
	// StatusCode of the response, zero for transport failures
	StatusCode int
	// Err the underlying error, if any
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsApiError True when err is a gateway error carrying an upstream error payload
func IsApiError(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Type == Api
}

// Message Extracts the user facing message from any error returned by the gateway
func Message(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return err.Error()
}

func networkError(err error) error {
	return &Error{Type: Network, Message: err.Error(), Err: err}
}

func statusError(statusCode int) error {
	return &Error{
		Type:       Network,
		Message:    fmt.Sprintf("request failed with status code %d", statusCode),
		StatusCode: statusCode,
		Err:        errors.New(http.StatusText(statusCode)),
	}
}

func apiError(statusCode int, message string) error {
	return &Error{Type: Api, Message: message, StatusCode: statusCode}
}
