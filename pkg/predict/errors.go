package predict

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultErrorMessage is shown when neither the service nor the failure
// itself offers anything better.
const DefaultErrorMessage = "Network response was not ok"

// TransportError wraps a failure of the call itself: DNS, refused
// connections, timeouts, cancelled contexts.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "predict: transport failure"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectionError is returned for non-2xx responses. Message carries the
// service supplied `error` field when present. Malformed is set when the
// body could not be parsed as JSON.
type RejectionError struct {
	StatusCode int
	Message    string
	Malformed  bool
}

func (e *RejectionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultErrorMessage
	}
	return fmt.Sprintf("predict: status %d: %s", e.StatusCode, msg)
}

// DecodeError is returned when a 2xx body is not a valid prediction result.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "predict: decode result: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Message selects the user-facing text for err: the service supplied error
// field first, then the failure's own message, then DefaultErrorMessage. It
// never returns an empty string for a non-nil error.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var rejection *RejectionError
	if errors.As(err, &rejection) {
		if msg := strings.TrimSpace(rejection.Message); msg != "" {
			return msg
		}
		return DefaultErrorMessage
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
