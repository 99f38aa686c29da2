package rangestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const noResponseMessage = "No response from server. Check if the server is running."

// Error is the single error shape returned for every failed backend call.
// Status is zero when the request never got a response.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// responseError builds an Error from a non-2xx response body, preferring the
// backend's own message.
func responseError(status int, body []byte) *Error {
	var parsed struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, candidate := range []any{parsed.Message, parsed.Error} {
			if s, ok := candidate.(string); ok && strings.TrimSpace(s) != "" {
				return &Error{Status: status, Message: s}
			}
		}
	}
	return &Error{Status: status, Message: fmt.Sprintf("Server Error: %d", status)}
}

// transportError wraps a failure that happened before any response arrived.
func transportError(err error) *Error {
	return &Error{Message: noResponseMessage, Err: err}
}

// requestError wraps a failure while building the request.
func requestError(err error) *Error {
	msg := err.Error()
	if msg == "" {
		msg = "An unexpected error occurred"
	}
	return &Error{Message: msg, Err: err}
}
