package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Fallback messages used when the backend does not supply a detail
const (
	MsgRequestFailed = "Request failed"
	MsgAnalyzeFailed = "Failed to analyze the screen"
)

// ErrInvalidInput is returned before any request is made when arguments are unusable
var ErrInvalidInput = errors.New("invalid input")

// Error is a failed REST call. StatusCode is 0 when the request never got a response.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnreachable reports whether err means the backend could not be reached at all
func IsUnreachable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 0
}

// FormatError returns a message suitable for showing to the user
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	if IsUnreachable(err) {
		return "FocusAgent backend is not reachable. Is it running?"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// newStatusError builds an Error from a non-2xx response body, preferring
// the string "detail" field the backend sets on HTTP exceptions.
func newStatusError(status int, body []byte, fallback string) *Error {
	msg := fallback
	if detail := gjson.GetBytes(body, "detail"); detail.Type == gjson.String && detail.Str != "" {
		msg = detail.Str
	}
	return &Error{StatusCode: status, Message: msg}
}
