package copperx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is the only failure shape the conversation layer ever sees from
// the payout API: a human-readable message plus the HTTP status code.
// Transport-level failures (timeouts, DNS, connection resets) are normalized
// to StatusCode 0.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("copperx: %s (%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("copperx: %s", e.Message)
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// UserMessage extracts a short notice suitable for showing in chat.
func UserMessage(err error) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

// errorBody mirrors the API's error payload. The message field is sometimes
// a string, sometimes a nested validation object, so it is decoded loosely.
type errorBody struct {
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

func (b errorBody) text() string {
	if len(b.Message) == 0 {
		return b.Error
	}
	var s string
	if err := json.Unmarshal(b.Message, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(b.Message, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return strings.Trim(string(b.Message), `"{}`)
}
