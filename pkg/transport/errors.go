package transport

import "encoding/json"

// ErrorType represents the category of an error response.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
)

// APIError is the body of a JSON error response.
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// ErrorEnvelope wraps an APIError as the top-level JSON object.
type ErrorEnvelope struct {
	Error *APIError `json:"error"`
}

// ErrorResponse builds a JSON error response of the form
// {"error":{"type":...,"message":...}}.
func ErrorResponse(status int, errType ErrorType, message string) *Response {
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "application/json")
	resp.Body, _ = json.Marshal(ErrorEnvelope{Error: &APIError{Type: errType, Message: message}})
	return resp
}
