// Package api defines the shared HTTP response envelope for all endpoints.
package api

// Response is the uniform success envelope returned by every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// ErrorResponse is the uniform failure envelope. Errors carries per-field
// validation messages and is omitted for non-validation failures.
type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// Page wraps a paginated collection together with its page metadata.
type Page struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// TokenData is the payload returned by token-issuing endpoints.
type TokenData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        any    `json:"user,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Fail builds a failure envelope without field detail.
func Fail(message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message}
}

// FailFields builds a 422-style failure envelope with per-field messages.
func FailFields(message string, fields map[string][]string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message, Errors: fields}
}
