package dto

// ErrorResponse represents a common API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
