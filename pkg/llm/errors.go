package llm

// ErrorResponse is the structured error payload returned to HTTP clients
// and carried by SSE error events.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single error condition.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error types used in wire payloads.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeUpstream       = "upstream_error"
	ErrorTypeInternal       = "internal_error"
)

// NewErrorResponse builds an ErrorResponse with the given message and type.
func NewErrorResponse(message, errType string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Message: message, Type: errType}}
}
