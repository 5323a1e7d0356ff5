package api

// Health DTOs
type HealthDTO struct {
	Status  string   `json:"status"`
	Reasons []string `json:"reasons,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes
const (
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeBadRequest        = "BAD_REQUEST"
	CodeInvalidPagination = "INVALID_PAGINATION"
	CodeUnavailable       = "DATABASE_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)
