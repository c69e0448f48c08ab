package dto

import "net/http"

// Error codes surfaced by the HTTP boundary. Domain error codes pass through
// unchanged; the extra codes below only originate in the transport layer.
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain and transport error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeInternal:   http.StatusInternalServerError,

	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	// Ledger domain codes
	"VALIDATION_ERROR":     http.StatusBadRequest,
	"INVALID_RULE":         http.StatusBadRequest,
	"NO_MATCHING_RULE":     http.StatusUnprocessableEntity,
	"IMBALANCED_ENTRY":     http.StatusUnprocessableEntity,
	"ACCOUNT_NOT_POSTABLE": http.StatusUnprocessableEntity,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"CYCLIC_HIERARCHY":     http.StatusUnprocessableEntity,
	"ALREADY_POSTED":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
