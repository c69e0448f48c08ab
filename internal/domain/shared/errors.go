package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrValidation          = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrNoMatchingRule      = NewDomainError("NO_MATCHING_RULE", "No active accounting rule matches the transaction")
	ErrImbalance           = NewDomainError("IMBALANCED_ENTRY", "Journal entry debits do not equal credits")
	ErrAccountState        = NewDomainError("ACCOUNT_NOT_POSTABLE", "Account is inactive or synthetic and cannot accept postings")
	ErrAlreadyPosted       = NewDomainError("ALREADY_POSTED", "Journal entry has already been posted")
	ErrCyclicHierarchy     = NewDomainError("CYCLIC_HIERARCHY", "Account hierarchy exceeds maximum traversal depth")
)
