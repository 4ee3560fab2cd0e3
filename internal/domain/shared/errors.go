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
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidTransition = NewDomainError("INVALID_TRANSITION", "Stage transition not allowed")
	ErrInvalidAmount     = NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrNegativeAmount    = NewDomainError("NEGATIVE_AMOUNT", "Amount must not be negative")
	ErrOverReturn        = NewDomainError("OVER_RETURN", "Return quantity exceeds delivered quantity")
	ErrNoEligibleOrders  = NewDomainError("NO_ELIGIBLE_ORDERS", "No orders eligible for settlement")
	ErrStorageConflict   = NewDomainError("STORAGE_CONFLICT", "Resource was modified by another process")
)
