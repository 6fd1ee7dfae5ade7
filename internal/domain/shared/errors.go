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
	ErrItemNotFound        = NewDomainError("ITEM_NOT_FOUND", "Inventory item not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrPermissionDenied    = NewDomainError("PERMISSION_DENIED", "Role is not allowed to perform this action")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Entity is not in the required source state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrValidation          = NewDomainError("VALIDATION_ERROR", "Invalid or missing input")
	ErrConcurrencyConflict = NewDomainError("CONFLICT", "Resource was modified by another process")
)
