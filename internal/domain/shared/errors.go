package shared

import "strings"

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
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists    = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState     = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateVersion = NewDomainError("DUPLICATE_VERSION", "Schema version already exists")
	ErrNoMigrationPath  = NewDomainError("NO_MIGRATION_PATH", "No migration path found")
)

// ValidationError carries every validation failure collected during a
// migration dry run, so a caller can present the complete remediation
// list in one round trip instead of the first failure only.
type ValidationError struct {
	Errors []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return "Migration validation failed: " + strings.Join(e.Errors, ", ")
}

// NewValidationError creates a validation error from the accumulated messages
func NewValidationError(errors []string) *ValidationError {
	return &ValidationError{Errors: errors}
}
