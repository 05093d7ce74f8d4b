package errors

import "fmt"

// ErrorCode represents a Vault error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS" // 409
	ErrStorageInit       ErrorCode = "STORAGE_INIT"        // 500, fatal at startup
	ErrStorageRead       ErrorCode = "STORAGE_READ"        // 500
	ErrStorageWrite      ErrorCode = "STORAGE_WRITE"       // 500
	ErrEnrichment        ErrorCode = "ENRICHMENT"          // 502, internal to the enrichment boundary
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// VaultError represents a structured error with code, status, and details.
type VaultError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a record that does not exist.
func NewNotFound(kind string, id int64) *VaultError {
	return &VaultError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %d", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewNameAlreadyExists creates a 409 error for category name collisions.
func NewNameAlreadyExists(name string) *VaultError {
	return &VaultError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("category with name %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewStorageInit creates a fatal initialization error. The application
// cannot proceed past startup when this is returned.
func NewStorageInit(err error) *VaultError {
	return &VaultError{
		Code:    ErrStorageInit,
		Status:  500,
		Message: fmt.Sprintf("storage initialization failed: %v", err),
	}
}

// NewStorageRead creates a 500 error for a failed read transaction.
func NewStorageRead(err error) *VaultError {
	return &VaultError{
		Code:    ErrStorageRead,
		Status:  500,
		Message: fmt.Sprintf("storage read failed: %v", err),
	}
}

// NewStorageWrite creates a 500 error for a failed write transaction.
func NewStorageWrite(err error) *VaultError {
	return &VaultError{
		Code:    ErrStorageWrite,
		Status:  500,
		Message: fmt.Sprintf("storage write failed: %v", err),
	}
}

// NewEnrichment creates a 502 error describing a failed enrichment call.
// Never escapes the enrichment service boundary; used for logging and
// fallback construction only.
func NewEnrichment(stage string, err error) *VaultError {
	return &VaultError{
		Code:    ErrEnrichment,
		Status:  502,
		Message: fmt.Sprintf("enrichment %s failed: %v", stage, err),
		Details: map[string]any{"stage": stage},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VaultError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VaultError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a VaultError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := err.(*VaultError); ok {
		return vErr.Code == code
	}
	return false
}
