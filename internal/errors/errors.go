package errors

import "fmt"

// ErrorCode represents a webgrab error code.
type ErrorCode string

const (
	ErrEmptyName      ErrorCode = "EMPTY_NAME"            // 400
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"       // 400
	ErrUnknownCommand ErrorCode = "UNKNOWN_COMMAND"       // 400
	ErrBatchNotFound  ErrorCode = "BATCH_NOT_FOUND"       // 404
	ErrNameConflict   ErrorCode = "NAME_CONFLICT"         // 409
	ErrPageRetrieval  ErrorCode = "PAGE_RETRIEVAL_FAILED" // 422
	ErrStorage        ErrorCode = "STORAGE_ERROR"         // 500
	ErrInternal       ErrorCode = "INTERNAL"              // 500
)

// ArchiveError represents a structured error with code, status, and details.
type ArchiveError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewEmptyName creates a 400 error for blank or whitespace-only batch names.
func NewEmptyName() *ArchiveError {
	return &ArchiveError{
		Code:    ErrEmptyName,
		Status:  400,
		Message: "batch name must not be empty",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ArchiveError {
	return &ArchiveError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownCommand creates a 400 error for unregistered command tags.
func NewUnknownCommand(tag string) *ArchiveError {
	return &ArchiveError{
		Code:    ErrUnknownCommand,
		Status:  400,
		Message: fmt.Sprintf("unknown command: %s", tag),
		Details: map[string]any{"command": tag},
	}
}

// NewBatchNotFound creates a 404 error for a missing batch.
func NewBatchNotFound(id string) *ArchiveError {
	return &ArchiveError{
		Code:    ErrBatchNotFound,
		Status:  404,
		Message: fmt.Sprintf("batch not found: %s", id),
		Details: map[string]any{"batch_id": id},
	}
}

// NewNameConflict creates a 409 error for case-insensitive batch name collisions.
func NewNameConflict(name string) *ArchiveError {
	return &ArchiveError{
		Code:    ErrNameConflict,
		Status:  409,
		Message: fmt.Sprintf("a batch named %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewPageRetrieval creates a 422 error for saves that arrive without page content.
func NewPageRetrieval(url string) *ArchiveError {
	return &ArchiveError{
		Code:    ErrPageRetrieval,
		Status:  422,
		Message: fmt.Sprintf("no page content retrieved for %s", url),
		Details: map[string]any{"url": url},
	}
}

// NewStorage creates a 500 error for store-level failures (store unavailable,
// transaction aborted).
func NewStorage(err error) *ArchiveError {
	msg := "storage error"
	if err != nil {
		msg = err.Error()
	}
	return &ArchiveError{
		Code:    ErrStorage,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ArchiveError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ArchiveError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an ArchiveError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*ArchiveError); ok {
		return aErr.Code == code
	}
	return false
}
