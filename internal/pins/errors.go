package pins

import (
	"errors"
	"fmt"
)

// PinError represents a domain-specific error
type PinError struct {
	Code    string
	Message string
	Cause   error
}

func (e *PinError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PinError) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	ErrCodeInvalidPin    = "INVALID_PIN"
	ErrCodeUnknownPin    = "UNKNOWN_PIN"
	ErrCodeDuplicatePin  = "DUPLICATE_PIN"
	ErrCodeConfigCorrupt = "CONFIG_CORRUPT"
	ErrCodeHardwareFault = "HARDWARE_FAULT"
	ErrCodeInvalidParams = "INVALID_PARAMS"
	ErrCodeConfigError   = "CONFIG_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
)

// NewPinError creates a new pin error
func NewPinError(code, message string, cause error) *PinError {
	return &PinError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether err is, or wraps, a PinError with the given code.
func IsCode(err error, code string) bool {
	var pe *PinError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
