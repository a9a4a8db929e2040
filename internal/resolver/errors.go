package resolver

import (
	"errors"
	"fmt"
)

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeIncompatibleContext indicates the visitor context lacks the
	// mapping, runtime field, or discovery capabilities.
	ErrCodeIncompatibleContext ConfigErrorCode = "INCOMPATIBLE_CONTEXT"
)

// ConfigError reports a programming error in how resolution was invoked.
// It is never retryable.
type ConfigError struct {
	Code    ConfigErrorCode
	Message string
}

// ErrIncompatibleContext matches any ConfigError with
// ErrCodeIncompatibleContext under errors.Is.
var ErrIncompatibleContext = &ConfigError{Code: ErrCodeIncompatibleContext}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches configuration errors by code.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	return ok && t.Code == e.Code
}

// IsConfigError returns true if err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func incompatibleContext(format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeIncompatibleContext,
		Message: fmt.Sprintf(format, args...),
	}
}
