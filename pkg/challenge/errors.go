package challenge

import (
	"errors"
	"fmt"
)

// Common errors for challenge operations.
var (
	// ErrZoneNotFound indicates no hosted zone contains the record name.
	ErrZoneNotFound = errors.New("no hosted zone found")

	// ErrUnauthorized indicates the provider rejected the credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProviderUnavailable indicates the provider API is unreachable.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s=%q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// ErrConfigMissing creates an error for a missing required configuration field.
func ErrConfigMissing(field string) error {
	return &ConfigError{
		Field:   field,
		Message: "required but not set",
	}
}

// ErrConfigInvalid creates an error for an invalid configuration value.
func ErrConfigInvalid(field, value, message string) error {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// OpError wraps an error with provider and operation context.
type OpError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider and operation context.
func WrapError(provider, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// IsZoneNotFound returns true if the error indicates no hosted zone matched.
func IsZoneNotFound(err error) bool {
	return errors.Is(err, ErrZoneNotFound)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsProviderUnavailable returns true if the error indicates the provider is unreachable.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
