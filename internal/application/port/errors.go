package port

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or unusable service setting, such
// as an absent API key. It does not go away by retrying.
type ConfigurationError struct {
	Provider string
	Setting  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s is not configured", e.Provider, e.Setting)
}

// ExtractionKind classifies an extraction failure.
type ExtractionKind string

const (
	ExtractionNetwork   ExtractionKind = "network"
	ExtractionService   ExtractionKind = "service"
	ExtractionTimeout   ExtractionKind = "timeout"
	ExtractionMalformed ExtractionKind = "malformed"
	ExtractionEmpty     ExtractionKind = "empty"
)

// ExtractionError reports a failed extraction attempt.
type ExtractionError struct {
	Provider string
	Kind     ExtractionKind
	Err      error
}

// NewExtractionError wraps err with provider and kind.
func NewExtractionError(provider string, kind ExtractionKind, err error) *ExtractionError {
	return &ExtractionError{Provider: provider, Kind: kind, Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s extraction failed (%s)", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s extraction failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsExtractionError reports whether err is or wraps an *ExtractionError.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}
