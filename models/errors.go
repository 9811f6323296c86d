package models

import (
	"fmt"
)

// ValidationError reports an input that breaks a payment field invariant.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PolicyNotFoundError is returned only when the policy service confirmed
// the policy does not exist.
type PolicyNotFoundError struct {
	PolicyID string
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("insurance policy with id %s doesn't exist", e.PolicyID)
}

// UpstreamUnavailableError means the policy service could not give an
// answer: transport failure, timeout or an unexpected status code.
type UpstreamUnavailableError struct {
	PolicyID   string
	StatusCode int
	Err        error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("policy service unavailable for policy %s: %v", e.PolicyID, e.Err)
	}
	return fmt.Sprintf("policy service unavailable for policy %s: unexpected status %d", e.PolicyID, e.StatusCode)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }
