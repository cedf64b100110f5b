package grid

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	ErrorKindNetwork     ErrorKind = "network"
	ErrorKindUpstream    ErrorKind = "upstream"
	ErrorKindRateLimit   ErrorKind = "rate_limit"
	ErrorKindInvalidData ErrorKind = "invalid_data"
)

// ProviderError wraps a failure reported by an upstream feed.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	Region     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	base := fmt.Sprintf("provider %s error", e.Kind)
	if e.Provider != "" {
		base = fmt.Sprintf("%s from %s", base, e.Provider)
	}
	if e.Region != "" {
		base = fmt.Sprintf("%s for region %s", base, e.Region)
	}
	if e.StatusCode > 0 {
		base = fmt.Sprintf("%s (status %d)", base, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call may succeed.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case ErrorKindNetwork, ErrorKindRateLimit:
		return true
	case ErrorKindUpstream:
		return e.StatusCode == 0 || e.StatusCode >= 500
	}
	return false
}

// NewProviderError returns nil when err is nil.
func NewProviderError(kind ErrorKind, provider, region string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Kind: kind, Provider: provider, Region: region, StatusCode: status, Err: err}
}

// IsKind reports whether err wraps a ProviderError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
