package ai

import (
	"errors"
	"fmt"
)

// Kind classifies a failed collaborator call.
type Kind string

const (
	// KindAuth means the credential was rejected. Fatal to the run.
	KindAuth Kind = "auth"
	// KindQuota means the billing/usage quota is exhausted. Fatal to the run.
	KindQuota Kind = "quota-exhausted"
	// KindRateLimited is a transient throttling response.
	KindRateLimited Kind = "rate-limited"
	// KindUnavailable covers timeouts, 5xx and network failures.
	KindUnavailable Kind = "unavailable"
	// KindInvalid means the collaborator returned an unusable payload.
	KindInvalid Kind = "invalid"
)

// CallError is the typed failure of a single external call.
type CallError struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// NewCallError wraps err with the provider name and failure kind.
func NewCallError(provider string, kind Kind, err error) *CallError {
	return &CallError{Provider: provider, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err, defaulting to KindUnavailable
// for unclassified errors so callers treat them as transient.
func KindOf(err error) Kind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	return KindUnavailable
}

// IsFatal reports whether the error must halt the whole run rather than be
// retried or degraded per candidate.
func IsFatal(err error) bool {
	kind := KindOf(err)
	return kind == KindAuth || kind == KindQuota
}
