package domain

import "fmt"

// ConfigurationError means a mandatory dataset or the metadata singleton is
// missing or ambiguous. Fatal before any write is attempted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// LoadError wraps an I/O failure reading a facet dataset. Fatal only when
// the facet is mandatory; optional facets degrade to an empty mapping.
type LoadError struct {
	Facet string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Facet, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConversionError marks one malformed key combination. The record is dropped
// and counted; the run continues.
type ConversionError struct {
	Key Key
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Key, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// WriteError is any batch dispatch failure. Fail-fast for the run; batches
// already acknowledged by the sink are not retracted.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "write: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

// LockError is a publish-lock acquisition failure, including timeout.
type LockError struct {
	Prefix string
	Err    error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock %s: %v", e.Prefix, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

// PublishError is an atomic-swap failure. The previously published content
// is left untouched.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string { return "publish: " + e.Err.Error() }

func (e *PublishError) Unwrap() error { return e.Err }
