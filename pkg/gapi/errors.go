package gapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Done signals the end of a PageIterator. It is not an error condition.
var Done = errors.New("gapi: no more items")

// UnknownParameterError reports an argument name absent from the method's
// schema. Raised before any network I/O.
type UnknownParameterError struct {
	Method string
	Name   string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("method %q accepts no parameter %q", e.Method, e.Name)
}

// MissingParameterError reports a required parameter, or a URL template
// placeholder, with no binding. Raised before any network I/O.
type MissingParameterError struct {
	Method string
	Name   string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("method %q requires parameter %q", e.Method, e.Name)
}

// NotPaginatedError reports a Walk over a method with no continuation-token
// parameter.
type NotPaginatedError struct {
	Method string
}

func (e *NotPaginatedError) Error() string {
	return fmt.Sprintf("method %q is not paginated", e.Method)
}

// NotBatchableError reports an envelope-batch submission of a method whose
// service declares no batch endpoint.
type NotBatchableError struct {
	Method string
}

func (e *NotBatchableError) Error() string {
	return fmt.Sprintf("method %q is not batchable", e.Method)
}

// ProviderError is a non-transient provider rejection, carrying the
// provider's status and message.
type ProviderError struct {
	StatusCode int
	Message    string
	Body       map[string]any
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// Temporary reports whether the status indicates a retryable condition.
func (e *ProviderError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// TransientTransportError wraps the last failure after the retry budget is
// exhausted.
type TransientTransportError struct {
	Attempts int
	Err      error
}

func (e *TransientTransportError) Error() string {
	return fmt.Sprintf("transport failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientTransportError) Unwrap() error { return e.Err }

// PartialBatchFailure aggregates a batch in which some sub-requests failed.
// It is returned by BatchResults.Err as a convenience; Batch itself never
// escalates per-item failures.
type PartialBatchFailure struct {
	Results BatchResults
	Failed  int
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%d of %d batch operations failed", e.Failed, len(e.Results))
}
