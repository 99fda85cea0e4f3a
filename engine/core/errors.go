package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component. Concrete failures wrap one of
// these with fmt.Errorf("%w: ...") so callers can branch with errors.Is.
var (
	// ErrCaller marks empty or malformed input. Never retried.
	ErrCaller = errors.New("caller error")
	// ErrQueryRejected is returned for an empty query, unnamed collection or k <= 0.
	ErrQueryRejected = fmt.Errorf("%w: query rejected", ErrCaller)

	// ErrCollaboratorUnavailable marks a missing credential or unreachable backend.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrGatewayUnavailable is returned when the completion backend has no credential.
	ErrGatewayUnavailable = fmt.Errorf("%w: completion gateway", ErrCollaboratorUnavailable)
	// ErrCollectionUnavailable is returned when a collection cannot be opened or created.
	ErrCollectionUnavailable = fmt.Errorf("%w: collection", ErrCollaboratorUnavailable)

	// ErrUpstream wraps failures from completion, search and tool backends.
	ErrUpstream = errors.New("upstream error")
	// ErrPartialFailure marks a collaborator that answered without usable output.
	ErrPartialFailure = errors.New("partial failure")
	// ErrUnsupportedFormat is returned by document loaders for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Upstream wraps err as an ErrUpstream with the given operation label.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// ErrorTag returns the short label responders append to a source string.
func ErrorTag(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGatewayUnavailable):
		return "API Key"
	case errors.Is(err, ErrCollectionUnavailable):
		return "Document Retrieval"
	case errors.Is(err, ErrCaller):
		return "Invalid Request"
	case errors.Is(err, ErrUnsupportedFormat):
		return "Unsupported Format"
	case errors.Is(err, ErrPartialFailure):
		return "Empty Context"
	default:
		return "Upstream"
	}
}
