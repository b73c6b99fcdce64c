package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrPrecondition signals an internally inconsistent request (e.g. RANKING without a sort).
	// Never retried.
	ErrPrecondition = errors.New("precondition violated")
	// ErrRetrieval signals that no datastore search for a query succeeded.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrTransient marks collaborator failures that may succeed on retry.
	ErrTransient = errors.New("transient failure")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnsupportedSort signals a sort field the target table cannot serve.
	ErrUnsupportedSort = errors.New("unsupported sort field")
	// ErrInvalidQuery signals an empty or oversized user query.
	ErrInvalidQuery = errors.New("invalid query")
)

// PreconditionError names the missing input of a retrieval path.
type PreconditionError struct {
	Strategy string
	Missing  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s strategy requires %s", ErrPrecondition.Error(), e.Strategy, e.Missing)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// NewPrecondition creates a precondition error.
func NewPrecondition(strategy, missing string) error {
	return &PreconditionError{Strategy: strategy, Missing: missing}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsCanceled reports whether err comes from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
