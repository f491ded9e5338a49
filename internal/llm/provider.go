package llm

import (
	"context"
	"errors"
)

// Backend failure modes. The recognizer treats both as recoverable and
// reports "recognition unavailable" instead of crashing: local model
// backends are expected to be occasionally flaky.
var (
	// ErrBackendUnavailable covers connection errors, timeouts and
	// cancellation of an in-flight call.
	ErrBackendUnavailable = errors.New("completion backend unavailable")

	// ErrBackendError covers non-success responses from a reachable
	// backend.
	ErrBackendError = errors.New("completion backend error")
)

// Options are per-call generation parameters. Temperature stays low to
// bias toward deterministic category selection.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client sends a composed prompt to a text-generation backend and returns
// the raw textual reply. Implementations apply a timeout and honor context
// cancellation but never retry; retry policy belongs to the caller, since
// a model call is neither free nor guaranteed idempotent.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}
