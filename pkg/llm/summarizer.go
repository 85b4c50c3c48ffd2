// Package llm defines the summarization interface the orchestrator consumes
// and the failure taxonomy callers branch on. Every failure here is
// recoverable: the caller falls back to deterministic truncation and the user
// never sees these as errors.
package llm

import (
	"context"
	"errors"
)

// Typed failures for a summarization attempt. A request timeout surfaces as
// ErrTransport and is handled identically to any other network failure.
var (
	// ErrTransport covers connection, DNS, and timeout failures.
	ErrTransport = errors.New("llm: request failed")
	// ErrStatus covers non-success HTTP responses.
	ErrStatus = errors.New("llm: non-success status")
	// ErrDecode covers responses that are not valid chat completions.
	ErrDecode = errors.New("llm: undecodable response")
	// ErrEmptyResponse covers well-formed responses with no usable content.
	ErrEmptyResponse = errors.New("llm: empty response content")
)

// Summarizer produces a short natural-language summary from a fully rendered
// prompt. Implementations bound their own wait time.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}
