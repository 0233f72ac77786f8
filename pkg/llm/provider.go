// Package llm abstracts the chat-completion providers used by the
// suggestion engine. Providers are interchangeable behind a single
// Complete call; callers never see provider SDK types.
package llm

import "context"

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Provider generates a completion for a request. Implementations return
// *Error values so callers can classify failures and decide on retries.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)

	// Name identifies the provider for logging and job results.
	Name() string

	// Model returns the configured model name.
	Model() string
}
