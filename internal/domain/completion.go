package domain

import "context"

// Completer produces a single chat completion. Implementations must not retry on their own.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Model() string
}

// CompletionRequest is a system instruction plus one user message.
type CompletionRequest struct {
	System string
	Prompt string
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}
