package docrag

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain"
)

// Completer produces one chat completion for a system instruction and a user prompt.
// Implementations should not retry on their own.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	// Model names the model, reported in answers.
	Model() string
}

// CompletionRequest is a system instruction plus one user message.
type CompletionRequest struct {
	System string
	Prompt string
}

// CompletionResult carries generated text and token usage. Empty Text counts as a failed answer.
type CompletionResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// completerAdapter bridges the public Completer to domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Model() string { return a.inner.Model() }

func (a *completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, CompletionRequest{System: req.System, Prompt: req.Prompt})
	if err != nil {
		return domain.CompletionResult{}, err
	}
	return domain.CompletionResult{
		Text:             r.Text,
		Model:            r.Model,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
	}, nil
}
