package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/intent"
	logpkg "github.com/kailas-cloud/docrag/internal/logger"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// ApologyText is returned by Direct when no model produced an answer.
const ApologyText = "I'm sorry, I wasn't able to generate a response right now. Please try again in a moment."

var errEmptyAnswer = errors.New("model returned an empty answer")

// Result is a synthesized answer.
type Result struct {
	Text  string
	Model string
	// Fallback is set when Text is ApologyText.
	Fallback bool
}

// Passage is one piece of labelled document context.
type Passage struct {
	Source string
	Text   string
}

func (p Passage) render() string {
	if p.Source == "" {
		return p.Text
	}
	return "[Source: " + p.Source + "]\n" + p.Text
}

// Service turns queries into answers using a primary and an optional secondary completer.
type Service struct {
	primary   domain.Completer
	secondary domain.Completer
}

// New creates a synthesis service. secondary may be nil.
func New(primary, secondary domain.Completer) *Service {
	return &Service{primary: primary, secondary: secondary}
}

// Model returns the primary model name.
func (s *Service) Model() string { return s.primary.Model() }

// Direct answers without document context. It never fails: when the primary and secondary
// completers both error or return empty text, the result is ApologyText.
func (s *Service) Direct(ctx context.Context, in intent.Intent, query string) Result {
	logger := logpkg.FromContext(ctx)
	system, prompt := templateFor(in).request(query)
	req := domain.CompletionRequest{System: system, Prompt: prompt}

	res, err := complete(ctx, s.primary, req)
	if err == nil {
		return Result{Text: res.Text, Model: modelOf(res, s.primary)}
	}
	logger.Warn("Primary completion failed", zap.String("model", s.primary.Model()), zap.Error(err))

	if s.secondary != nil {
		res, err = complete(ctx, s.secondary, req)
		if err == nil {
			metrics.SynthesisFallbacksTotal.WithLabelValues("secondary").Inc()
			return Result{Text: res.Text, Model: modelOf(res, s.secondary)}
		}
		logger.Warn("Secondary completion failed", zap.String("model", s.secondary.Model()), zap.Error(err))
	}

	metrics.SynthesisFallbacksTotal.WithLabelValues("apology").Inc()
	logger.Error("Direct synthesis exhausted, serving apology", zap.String("intent", in.String()))
	return Result{Text: ApologyText, Model: s.primary.Model(), Fallback: true}
}

// FromContext answers from passages, best first: an initial answer from the first passage,
// then one refine step per remaining passage. An empty refine keeps the previous answer.
// Provider errors abort with domain.ErrSynthesisFailure; retrying is up to the caller.
func (s *Service) FromContext(ctx context.Context, query string, passages []Passage) (Result, error) {
	if len(passages) == 0 {
		return Result{}, fmt.Errorf("%w: no context passages", domain.ErrSynthesisFailure)
	}

	res, err := complete(ctx, s.primary, domain.CompletionRequest{
		System: groundedSystem,
		Prompt: fmt.Sprintf(qaPrompt, passages[0].render(), query),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: initial answer: %w", domain.ErrSynthesisFailure, err)
	}
	answer := res.Text
	model := modelOf(res, s.primary)

	for i, p := range passages[1:] {
		refined, err := complete(ctx, s.primary, domain.CompletionRequest{
			System: groundedSystem,
			Prompt: fmt.Sprintf(refinePrompt, query, answer, p.render()),
		})
		if errors.Is(err, errEmptyAnswer) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: refine step %d: %w", domain.ErrSynthesisFailure, i+1, err)
		}
		answer = refined.Text
	}

	logpkg.FromContext(ctx).Debug("Grounded answer synthesized",
		zap.String("model", model),
		zap.Int("passages", len(passages)),
	)
	return Result{Text: answer, Model: model}, nil
}

// complete calls c once and treats blank text as errEmptyAnswer.
func complete(ctx context.Context, c domain.Completer, req domain.CompletionRequest) (domain.CompletionResult, error) {
	res, err := c.Complete(ctx, req)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		return domain.CompletionResult{}, errEmptyAnswer
	}
	return res, nil
}

func modelOf(res domain.CompletionResult, c domain.Completer) string {
	if res.Model != "" {
		return res.Model
	}
	return c.Model()
}
