package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// ChatConfig holds the chat completion provider settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       domain.ModelSpec
	Temperature float32
	MaxTokens   int
	// Timeout bounds one completion request; zero keeps the client default.
	Timeout time.Duration
	// EnforceRateLimit throttles calls to the model's published requests-per-minute.
	EnforceRateLimit bool
	// Limiter replaces the per-client limiter when EnforceRateLimit is set. Clients
	// calling the same model pass one limiter so they draw from one budget.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// ChatCompleter implements domain.Completer over an OpenAI-compatible chat API (Groq by default).
type ChatCompleter struct {
	client      *openai.Client
	model       domain.ModelSpec
	temperature float32
	maxTokens   int
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewChatCompleter creates a chat completion client for a catalog model.
func NewChatCompleter(cfg *ChatConfig) *ChatCompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &ChatCompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
	switch {
	case !cfg.EnforceRateLimit:
	case cfg.Limiter != nil:
		c.limiter = cfg.Limiter
	case cfg.Model.RequestsPerMinute > 0:
		c.limiter = NewMinuteLimiter(cfg.Model.RequestsPerMinute)
	}
	return c
}

// NewMinuteLimiter spreads rpm evenly over a minute with a small burst.
func NewMinuteLimiter(rpm int) *rate.Limiter {
	burst := max(1, rpm/10)
	return rate.NewLimiter(rate.Limit(float64(rpm)/60), burst)
}

// Model returns the provider-side model name.
func (c *ChatCompleter) Model() string { return c.model.Name }

// Complete implements domain.Completer. It issues exactly one request.
func (c *ChatCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	model := c.model.Name

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.LLMRequestsTotal.WithLabelValues(model, "rate_limited").Inc()
			return domain.CompletionResult{}, fmt.Errorf("%s: %w: %w", model, domain.ErrRateLimited, err)
		}
		metrics.LLMRateLimitWaitSeconds.WithLabelValues(model).Observe(time.Since(waitStart).Seconds())
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})

	duration := time.Since(start)
	metrics.LLMRequestDuration.WithLabelValues(model).Observe(duration.Seconds())

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError("chat", domain.ErrLLMProviderError, err)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(model, "empty").Inc()
		return domain.CompletionResult{}, fmt.Errorf("no choices in chat response: %w", domain.ErrLLMProviderError)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	status := "success"
	if text == "" {
		status = "empty"
	}
	metrics.LLMRequestsTotal.WithLabelValues(model, status).Inc()
	metrics.LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(resp.Usage.CompletionTokens))

	c.logger.Debug("chat completion",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return domain.CompletionResult{
		Text:             text,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *ChatCompleter) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
