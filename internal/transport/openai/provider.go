// Package openai is an alternative provider using the OpenAI-compatible API
// (e.g. Nebius, OpenRouter) for embeddings and generation.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragline/internal/domain"
	"github.com/kailas-cloud/ragline/internal/metrics"
)

// Provider implements domain.Embedder and domain.Generator over the
// OpenAI-compatible API.
type Provider struct {
	client        *openai.Client
	embedModel    openai.EmbeddingModel
	generateModel string
	logger        *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey        string
	BaseURL       string
	EmbedModel    string
	GenerateModel string
	Timeout       time.Duration
	Logger        *zap.Logger
}

// NewProvider creates an OpenAI-compatible provider.
func NewProvider(cfg *Config) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		if hc, ok := clientCfg.HTTPClient.(*http.Client); ok {
			hc.Timeout = cfg.Timeout
		}
	}

	return &Provider{
		client:        openai.NewClientWithConfig(clientCfg),
		embedModel:    openai.EmbeddingModel(cfg.EmbedModel),
		generateModel: cfg.GenerateModel,
		logger:        cfg.Logger,
	}
}

// Embed implements domain.Embedder.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed text is blank: %w", domain.ErrInvalidInput)
	}

	start := time.Now()
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          p.embedModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("embed", string(p.embedModel), "error").Inc()
		return nil, parseAPIError("embedding", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues("embed", string(p.embedModel), "error").Inc()
		return nil, fmt.Errorf("empty embedding response: %w", domain.ErrEmptyResult)
	}

	metrics.ProviderRequestsTotal.WithLabelValues("embed", string(p.embedModel), "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues("embed", string(p.embedModel)).Observe(time.Since(start).Seconds())
	return resp.Data[0].Embedding, nil
}

// Generate implements domain.Generator via chat completion.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("generate prompt is blank: %w", domain.ErrInvalidInput)
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.generateModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("generate", p.generateModel, "error").Inc()
		return "", parseAPIError("generation", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.ProviderRequestsTotal.WithLabelValues("generate", p.generateModel, "error").Inc()
		return "", fmt.Errorf("empty generation response: %w", domain.ErrEmptyResult)
	}

	metrics.ProviderRequestsTotal.WithLabelValues("generate", p.generateModel, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues("generate", p.generateModel).Observe(time.Since(start).Seconds())
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (p *Provider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", domain.ErrProviderUnavailable)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrProviderUnavailable.
func parseAPIError(op string, err error) error {
	wrap := domain.ErrProviderUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("%s request failed: %w", op, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
