// Package ollama is a REST client for an Ollama-compatible
// embedding/generation provider.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragline/internal/domain"
	"github.com/kailas-cloud/ragline/internal/metrics"
)

// Client calls the provider's /api/embeddings and /api/generate endpoints.
type Client struct {
	baseURL       string
	embedModel    string
	generateModel string
	stream        bool
	httpClient    *http.Client
	logger        *zap.Logger
}

// Config holds the provider connection settings.
type Config struct {
	BaseURL       string
	EmbedModel    string
	GenerateModel string
	Stream        bool
	Timeout       time.Duration
	Logger        *zap.Logger
}

// NewClient creates an Ollama provider client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		embedModel:    cfg.EmbedModel,
		generateModel: cfg.GenerateModel,
		stream:        cfg.Stream,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        cfg.Logger,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateFragment is one /api/generate response object. When streaming, the
// provider emits a sequence of these as newline-delimited JSON.
type generateFragment struct {
	Response  string    `json:"response"`
	Done      bool      `json:"done"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Context   []int     `json:"context"`
}

// Embed implements domain.Embedder against POST /api/embeddings.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed text is blank: %w", domain.ErrInvalidInput)
	}

	start := time.Now()
	resp, err := c.post(ctx, "/api/embeddings", embedRequest{Model: c.embedModel, Prompt: text})
	if err != nil {
		c.observe("embed", c.embedModel, start, err)
		return nil, err
	}
	defer resp.Body.Close()

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		err = fmt.Errorf("decode embedding response: %w", domain.ErrDecode)
		c.observe("embed", c.embedModel, start, err)
		return nil, err
	}
	if len(out.Embedding) == 0 {
		err = fmt.Errorf("provider returned no embedding: %w", domain.ErrEmptyResult)
		c.observe("embed", c.embedModel, start, err)
		return nil, err
	}

	c.observe("embed", c.embedModel, start, nil)
	return out.Embedding, nil
}

// Generate implements domain.Generator against POST /api/generate.
// Both response modes are supported: a single JSON object and a stream of
// newline-delimited fragments. Fragments are concatenated in arrival order
// until the first one with done=true.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("generate prompt is blank: %w", domain.ErrInvalidInput)
	}

	start := time.Now()
	resp, err := c.post(ctx, "/api/generate", generateRequest{
		Model:  c.generateModel,
		Prompt: prompt,
		Stream: c.stream,
	})
	if err != nil {
		c.observe("generate", c.generateModel, start, err)
		return "", err
	}
	defer resp.Body.Close()

	text, err := decodeGenerateStream(resp.Body)
	c.observe("generate", c.generateModel, start, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// decodeGenerateStream concatenates response deltas until done=true or the
// body ends. A single non-streamed object is just a one-fragment stream.
func decodeGenerateStream(body io.Reader) (string, error) {
	dec := json.NewDecoder(body)
	var b strings.Builder
	for {
		var frag generateFragment
		if err := dec.Decode(&frag); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("malformed generate fragment: %w", domain.ErrDecode)
		}
		b.WriteString(frag.Response)
		if frag.Done {
			break
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("provider generated no text: %w", domain.ErrEmptyResult)
	}
	return b.String(), nil
}

// HealthCheck verifies provider availability via GET /api/tags.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider health check: %w", domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("provider health check returned %s: %w", resp.Status, domain.ErrProviderUnavailable)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Provider request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("POST %s: %w", path, domain.ErrProviderUnavailable)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail := readDetail(resp.Body)
		resp.Body.Close()
		if detail != "" {
			return nil, fmt.Errorf("POST %s returned %s: %s: %w", path, resp.Status, detail, domain.ErrProviderUnavailable)
		}
		return nil, fmt.Errorf("POST %s returned %s: %w", path, resp.Status, domain.ErrProviderUnavailable)
	}
	return resp, nil
}

func (c *Client) observe(operation, model string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(operation, model, status).Inc()
	if err == nil {
		metrics.ProviderRequestDuration.WithLabelValues(operation, model).Observe(time.Since(start).Seconds())
	}
}

// readDetail extracts the "error" field from a JSON error body.
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
		return parsed.Error
	}
	return ""
}
