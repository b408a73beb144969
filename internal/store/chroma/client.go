// Package chroma is a REST client for a Chroma-compatible vector store,
// scoped to a fixed tenant/database pair.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragline/internal/domain"
	"github.com/kailas-cloud/ragline/internal/metrics"
)

// Client wraps collection lifecycle, batch upsert, and similarity query.
// The resolved collection id is cached for the remainder of the run.
type Client struct {
	baseURL    string
	tenant     string
	database   string
	collection string
	httpClient *http.Client
	logger     *zap.Logger

	collectionID string
}

// Config holds the vector store connection settings.
type Config struct {
	BaseURL    string
	Tenant     string
	Database   string
	Collection string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewClient creates a Chroma store client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tenant:     cfg.Tenant,
		database:   cfg.Database,
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}
}

type collectionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type collectionList struct {
	Collections []collectionInfo `json:"collections"`
}

type upsertRequest struct {
	IDs        []string            `json:"ids"`
	Embeddings [][]float32         `json:"embeddings"`
	Metadatas  []map[string]string `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type queryResponse struct {
	Metadatas [][]map[string]string `json:"metadatas"`
}

// EnsureCollection resolves the configured collection name to a store id,
// creating the collection if absent. Repeated calls within a run return the
// cached id without a network call.
func (c *Client) EnsureCollection(ctx context.Context) (string, error) {
	if c.collectionID != "" {
		return c.collectionID, nil
	}

	listURL := fmt.Sprintf("%s?tenant=%s&database=%s", c.collectionsURL(), c.tenant, c.database)
	var list collectionList
	if err := c.getJSON(ctx, "list_collections", listURL, &list); err != nil {
		return "", err
	}

	for _, col := range list.Collections {
		if col.Name == c.collection {
			c.collectionID = col.ID
			c.logger.Info("Collection found",
				zap.String("name", c.collection), zap.String("id", c.collectionID))
			return c.collectionID, nil
		}
	}

	var created collectionInfo
	if err := c.postJSON(ctx, "create_collection", c.collectionsURL(),
		map[string]string{"name": c.collection}, &created); err != nil {
		return "", err
	}
	c.collectionID = created.ID
	c.logger.Info("Collection created",
		zap.String("name", c.collection), zap.String("id", c.collectionID))
	return c.collectionID, nil
}

// Upsert stores the batch of embedded documents. An empty batch is a logged
// no-op, not an error.
func (c *Client) Upsert(ctx context.Context, collectionID string, docs []domain.Document) error {
	if len(docs) == 0 {
		c.logger.Warn("No documents to upsert")
		return nil
	}

	req := upsertRequest{
		IDs:        make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]string, len(docs)),
	}
	for i, doc := range docs {
		if !doc.Embedded() {
			return fmt.Errorf("document %s has no embedding: %w", doc.ID, domain.ErrInvalidInput)
		}
		req.IDs[i] = doc.ID
		req.Embeddings[i] = doc.Embedding
		req.Metadatas[i] = map[string]string{"content": doc.Content}
	}

	url := fmt.Sprintf("%s/%s/add", c.collectionsURL(), collectionID)
	if err := c.postJSON(ctx, "upsert", url, req, nil); err != nil {
		return err
	}
	c.logger.Info("Documents stored", zap.Int("count", len(docs)))
	return nil
}

// Query returns the content snippets of the k nearest neighbors, ranked by
// ascending distance. No matches is an empty slice, not an error.
func (c *Client) Query(ctx context.Context, collectionID string, vector []float32, k int) ([]string, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty: %w", domain.ErrInvalidInput)
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        k,
		Include:         []string{"metadatas"},
	}
	var resp queryResponse
	url := fmt.Sprintf("%s/%s/query", c.collectionsURL(), collectionID)
	if err := c.postJSON(ctx, "query", url, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Metadatas) == 0 {
		c.logger.Warn("No relevant documents found")
		return nil, nil
	}
	contents := make([]string, 0, len(resp.Metadatas[0]))
	for _, meta := range resp.Metadatas[0] {
		contents = append(contents, meta["content"])
	}
	if len(contents) == 0 {
		c.logger.Warn("No relevant documents found")
	}
	return contents, nil
}

func (c *Client) collectionsURL() string {
	return fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s/collections", c.baseURL, c.tenant, c.database)
}

func (c *Client) getJSON(ctx context.Context, operation, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.doJSON(operation, req, out)
}

func (c *Client) postJSON(ctx context.Context, operation, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(operation, req, out)
}

func (c *Client) doJSON(operation string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(operation, "error").Inc()
		c.logger.Error("Store request failed", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, domain.ErrStoreUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		metrics.StoreRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("%s %s returned %s: %w",
			req.Method, req.URL.Path, resp.Status, domain.ErrStoreUnavailable)
	}

	metrics.StoreRequestsTotal.WithLabelValues(operation, "success").Inc()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, domain.ErrDecode)
	}
	return nil
}
