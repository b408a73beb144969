package pipeline

import (
	"context"

	"github.com/kailas-cloud/ragline/internal/domain"
)

// DocumentSource enumerates a corpus directory into raw documents.
type DocumentSource interface {
	Load(dir string) ([]domain.Document, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorStore is the storage contract for ingestion and retrieval.
type VectorStore interface {
	EnsureCollection(ctx context.Context) (string, error)
	Upsert(ctx context.Context, collectionID string, docs []domain.Document) error
	Query(ctx context.Context, collectionID string, vector []float32, k int) ([]string, error)
}
