// Package pipeline drives the end-to-end RAG flow: ingest a corpus into the
// vector store, then answer queries grounded on retrieved snippets.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragline/internal/domain"
	"github.com/kailas-cloud/ragline/internal/textnorm"
)

// promptTemplate grounds the generation call. The context section is present
// even when retrieval returned nothing.
const promptTemplate = "Context:\n%s\n\nQuery: %s\nAnswer precisely."

const defaultTopK = 2

// Service sequences loading, embedding, storage, retrieval, and generation,
// deciding per stage whether a failure aborts the run or drops one item.
type Service struct {
	source DocumentSource
	embed  Embedder
	gen    Generator
	store  VectorStore
	topK   int
	logger *zap.Logger
}

// New creates a pipeline service.
func New(source DocumentSource, embed Embedder, gen Generator, store VectorStore, logger *zap.Logger) *Service {
	return &Service{
		source: source,
		embed:  embed,
		gen:    gen,
		store:  store,
		topK:   defaultTopK,
		logger: logger,
	}
}

// WithTopK overrides the number of snippets retrieved per query.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// Ingest loads the corpus, embeds each document, and upserts the surviving
// batch. A failure embedding one document drops that document and continues;
// an empty corpus, a fully failed batch, or a failed upsert aborts the run.
// Returns the number of documents stored.
func (s *Service) Ingest(ctx context.Context, dir string) (int, error) {
	docs, err := s.source.Load(dir)
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("corpus %s yielded no documents: %w", dir, domain.ErrNoDocuments)
	}
	s.logger.Info("Documents loaded", zap.Int("count", len(docs)))

	collectionID, err := s.store.EnsureCollection(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve collection: %w", err)
	}

	embedded := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		content := textnorm.Normalize(doc.Content)
		vec, err := s.embed.Embed(ctx, content)
		if err != nil {
			// Isolated failure: drop this document, keep ingesting.
			s.logger.Error("Failed to embed document",
				zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		doc.Content = content
		doc.Embedding = vec
		embedded = append(embedded, doc)
		s.logger.Info("Embedding computed", zap.String("id", doc.ID))
	}

	if len(embedded) == 0 {
		return 0, fmt.Errorf("no documents could be embedded: %w", domain.ErrNoDocuments)
	}

	if err := s.store.Upsert(ctx, collectionID, embedded); err != nil {
		return 0, fmt.Errorf("upsert batch: %w", err)
	}
	s.logger.Info("Ingestion complete", zap.Int("stored", len(embedded)))
	return len(embedded), nil
}

// AnswerQuery embeds the query, retrieves the top-k nearest snippets, and
// generates a grounded answer. Every failure here is fatal to the query.
func (s *Service) AnswerQuery(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query is blank: %w", domain.ErrInvalidInput)
	}

	vec, err := s.embed.Embed(ctx, textnorm.Normalize(query))
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	collectionID, err := s.store.EnsureCollection(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve collection: %w", err)
	}

	snippets, err := s.store.Query(ctx, collectionID, vec, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve snippets: %w", err)
	}
	s.logger.Info("Relevant documents found", zap.Int("count", len(snippets)))

	prompt := fmt.Sprintf(promptTemplate, strings.Join(snippets, "\n"), query)
	answer, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}
