package domain

// Document is a single corpus entry flowing through the ingestion pipeline.
// IDs are assigned sequentially starting at "1" within a run. The embedding
// stays empty until computed; a document is never upserted without one.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
}

// Embedded reports whether the document carries a computed embedding.
func (d Document) Embedded() bool {
	return len(d.Embedding) > 0
}
