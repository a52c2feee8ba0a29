package interfaces

import (
	"context"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/schema"
)

// Loader extracts plain text from an uploaded file.
type Loader interface {
	Load(ctx context.Context, fileName string, data []byte) (string, error)
}

// Splitter turns raw document text into chunk texts.
type Splitter interface {
	Split(content string) []string
}

// Hit is one raw nearest-neighbour match. A backend reports either a
// similarity (higher is closer) or a distance (lower is closer), or neither.
type Hit struct {
	Record     models.ChunkRecord
	Similarity *float64
	Distance   *float64
}

// VectorStore is the narrow port the RAG core needs from a vector database.
// Implementations own vectorization: QueryNearText takes free text.
type VectorStore interface {
	// EnsureCollection creates the collection with the given schema if absent.
	EnsureCollection(ctx context.Context, s schema.CollectionSchema) error
	// InsertBatch writes all records in one backend call.
	InsertBatch(ctx context.Context, collection string, records []models.ChunkRecord) error
	// QueryNearText returns up to limit records closest to text, best first.
	QueryNearText(ctx context.Context, collection, text string, limit int) ([]Hit, error)
	// DeleteByDocument removes every record whose documentId matches.
	DeleteByDocument(ctx context.Context, collection, documentID string) error
	Close() error
}

// DocumentArchive keeps the raw text of uploaded documents.
type DocumentArchive interface {
	Put(ctx context.Context, projectID string, doc models.Document) error
	Get(ctx context.Context, projectID, documentID string) (models.Document, error)
	Delete(ctx context.Context, projectID, documentID string) error
}

// EventPublisher announces index changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.IndexEvent) error
	Close() error
}
