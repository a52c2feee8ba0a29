package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"dataroom/backend/go/internal/embedding"
	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/schema"
)

// ErrCollectionNotFound is returned when a collection was never ensured.
var ErrCollectionNotFound = errors.New("collection not found")

type memCollection struct {
	schema  schema.CollectionSchema
	records []models.ChunkRecord
	vectors [][]float32
}

// MemoryStore is an in-process VectorStore using brute-force cosine similarity.
// It is shared across projects; each collection is isolated.
type MemoryStore struct {
	mu          sync.RWMutex
	embedder    embedding.Embedding
	collections map[string]*memCollection
}

func NewMemoryStore(embedder embedding.Embedding) *MemoryStore {
	return &MemoryStore{
		embedder:    embedder,
		collections: make(map[string]*memCollection),
	}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, cs schema.CollectionSchema) error {
	if cs.Name == "" {
		return errors.New("collection name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[cs.Name]; !ok {
		s.collections[cs.Name] = &memCollection{schema: cs}
	}
	return nil
}

func (s *MemoryStore) InsertBatch(ctx context.Context, collection string, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Content
	}
	// Vectorize outside the lock.
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to vectorize chunks: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(records))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	c.records = append(c.records, records...)
	c.vectors = append(c.vectors, vectors...)
	return nil
}

func (s *MemoryStore) QueryNearText(ctx context.Context, collection, text string, limit int) ([]interfaces.Hit, error) {
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(c.vectors))
	for i, v := range c.vectors {
		ranked[i] = scored{idx: i, score: cosine(query, v)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if limit > len(ranked) || limit < 0 {
		limit = len(ranked)
	}
	hits := make([]interfaces.Hit, 0, limit)
	for _, r := range ranked[:limit] {
		score := r.score
		hits = append(hits, interfaces.Hit{Record: c.records[r.idx], Similarity: &score})
	}
	return hits, nil
}

func (s *MemoryStore) DeleteByDocument(_ context.Context, collection, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	records := c.records[:0]
	vectors := c.vectors[:0]
	for i, r := range c.records {
		if r.DocumentID != documentID {
			records = append(records, r)
			vectors = append(vectors, c.vectors[i])
		}
	}
	c.records, c.vectors = records, vectors
	return nil
}

// Count returns the number of records in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[collection]; ok {
		return len(c.records)
	}
	return 0
}

// Collections lists the names of all ensured collections.
func (s *MemoryStore) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MemoryStore) Close() error {
	return nil
}

// cosine returns 0 when either vector is zero.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ interfaces.VectorStore = (*MemoryStore)(nil)
