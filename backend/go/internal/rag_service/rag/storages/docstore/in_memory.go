package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
)

// ErrNotFound is returned when an archived document does not exist.
var ErrNotFound = errors.New("document not found")

// InMemoryArchive is a thread-safe, in-memory DocumentArchive. Keys are
// prefixed with the project id so projects never see each other's documents.
type InMemoryArchive struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

// NewInMemoryArchive creates an empty archive.
func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{
		docs: make(map[string]models.Document),
	}
}

// tenantKey generates a key that is unique for a given project and document ID.
func tenantKey(projectID, docID string) string {
	return fmt.Sprintf("%s:%s", projectID, docID)
}

// Put stores or replaces a document.
func (s *InMemoryArchive) Put(_ context.Context, projectID string, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[tenantKey(projectID, doc.ID)] = doc
	return nil
}

// Get returns a stored document or ErrNotFound.
func (s *InMemoryArchive) Get(_ context.Context, projectID, documentID string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[tenantKey(projectID, documentID)]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, projectID, documentID)
	}
	return doc, nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *InMemoryArchive) Delete(_ context.Context, projectID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, tenantKey(projectID, documentID))
	return nil
}

// compile-time check to ensure InMemoryArchive implements the DocumentArchive interface
var _ interfaces.DocumentArchive = (*InMemoryArchive)(nil)
