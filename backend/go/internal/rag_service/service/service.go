package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/loaders"
	"dataroom/backend/go/internal/rag_service/rag/pipeline"
	"dataroom/backend/go/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrCatalogUnavailable is returned by Projects when no catalog is configured.
	ErrCatalogUnavailable = errors.New("project catalog is not configured")
	// ErrEmptyUpload is returned when an upload carries no bytes.
	ErrEmptyUpload = errors.New("uploaded file is empty")
)

// Catalog records which projects have collections and how many documents
// they hold. Implemented by dal.ProjectDAL.
type Catalog interface {
	Touch(ctx context.Context, projectID, collection string, delta int64) error
	ListProjects(ctx context.Context) ([]*models.Project, error)
}

// Deps are the collaborators of a Server. Archive and Catalog are optional;
// a nil Events publishes nothing.
type Deps struct {
	Registry *pipeline.Registry
	Loader   interfaces.Loader
	Archive  interfaces.DocumentArchive
	Events   interfaces.EventPublisher
	Catalog  Catalog
	Log      *logger.Logger
	Now      func() time.Time
}

// Server is the calling workflow around the per-project RAG facades: it
// resolves the facade, runs the core operation, then archives, records and
// announces the change. Side effects after a successful index never fail the
// request; they are logged instead.
type Server struct {
	registry *pipeline.Registry
	loader   interfaces.Loader
	archive  interfaces.DocumentArchive
	events   interfaces.EventPublisher
	catalog  Catalog
	log      *logger.Logger
	now      func() time.Time
}

// UploadResult describes a document created from an uploaded file.
type UploadResult struct {
	DocumentID    string `json:"documentId"`
	ChunksCreated int    `json:"chunksCreated"`
}

// NewServer creates a workflow server.
func NewServer(deps Deps) *Server {
	s := &Server{
		registry: deps.Registry,
		loader:   deps.Loader,
		archive:  deps.Archive,
		events:   deps.Events,
		catalog:  deps.Catalog,
		log:      deps.Log,
		now:      deps.Now,
	}
	if s.loader == nil {
		s.loader = loaders.NewAutoLoader()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Index chunks and indexes one document, returning the number of chunks created.
func (s *Server) Index(ctx context.Context, projectID string, doc models.Document) (int, error) {
	return s.index(ctx, projectID, doc, (*pipeline.ProjectRag).IndexAnswer)
}

type indexFunc func(*pipeline.ProjectRag, context.Context, models.Document) ([]models.DocumentChunk, error)

func (s *Server) index(ctx context.Context, projectID string, doc models.Document, indexWith indexFunc) (int, error) {
	rag, err := s.registry.GetOrCreate(ctx, projectID)
	if err != nil {
		return 0, err
	}

	chunks, err := indexWith(rag, ctx, doc)
	if err != nil {
		return 0, err
	}
	s.log.Info(fmt.Sprintf("Indexed document %s into %s (%d chunks)", doc.ID, rag.CollectionName(), len(chunks)))

	if s.archive != nil {
		if err := s.archive.Put(ctx, projectID, doc); err != nil {
			s.log.WithField("documentId", doc.ID).Warn(fmt.Sprintf("Failed to archive document: %v", err))
		}
	}
	s.recordIndexed(ctx, rag, map[string]int{doc.ID: len(chunks)})
	return len(chunks), nil
}

// IndexChunks indexes pre-chunked content.
func (s *Server) IndexChunks(ctx context.Context, projectID string, chunks []models.DocumentChunk) (int, error) {
	rag, err := s.registry.GetOrCreate(ctx, projectID)
	if err != nil {
		return 0, err
	}

	indexed, err := rag.IndexChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	perDocument := make(map[string]int)
	for _, c := range indexed {
		perDocument[c.DocumentID]++
	}
	s.log.Info(fmt.Sprintf("Indexed %d chunks across %d documents into %s", len(indexed), len(perDocument), rag.CollectionName()))
	s.recordIndexed(ctx, rag, perDocument)
	return len(indexed), nil
}

// Upload extracts the text of an uploaded file and indexes it as a new
// document with a generated id.
func (s *Server) Upload(ctx context.Context, projectID, fileName string, data []byte, category string) (UploadResult, error) {
	if strings.TrimSpace(projectID) == "" {
		return UploadResult{}, pipeline.ErrEmptyProjectID
	}
	if len(data) == 0 {
		return UploadResult{}, ErrEmptyUpload
	}

	text, err := s.loader.Load(ctx, fileName, data)
	if err != nil {
		return UploadResult{}, err
	}

	doc := models.Document{
		ID:        uuid.New().String(),
		RawText:   text,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Category:  category,
	}
	n, err := s.index(ctx, projectID, doc, (*pipeline.ProjectRag).IndexFile)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{DocumentID: doc.ID, ChunksCreated: n}, nil
}

// Search runs a semantic query against a project's collection.
func (s *Server) Search(ctx context.Context, projectID, query string, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pipeline.ErrEmptyQuery
	}
	rag, err := s.registry.GetOrCreate(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return rag.Search(ctx, query, limit)
}

// RemoveDocument deletes a document's chunks and its archived text.
func (s *Server) RemoveDocument(ctx context.Context, projectID, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return pipeline.ErrMissingDocumentID
	}
	rag, err := s.registry.GetOrCreate(ctx, projectID)
	if err != nil {
		return err
	}
	if err := rag.RemoveDocument(ctx, documentID); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Removed document %s from %s", documentID, rag.CollectionName()))

	if s.archive != nil {
		if err := s.archive.Delete(ctx, projectID, documentID); err != nil {
			s.log.WithField("documentId", documentID).Warn(fmt.Sprintf("Failed to delete archived document: %v", err))
		}
	}
	s.touch(ctx, rag, -1)
	s.publish(ctx, models.IndexEvent{
		Action:     models.IndexActionRemoved,
		ProjectID:  projectID,
		DocumentID: documentID,
	})
	return nil
}

// Projects lists the project catalog.
func (s *Server) Projects(ctx context.Context) ([]*models.Project, error) {
	if s.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	return s.catalog.ListProjects(ctx)
}

// ActiveProjects is the number of projects with a connected facade.
func (s *Server) ActiveProjects() int {
	return s.registry.Len()
}

// IsBadRequest reports whether err was caused by the caller's input.
func IsBadRequest(err error) bool {
	return pipeline.IsValidation(err) ||
		errors.Is(err, ErrEmptyUpload) ||
		errors.Is(err, loaders.ErrUnsupportedFormat) ||
		errors.Is(err, loaders.ErrBinaryContent)
}

func (s *Server) recordIndexed(ctx context.Context, rag *pipeline.ProjectRag, perDocument map[string]int) {
	s.touch(ctx, rag, int64(len(perDocument)))
	for documentID, n := range perDocument {
		s.publish(ctx, models.IndexEvent{
			Action:        models.IndexActionIndexed,
			ProjectID:     rag.ProjectID(),
			DocumentID:    documentID,
			ChunksCreated: n,
		})
	}
}

func (s *Server) touch(ctx context.Context, rag *pipeline.ProjectRag, delta int64) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Touch(ctx, rag.ProjectID(), rag.CollectionName(), delta); err != nil {
		s.log.WithField("projectId", rag.ProjectID()).Warn(fmt.Sprintf("Failed to update project catalog: %v", err))
	}
}

func (s *Server) publish(ctx context.Context, event models.IndexEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WithField("projectId", event.ProjectID).Warn(fmt.Sprintf("Failed to publish index event: %v", err))
	}
}
