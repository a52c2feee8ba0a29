package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/schema"
	"dataroom/backend/go/internal/rag_service/rag/splitters"
	"dataroom/backend/go/pkg/logger"
)

// StoreFactory opens the vector store a project's facade talks to.
type StoreFactory func(ctx context.Context) (interfaces.VectorStore, error)

// Options configure every ProjectRag created from them.
type Options struct {
	CollectionSuffix string
	// Chunking splits answers passed to IndexAnswer.
	Chunking splitters.Config
	// FileChunking splits whole uploaded files passed to IndexFile.
	FileChunking splitters.Config
	Vectorizer   schema.VectorizerConfig
	DefaultLimit int
	// Now stamps chunks whose document carries no createdAt. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CollectionSuffix == "" {
		o.CollectionSuffix = "Answers"
	}
	if o.Chunking == (splitters.Config{}) {
		o.Chunking = splitters.IndexingConfig
	}
	if o.FileChunking == (splitters.Config{}) {
		o.FileChunking = splitters.DefaultConfig
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 5
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ProjectRag binds one project's chunking configuration, collection and
// vector store. A value returned by Connect is ready for use and stays valid
// for the life of the process.
type ProjectRag struct {
	projectID    string
	collection   string
	splitter     interfaces.Splitter
	fileSplitter interfaces.Splitter
	store        interfaces.VectorStore
	defaultLimit int
	now          func() time.Time
	log          *logger.Logger
}

// Connect opens the store, provisions the project's collection if missing and
// returns a ready facade. No partial facade is returned on failure.
func Connect(ctx context.Context, projectID string, newStore StoreFactory, opts Options, log *logger.Logger) (*ProjectRag, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrEmptyProjectID
	}
	opts = opts.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithField("projectId", projectID)

	splitter, err := splitters.NewSentenceSplitter(opts.Chunking)
	if err != nil {
		return nil, err
	}
	fileSplitter, err := splitters.NewSentenceSplitter(opts.FileChunking)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to connect to vector store: %v", err))
		return nil, &OpError{Op: OpConnect, Err: err}
	}

	collection := schema.ToCollectionName(projectID, opts.CollectionSuffix)
	if err := store.EnsureCollection(ctx, schema.NewChunkSchema(collection, opts.Vectorizer)); err != nil {
		log.Error(fmt.Sprintf("Failed to create collection %s: %v", collection, err))
		return nil, &OpError{Op: OpCreate, Err: err}
	}
	log.Info(fmt.Sprintf("Project RAG ready on collection %s", collection))

	return &ProjectRag{
		projectID:    projectID,
		collection:   collection,
		splitter:     splitter,
		fileSplitter: fileSplitter,
		store:        store,
		defaultLimit: opts.DefaultLimit,
		now:          opts.Now,
		log:          log,
	}, nil
}

// ProjectID returns the project the facade serves.
func (p *ProjectRag) ProjectID() string {
	return p.projectID
}

// CollectionName returns the backend collection holding the project's chunks.
func (p *ProjectRag) CollectionName() string {
	return p.collection
}

// RemoveDocument deletes every chunk indexed for documentID.
func (p *ProjectRag) RemoveDocument(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return ErrMissingDocumentID
	}
	if err := p.store.DeleteByDocument(ctx, p.collection, documentID); err != nil {
		p.log.Error(fmt.Sprintf("Failed to remove document %s: %v", documentID, err))
		return &OpError{Op: OpRemoveDocument, Err: err}
	}
	p.log.Info(fmt.Sprintf("Removed chunks of document %s", documentID))
	return nil
}
