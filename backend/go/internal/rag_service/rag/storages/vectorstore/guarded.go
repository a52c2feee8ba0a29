package vectorstore

import (
	"context"
	"errors"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/schema"
	"dataroom/backend/go/pkg/circuitbreaker"
)

// GuardedStore routes every call through a circuit breaker so that a dead
// backend is not hit by every request. Caller cancellations, missing
// collections and oversized chunks do not count as backend failures.
type GuardedStore struct {
	inner   interfaces.VectorStore
	breaker *circuitbreaker.Breaker
}

// NewGuardedStore wraps inner with breaker.
func NewGuardedStore(inner interfaces.VectorStore, breaker *circuitbreaker.Breaker) *GuardedStore {
	return &GuardedStore{inner: inner, breaker: breaker}
}

func notBackendFailure(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrChunkTooLong)
}

func (g *GuardedStore) EnsureCollection(ctx context.Context, cs schema.CollectionSchema) error {
	return g.breaker.Execute(func() error {
		return g.inner.EnsureCollection(ctx, cs)
	}, notBackendFailure)
}

func (g *GuardedStore) InsertBatch(ctx context.Context, collection string, records []models.ChunkRecord) error {
	return g.breaker.Execute(func() error {
		return g.inner.InsertBatch(ctx, collection, records)
	}, notBackendFailure)
}

func (g *GuardedStore) QueryNearText(ctx context.Context, collection, text string, limit int) ([]interfaces.Hit, error) {
	var hits []interfaces.Hit
	err := g.breaker.Execute(func() error {
		var err error
		hits, err = g.inner.QueryNearText(ctx, collection, text, limit)
		return err
	}, notBackendFailure)
	return hits, err
}

func (g *GuardedStore) DeleteByDocument(ctx context.Context, collection, documentID string) error {
	return g.breaker.Execute(func() error {
		return g.inner.DeleteByDocument(ctx, collection, documentID)
	}, notBackendFailure)
}

func (g *GuardedStore) Close() error {
	return g.inner.Close()
}

var _ interfaces.VectorStore = (*GuardedStore)(nil)
