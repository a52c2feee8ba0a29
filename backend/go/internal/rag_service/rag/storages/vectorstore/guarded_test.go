package vectorstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/schema"
	"dataroom/backend/go/pkg/circuitbreaker"

	"github.com/stretchr/testify/assert"
)

type flakyStore struct {
	calls int
	err   error
}

func (f *flakyStore) EnsureCollection(context.Context, schema.CollectionSchema) error { return nil }
func (f *flakyStore) InsertBatch(context.Context, string, []models.ChunkRecord) error {
	f.calls++
	return f.err
}
func (f *flakyStore) QueryNearText(context.Context, string, string, int) ([]interfaces.Hit, error) {
	f.calls++
	return nil, f.err
}
func (f *flakyStore) DeleteByDocument(context.Context, string, string) error {
	f.calls++
	return f.err
}
func (f *flakyStore) Close() error { return nil }

func TestGuardedStoreOpensAfterFailures(t *testing.T) {
	inner := &flakyStore{err: errors.New("dial tcp: connection refused")}
	g := NewGuardedStore(inner, circuitbreaker.New(circuitbreaker.Settings{FailureThreshold: 2, Timeout: time.Minute}))
	ctx := context.Background()

	_, err := g.QueryNearText(ctx, "c", "q", 5)
	assert.Error(t, err)
	assert.Error(t, g.InsertBatch(ctx, "c", nil))

	err = g.DeleteByDocument(ctx, "c", "d")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
}

func TestGuardedStoreIgnoresCancellation(t *testing.T) {
	inner := &flakyStore{err: context.Canceled}
	g := NewGuardedStore(inner, circuitbreaker.New(circuitbreaker.Settings{FailureThreshold: 1, Timeout: time.Minute}))

	for i := 0; i < 3; i++ {
		_, err := g.QueryNearText(context.Background(), "c", "q", 5)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 3, inner.calls)
}

func TestGuardedStoreIgnoresOversizedChunks(t *testing.T) {
	inner := &flakyStore{err: ErrChunkTooLong}
	g := NewGuardedStore(inner, circuitbreaker.New(circuitbreaker.Settings{FailureThreshold: 1, Timeout: time.Minute}))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, g.InsertBatch(context.Background(), "c", nil), ErrChunkTooLong)
	}
	assert.Equal(t, 3, inner.calls)
}
