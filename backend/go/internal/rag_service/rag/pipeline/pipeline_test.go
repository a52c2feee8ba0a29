package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"dataroom/backend/go/internal/embedding"
	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/schema"
	"dataroom/backend/go/internal/rag_service/rag/splitters"
	"dataroom/backend/go/internal/rag_service/rag/storages/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore records calls and fails on demand.
type stubStore struct {
	ensured    []schema.CollectionSchema
	inserts    [][]models.ChunkRecord
	queryLimit int
	deleted    []string
	hits       []interfaces.Hit

	ensureErr, insertErr, queryErr, deleteErr error
}

func (s *stubStore) EnsureCollection(_ context.Context, cs schema.CollectionSchema) error {
	s.ensured = append(s.ensured, cs)
	return s.ensureErr
}

func (s *stubStore) InsertBatch(_ context.Context, _ string, records []models.ChunkRecord) error {
	s.inserts = append(s.inserts, records)
	return s.insertErr
}

func (s *stubStore) QueryNearText(_ context.Context, _, _ string, limit int) ([]interfaces.Hit, error) {
	s.queryLimit = limit
	return s.hits, s.queryErr
}

func (s *stubStore) DeleteByDocument(_ context.Context, collection, documentID string) error {
	s.deleted = append(s.deleted, collection+"/"+documentID)
	return s.deleteErr
}

func (s *stubStore) Close() error { return nil }

func factoryFor(store interfaces.VectorStore) StoreFactory {
	return func(context.Context) (interfaces.VectorStore, error) { return store, nil }
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func connectStub(t *testing.T, store *stubStore, chunking splitters.Config) *ProjectRag {
	t.Helper()
	rag, err := Connect(context.Background(), "proj-1", factoryFor(store), Options{Chunking: chunking, Now: fixedNow}, nil)
	require.NoError(t, err)
	return rag
}

func connectMemory(t *testing.T, chunking splitters.Config) *ProjectRag {
	t.Helper()
	emb, err := embedding.NewHashingModel(256)
	require.NoError(t, err)
	store := vectorstore.NewMemoryStore(emb)
	rag, err := Connect(context.Background(), "proj-1", factoryFor(store), Options{Chunking: chunking}, nil)
	require.NoError(t, err)
	return rag
}

func TestIndexAndSearchSingleChunk(t *testing.T) {
	rag := connectMemory(t, splitters.DefaultConfig)
	ctx := context.Background()

	chunks, err := rag.IndexAnswer(ctx, models.Document{
		ID:      "doc-1",
		RawText: "Sentence one. Sentence two. Sentence three.",
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[0].TotalChunks)

	results, err := rag.Search(ctx, "sentence two", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-1", results[0].Chunk.DocumentID)
	assert.False(t, math.IsNaN(results[0].Score))
	assert.GreaterOrEqual(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, results[0].Score, 1.0)
	assert.Contains(t, results[0].Highlights, "Sentence two.")
}

func TestIndexAnswerOverlapsChunks(t *testing.T) {
	store := &stubStore{}
	rag := connectStub(t, store, splitters.Config{MaxChunkSize: 40, OverlapSize: 20, MinChunkSize: 10})

	chunks, err := rag.IndexAnswer(context.Background(), models.Document{
		ID:      "doc-2",
		RawText: "Alpha beta gamma. Delta epsilon zeta. Eta theta iota. Kappa lambda mu. Nu xi omicron.",
	})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	firstWords := strings.Fields(chunks[0].Content)
	tail := strings.Join(firstWords[len(firstWords)-2:], " ")
	assert.True(t, strings.HasPrefix(chunks[1].Content, tail), "%q should start with %q", chunks[1].Content, tail)
}

func TestIndexAnswerBuildsOneBatchWithSequentialIndexes(t *testing.T) {
	store := &stubStore{}
	rag := connectStub(t, store, splitters.Config{MaxChunkSize: 60, OverlapSize: 0, MinChunkSize: 10})

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("This is one of many sentences. ")
	}
	chunks, err := rag.IndexAnswer(context.Background(), models.Document{
		ID:       "doc-3",
		RawText:  sb.String(),
		Category: "finance",
	})
	require.NoError(t, err)

	require.Len(t, store.inserts, 1)
	records := store.inserts[0]
	require.Len(t, records, len(chunks))
	for i, r := range records {
		assert.Equal(t, int64(i), r.ChunkIndex)
		assert.Equal(t, int64(len(chunks)), r.TotalChunks)
		assert.Equal(t, models.ChunkID("doc-3", i), r.ChunkID)
		assert.Equal(t, "doc-3", r.DocumentID)
		assert.Equal(t, "finance", r.Category)
		assert.Equal(t, "2024-05-01T12:00:00Z", r.CreatedAt)
	}
}

func TestIndexAnswerKeepsDocumentCreatedAt(t *testing.T) {
	store := &stubStore{}
	rag := connectStub(t, store, splitters.DefaultConfig)

	_, err := rag.IndexAnswer(context.Background(), models.Document{ID: "d", RawText: "Hello.", CreatedAt: "2020-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "2020-01-01", store.inserts[0][0].CreatedAt)
}

func TestIndexFileUsesFileChunking(t *testing.T) {
	store := &stubStore{}
	rag, err := Connect(context.Background(), "proj-1", factoryFor(store), Options{
		Chunking:     splitters.Config{MaxChunkSize: 40, OverlapSize: 0, MinChunkSize: 10},
		FileChunking: splitters.Config{MaxChunkSize: 200, OverlapSize: 0, MinChunkSize: 10},
		Now:          fixedNow,
	}, nil)
	require.NoError(t, err)
	doc := models.Document{ID: "file-1", RawText: strings.Repeat("A short sentence here. ", 5)}

	answers, err := rag.IndexAnswer(context.Background(), doc)
	require.NoError(t, err)
	files, err := rag.IndexFile(context.Background(), doc)
	require.NoError(t, err)

	assert.Greater(t, len(answers), 1)
	require.Len(t, files, 1)
	assert.Equal(t, strings.TrimSpace(doc.RawText), files[0].Content)
	require.Len(t, store.inserts, 2)
}

func TestConnectRejectsInvalidFileChunking(t *testing.T) {
	_, err := Connect(context.Background(), "proj-1", factoryFor(&stubStore{}), Options{
		FileChunking: splitters.Config{MaxChunkSize: 10, MinChunkSize: 20},
	}, nil)
	assert.ErrorIs(t, err, splitters.ErrInvalidConfig)
}

func TestIndexAnswerFailureIsWrapped(t *testing.T) {
	boom := errors.New("insert rejected")
	store := &stubStore{insertErr: boom}
	rag := connectStub(t, store, splitters.DefaultConfig)

	_, err := rag.IndexAnswer(context.Background(), models.Document{ID: "d", RawText: "Some text."})

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to index answer:"), err.Error())
	assert.ErrorIs(t, err, boom)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpIndexAnswer, opErr.Op)
}

func TestIndexAnswerValidation(t *testing.T) {
	store := &stubStore{}
	rag := connectStub(t, store, splitters.DefaultConfig)
	ctx := context.Background()

	_, err := rag.IndexAnswer(ctx, models.Document{ID: "d", RawText: "  \n "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
	_, err = rag.IndexAnswer(ctx, models.Document{RawText: "text."})
	assert.ErrorIs(t, err, ErrMissingDocumentID)
	assert.True(t, IsValidation(err))
	assert.Empty(t, store.inserts)
}

func TestIndexChunksRenumbersPerDocument(t *testing.T) {
	store := &stubStore{}
	rag := connectStub(t, store, splitters.DefaultConfig)

	out, err := rag.IndexChunks(context.Background(), []models.DocumentChunk{
		{DocumentID: "a", Content: "a0", ChunkIndex: 7},
		{DocumentID: "b", Content: "b0"},
		{DocumentID: "a", Content: "a1", ID: "custom"},
	})
	require.NoError(t, err)
	require.Len(t, store.inserts, 1)

	assert.Equal(t, 0, out[0].ChunkIndex)
	assert.Equal(t, 2, out[0].TotalChunks)
	assert.Equal(t, "a_chunk_0", out[0].ID)
	assert.Equal(t, 0, out[1].ChunkIndex)
	assert.Equal(t, 1, out[1].TotalChunks)
	assert.Equal(t, 1, out[2].ChunkIndex)
	assert.Equal(t, "custom", out[2].ID)
}

func TestIndexChunksValidation(t *testing.T) {
	rag := connectStub(t, &stubStore{}, splitters.DefaultConfig)
	ctx := context.Background()

	_, err := rag.IndexChunks(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	_, err = rag.IndexChunks(ctx, []models.DocumentChunk{{Content: "x"}})
	assert.ErrorIs(t, err, ErrMissingDocumentID)
	_, err = rag.IndexChunks(ctx, []models.DocumentChunk{{DocumentID: "d", Content: " "}})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestSearchUsesDefaultLimitAndKeepsOrder(t *testing.T) {
	sim := func(f float64) *float64 { return &f }
	store := &stubStore{hits: []interfaces.Hit{
		{Record: models.ChunkRecord{ChunkID: "b_chunk_0", DocumentID: "b"}, Similarity: sim(0.2)},
		{Record: models.ChunkRecord{ChunkID: "a_chunk_0", DocumentID: "a"}, Similarity: sim(0.9)},
	}}
	rag := connectStub(t, store, splitters.DefaultConfig)

	results, err := rag.Search(context.Background(), "anything", 0)
	require.NoError(t, err)

	assert.Equal(t, 5, store.queryLimit)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Chunk.DocumentID)
	assert.Equal(t, "a", results[1].Chunk.DocumentID)
}

func TestSearchFailureIsWrapped(t *testing.T) {
	boom := errors.New("timeout")
	rag := connectStub(t, &stubStore{queryErr: boom}, splitters.DefaultConfig)

	results, err := rag.Search(context.Background(), "q", 3)

	assert.Nil(t, results)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to search:"), err.Error())
	assert.ErrorIs(t, err, boom)
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	rag := connectStub(t, &stubStore{}, splitters.DefaultConfig)

	_, err := rag.Search(context.Background(), "   ", 3)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestScore(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name string
		hit  interfaces.Hit
		want float64
	}{
		{"similarity", interfaces.Hit{Similarity: f(0.75)}, 0.75},
		{"similarity above one", interfaces.Hit{Similarity: f(1.4)}, 1},
		{"negative similarity", interfaces.Hit{Similarity: f(-0.3)}, 0},
		{"similarity wins over distance", interfaces.Hit{Similarity: f(0.5), Distance: f(9)}, 0.5},
		{"zero distance", interfaces.Hit{Distance: f(0)}, 1},
		{"distance", interfaces.Hit{Distance: f(3)}, 0.25},
		{"nan similarity falls back to distance", interfaces.Hit{Similarity: f(math.NaN()), Distance: f(1)}, 0.5},
		{"infinite distance", interfaces.Hit{Distance: f(math.Inf(1))}, 0},
		{"nothing", interfaces.Hit{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.hit), 1e-12)
		})
	}
}

func TestConnectProvisionsCollection(t *testing.T) {
	store := &stubStore{}
	rag, err := Connect(context.Background(), "acme/deal-7", factoryFor(store), Options{
		Vectorizer: schema.VectorizerConfig{Provider: "hashing", Dimension: 8},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Answers_acme_deal_7", rag.CollectionName())
	assert.Equal(t, "acme/deal-7", rag.ProjectID())
	require.Len(t, store.ensured, 1)
	assert.Equal(t, "Answers_acme_deal_7", store.ensured[0].Name)
	assert.Equal(t, 8, store.ensured[0].Vectorizer.Dimension)
}

func TestConnectFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("refused")

	_, err := Connect(ctx, "", factoryFor(&stubStore{}), Options{}, nil)
	assert.ErrorIs(t, err, ErrEmptyProjectID)

	_, err = Connect(ctx, "p", func(context.Context) (interfaces.VectorStore, error) { return nil, boom }, Options{}, nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to connect to vector store:"), err.Error())
	assert.ErrorIs(t, err, boom)

	_, err = Connect(ctx, "p", factoryFor(&stubStore{ensureErr: boom}), Options{}, nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to create collection:"), err.Error())

	_, err = Connect(ctx, "p", factoryFor(&stubStore{}), Options{Chunking: splitters.Config{MaxChunkSize: 10, MinChunkSize: 10}}, nil)
	assert.ErrorIs(t, err, splitters.ErrInvalidConfig)
}

func TestRemoveDocument(t *testing.T) {
	store := &stubStore{}
	rag := connectStub(t, store, splitters.DefaultConfig)

	require.NoError(t, rag.RemoveDocument(context.Background(), "doc-9"))
	assert.Equal(t, []string{"Answers_proj_1/doc-9"}, store.deleted)

	assert.ErrorIs(t, rag.RemoveDocument(context.Background(), ""), ErrMissingDocumentID)

	store.deleteErr = errors.New("nope")
	err := rag.RemoveDocument(context.Background(), "doc-9")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to remove document:"), err.Error())
}

func TestRemoveDocumentDropsSearchResults(t *testing.T) {
	rag := connectMemory(t, splitters.DefaultConfig)
	ctx := context.Background()

	_, err := rag.IndexAnswer(ctx, models.Document{ID: "gone", RawText: "The merger closes in June."})
	require.NoError(t, err)
	require.NoError(t, rag.RemoveDocument(ctx, "gone"))

	results, err := rag.Search(ctx, "merger", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHighlights(t *testing.T) {
	content := "Revenue rose. Costs fell. Revenue guidance was raised."

	assert.Equal(t, []string{"Revenue rose.", "Revenue guidance was raised."}, highlights(content, "revenue"))
	assert.Nil(t, highlights(content, "  "))
	assert.Empty(t, highlights(content, "headcount"))
}
