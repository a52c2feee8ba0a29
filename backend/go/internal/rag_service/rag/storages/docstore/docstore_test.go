package docstore

import (
	"context"
	"testing"

	"dataroom/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryArchiveRoundTrip(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()
	doc := models.Document{ID: "d1", RawText: "Board minutes.", Category: "governance"}

	require.NoError(t, a.Put(ctx, "p1", doc))

	got, err := a.Get(ctx, "p1", "d1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestInMemoryArchiveIsolatesProjects(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()
	require.NoError(t, a.Put(ctx, "p1", models.Document{ID: "d1"}))

	_, err := a.Get(ctx, "p2", "d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryArchiveDelete(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()
	require.NoError(t, a.Put(ctx, "p1", models.Document{ID: "d1"}))

	require.NoError(t, a.Delete(ctx, "p1", "d1"))
	require.NoError(t, a.Delete(ctx, "p1", "never-existed"))

	_, err := a.Get(ctx, "p1", "d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "p1/d1.json", ObjectKey("p1", "d1"))
}
