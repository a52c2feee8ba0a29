package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryConnectsOncePerProject(t *testing.T) {
	var calls int32
	reg := NewRegistry(func(ctx context.Context, projectID string) (*ProjectRag, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return Connect(ctx, projectID, factoryFor(&stubStore{}), Options{}, nil)
	})

	const n = 16
	rags := make([]*ProjectRag, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rag, err := reg.GetOrCreate(context.Background(), "p1")
			assert.NoError(t, err)
			rags[i] = rag
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, rag := range rags {
		assert.Same(t, rags[0], rag)
	}
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryDoesNotCacheFailures(t *testing.T) {
	fail := true
	reg := NewRegistry(func(ctx context.Context, projectID string) (*ProjectRag, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return Connect(ctx, projectID, factoryFor(&stubStore{}), Options{}, nil)
	})
	ctx := context.Background()

	_, err := reg.GetOrCreate(ctx, "p1")
	require.Error(t, err)
	assert.Equal(t, 0, reg.Len())

	fail = false
	rag, err := reg.GetOrCreate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", rag.ProjectID())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryKeepsProjectsSeparate(t *testing.T) {
	reg := NewRegistry(func(ctx context.Context, projectID string) (*ProjectRag, error) {
		return Connect(ctx, projectID, factoryFor(&stubStore{}), Options{}, nil)
	})
	ctx := context.Background()

	a, err := reg.GetOrCreate(ctx, "alpha")
	require.NoError(t, err)
	b, err := reg.GetOrCreate(ctx, "beta")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, []string{"alpha", "beta"}, reg.ProjectIDs())

	_, err = reg.GetOrCreate(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyProjectID)

	got, ok := reg.Get("alpha")
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegistryConnectOutlivesCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var connectErr error
	reg := NewRegistry(func(ctx context.Context, projectID string) (*ProjectRag, error) {
		close(started)
		<-release
		if connectErr = ctx.Err(); connectErr != nil {
			return nil, connectErr
		}
		return Connect(ctx, projectID, factoryFor(&stubStore{}), Options{}, nil)
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := reg.GetOrCreate(ctx, "p1")
		first <- err
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		_, err := reg.GetOrCreate(context.Background(), "p1")
		second <- err
	}()

	cancel()
	close(release)

	assert.NoError(t, <-first)
	assert.NoError(t, <-second)
	assert.NoError(t, connectErr)
	assert.Equal(t, 1, reg.Len())
}
