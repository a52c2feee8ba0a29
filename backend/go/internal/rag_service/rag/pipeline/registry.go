package pipeline

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Connector builds a ready facade for a project.
type Connector func(ctx context.Context, projectID string) (*ProjectRag, error)

// Registry memoizes one ProjectRag per project. Concurrent first requests for
// the same project share a single Connect, which does not inherit the first
// caller's cancellation; a failed Connect is not cached. Entries live until
// the process exits.
type Registry struct {
	connect Connector
	group   singleflight.Group

	mu   sync.RWMutex
	rags map[string]*ProjectRag
}

// NewRegistry creates an empty registry that opens projects with connect.
func NewRegistry(connect Connector) *Registry {
	return &Registry{
		connect: connect,
		rags:    make(map[string]*ProjectRag),
	}
}

// GetOrCreate returns the project's facade, connecting on first use.
func (r *Registry) GetOrCreate(ctx context.Context, projectID string) (*ProjectRag, error) {
	if projectID == "" {
		return nil, ErrEmptyProjectID
	}
	if rag, ok := r.Get(projectID); ok {
		return rag, nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(projectID, func() (interface{}, error) {
		if rag, ok := r.Get(projectID); ok {
			return rag, nil
		}
		rag, err := r.connect(shared, projectID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.rags[projectID] = rag
		r.mu.Unlock()
		return rag, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProjectRag), nil
}

// Get returns an already-connected facade.
func (r *Registry) Get(projectID string) (*ProjectRag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rag, ok := r.rags[projectID]
	return rag, ok
}

// Len is the number of connected projects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rags)
}

// ProjectIDs lists connected projects in sorted order.
func (r *Registry) ProjectIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rags))
	for id := range r.rags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
