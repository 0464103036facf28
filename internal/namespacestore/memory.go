package namespacestore

import (
	"context"
	"sync"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// MemoryRepository is the in-memory Repository implementation: a map
// guarded by a sync.RWMutex. Go's runtime already biases the lock against
// reader starvation of a waiting writer, giving writers priority without
// any extra bookkeeping.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]akdwatch.NamespaceInfo
}

// NewMemoryRepository returns an empty in-memory namespace store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]akdwatch.NamespaceInfo)}
}

func (r *MemoryRepository) Get(_ context.Context, name string) (akdwatch.NamespaceInfo, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.m[name]
	if !ok {
		return akdwatch.NamespaceInfo{}, false, nil
	}
	return info.Clone(), true, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]akdwatch.NamespaceInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]akdwatch.NamespaceInfo, 0, len(r.m))
	for _, info := range r.m {
		out = append(out, info.Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Add(_ context.Context, info akdwatch.NamespaceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[info.Name]; ok {
		return ErrAlreadyExists
	}
	r.m[info.Name] = info.Clone()
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, info akdwatch.NamespaceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[info.Name]; !ok {
		return ErrNotFound
	}
	r.m[info.Name] = info.Clone()
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[name]; !ok {
		return ErrNotFound
	}
	delete(r.m, name)
	return nil
}
