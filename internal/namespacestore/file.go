package namespacestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// FileRepository persists the whole namespace map as a single JSON
// document, read once on construction and rewritten atomically (write to a
// temp file in the same directory, then rename) after every mutating call.
// A crash at any point during a write leaves either the previous or the
// new document in place, never a partial one.
type FileRepository struct {
	mu       sync.RWMutex
	path     string
	m        map[string]akdwatch.NamespaceInfo
}

// NewFileRepository loads the namespace state file at path into memory.
// A missing file yields an empty repository; the file is created by the
// first mutating call.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{path: path, m: make(map[string]akdwatch.NamespaceInfo)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return r, nil
	case err != nil:
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.m); err != nil {
		return nil, &PersistenceError{Op: "decode", Err: err}
	}
	return r, nil
}

func (r *FileRepository) Get(_ context.Context, name string) (akdwatch.NamespaceInfo, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.m[name]
	if !ok {
		return akdwatch.NamespaceInfo{}, false, nil
	}
	return info.Clone(), true, nil
}

func (r *FileRepository) List(_ context.Context) ([]akdwatch.NamespaceInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]akdwatch.NamespaceInfo, 0, len(r.m))
	for _, info := range r.m {
		out = append(out, info.Clone())
	}
	return out, nil
}

func (r *FileRepository) Add(_ context.Context, info akdwatch.NamespaceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[info.Name]; ok {
		return ErrAlreadyExists
	}
	r.m[info.Name] = info.Clone()
	if err := r.persistLocked(); err != nil {
		delete(r.m, info.Name)
		return err
	}
	return nil
}

func (r *FileRepository) Update(_ context.Context, info akdwatch.NamespaceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.m[info.Name]
	if !ok {
		return ErrNotFound
	}
	r.m[info.Name] = info.Clone()
	if err := r.persistLocked(); err != nil {
		r.m[info.Name] = prev
		return err
	}
	return nil
}

func (r *FileRepository) Remove(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.m[name]
	if !ok {
		return ErrNotFound
	}
	delete(r.m, name)
	if err := r.persistLocked(); err != nil {
		r.m[name] = prev
		return err
	}
	return nil
}

// persistLocked rewrites the whole document. Callers must hold r.mu.
func (r *FileRepository) persistLocked() error {
	data, err := json.MarshalIndent(r.m, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".namespaces-*.tmp")
	if err != nil {
		return &PersistenceError{Op: "persist", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "persist", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "persist", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Op: "persist", Err: err}
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return &PersistenceError{Op: "persist", Err: fmt.Errorf("rename into place: %w", err)}
	}
	return nil
}
