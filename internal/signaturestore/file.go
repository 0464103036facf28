package signaturestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/epochsig"
)

// FileRepository persists each signature under
// root/<namespace>/<epoch>/sig, using epochsig's binary envelope codec.
// One directory per epoch keeps concurrent writers to different epochs
// lock-free at the filesystem level; the in-process mutex only protects
// directory creation and the rename sequence for a given call.
type FileRepository struct {
	mu   sync.Mutex
	root string
}

func NewFileRepository(root string) *FileRepository {
	return &FileRepository{root: root}
}

func (f *FileRepository) path(namespace string, epoch akdwatch.Epoch) string {
	return filepath.Join(f.root, namespace, fmt.Sprintf("%020d", uint64(epoch)), "sig")
}

func (f *FileRepository) Has(_ context.Context, namespace string, epoch akdwatch.Epoch) (bool, error) {
	_, err := os.Stat(f.path(namespace, epoch))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "stat", Err: err}
	}
	return true, nil
}

func (f *FileRepository) Get(_ context.Context, namespace string, epoch akdwatch.Epoch) (epochsig.EpochSignature, error) {
	data, err := os.ReadFile(f.path(namespace, epoch))
	if os.IsNotExist(err) {
		return epochsig.EpochSignature{}, ErrNotFound
	}
	if err != nil {
		return epochsig.EpochSignature{}, &PersistenceError{Op: "read", Err: err}
	}
	sig, err := epochsig.Decode(data)
	if err != nil {
		return epochsig.EpochSignature{}, &PersistenceError{Op: "decode", Err: err}
	}
	return sig, nil
}

func (f *FileRepository) Set(_ context.Context, sig epochsig.EpochSignature) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.path(sig.Namespace, sig.Epoch)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &PersistenceError{Op: "mkdir", Err: err}
	}

	data := epochsig.Encode(sig)
	tmp, err := os.CreateTemp(dir, ".sig-*.tmp")
	if err != nil {
		return &PersistenceError{Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &PersistenceError{Op: "rename", Err: err}
	}
	return nil
}
