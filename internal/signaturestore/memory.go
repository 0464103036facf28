package signaturestore

import (
	"context"
	"sync"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/epochsig"
)

type key struct {
	namespace string
	epoch     akdwatch.Epoch
}

// MemoryRepository is a process-local Repository backed by a guarded map,
// used for tests and for signature_storage type InMemory (the default).
type MemoryRepository struct {
	mu   sync.RWMutex
	sigs map[key]epochsig.EpochSignature
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sigs: make(map[key]epochsig.EpochSignature)}
}

func (m *MemoryRepository) Has(_ context.Context, namespace string, epoch akdwatch.Epoch) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sigs[key{namespace, epoch}]
	return ok, nil
}

func (m *MemoryRepository) Get(_ context.Context, namespace string, epoch akdwatch.Epoch) (epochsig.EpochSignature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sig, ok := m.sigs[key{namespace, epoch}]
	if !ok {
		return epochsig.EpochSignature{}, ErrNotFound
	}
	return sig, nil
}

func (m *MemoryRepository) Set(_ context.Context, sig epochsig.EpochSignature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sigs[key{sig.Namespace, sig.Epoch}] = sig
	return nil
}
