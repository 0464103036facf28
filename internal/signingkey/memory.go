package signingkey

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is the in-memory Repository implementation. It holds no
// durable state; on process restart all retained keys are lost.
type MemoryRepository struct {
	mu       sync.Mutex
	lifetime time.Duration
	now      func() time.Time

	current SigningKey
	retired map[uuid.UUID]VerifyingKey
}

// NewMemoryRepository generates an initial current key valid for lifetime
// and returns a repository around it.
func NewMemoryRepository(lifetime time.Duration) (*MemoryRepository, error) {
	return newMemoryRepository(lifetime, time.Now)
}

func newMemoryRepository(lifetime time.Duration, now func() time.Time) (*MemoryRepository, error) {
	n := now()
	first, err := generate(n, n.Add(lifetime))
	if err != nil {
		return nil, err
	}
	return &MemoryRepository{
		lifetime: lifetime,
		now:      now,
		current:  first,
		retired:  make(map[uuid.UUID]VerifyingKey),
	}, nil
}

func (r *MemoryRepository) CurrentSigningKey(_ context.Context) (SigningKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.Expired(r.now()) {
		if err := r.rotateLocked(); err != nil {
			return SigningKey{}, err
		}
	}
	return r.current, nil
}

func (r *MemoryRepository) ForceRotation(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotateLocked()
}

// rotateLocked generates a fresh current key and retires the previous one
// for future verification. Callers must hold r.mu.
func (r *MemoryRepository) rotateLocked() error {
	now := r.now()

	expired := r.current
	expired.NotAfter = now
	r.retired[expired.KeyID] = expired.Verifying()

	fresh, err := generate(now, now.Add(r.lifetime))
	if err != nil {
		return err
	}
	r.current = fresh
	return nil
}

func (r *MemoryRepository) VerifyingRepository() VerifyingKeyRepository {
	return &memoryVerifyingRepository{repo: r}
}

type memoryVerifyingRepository struct {
	repo *MemoryRepository
}

func (v *memoryVerifyingRepository) Get(_ context.Context, keyID uuid.UUID) (VerifyingKey, bool, error) {
	v.repo.mu.Lock()
	defer v.repo.mu.Unlock()
	if keyID == v.repo.current.KeyID {
		return v.repo.current.Verifying(), true, nil
	}
	vk, ok := v.repo.retired[keyID]
	return vk, ok, nil
}

func (v *memoryVerifyingRepository) List(_ context.Context) ([]VerifyingKey, error) {
	v.repo.mu.Lock()
	defer v.repo.mu.Unlock()
	out := make([]VerifyingKey, 0, len(v.repo.retired)+1)
	out = append(out, v.repo.current.Verifying())
	for _, vk := range v.repo.retired {
		out = append(out, vk)
	}
	return out, nil
}
