package signingkey

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRepository persists signing state to two files: a private one
// holding the current key plus every retired key's full private material,
// retained under their original key_id so past signatures remain
// verifiable indefinitely, and a publishable one holding only the
// verifying-key projection. The signing file is never read outside this
// package; the verifying file is what a read-API façade (out of scope
// here) would serve.
type FileRepository struct {
	mu          sync.Mutex
	signingPath string
	verifyPath  string
	lifetime    time.Duration
	now         func() time.Time

	current SigningKey
	retired map[uuid.UUID]SigningKey
}

// NewFileRepository loads signing state from dir/keys.json, generating and
// persisting a fresh current key if no state exists yet.
func NewFileRepository(dir string, lifetime time.Duration) (*FileRepository, error) {
	return newFileRepository(dir, lifetime, time.Now)
}

func newFileRepository(dir string, lifetime time.Duration, now func() time.Time) (*FileRepository, error) {
	r := &FileRepository{
		signingPath: filepath.Join(dir, "keys.json"),
		verifyPath:  filepath.Join(dir, "keys_verifying.json"),
		lifetime:    lifetime,
		now:         now,
		retired:     make(map[uuid.UUID]SigningKey),
	}

	doc, err := loadSigningDoc(r.signingPath)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		n := now()
		first, err := generate(n, n.Add(lifetime))
		if err != nil {
			return nil, err
		}
		r.current = first
		if err := r.persistLocked(); err != nil {
			return nil, err
		}
		return r, nil
	}

	r.current, err = doc.Current.toSigningKey()
	if err != nil {
		return nil, err
	}
	for _, rk := range doc.Retired {
		sk, err := rk.toSigningKey()
		if err != nil {
			return nil, err
		}
		r.retired[sk.KeyID] = sk
	}
	return r, nil
}

func (r *FileRepository) CurrentSigningKey(_ context.Context) (SigningKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.Expired(r.now()) {
		if err := r.rotateLocked(); err != nil {
			return SigningKey{}, err
		}
	}
	return r.current, nil
}

func (r *FileRepository) ForceRotation(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotateLocked()
}

// rotateLocked generates a fresh current key, retires the previous one,
// and persists the full state before returning so a racing reader can
// never observe a current key that isn't yet durable. Callers must hold
// r.mu.
func (r *FileRepository) rotateLocked() error {
	now := r.now()

	expired := r.current
	expired.NotAfter = now

	fresh, err := generate(now, now.Add(r.lifetime))
	if err != nil {
		return err
	}

	prevCurrent := r.current
	r.retired[expired.KeyID] = expired
	r.current = fresh

	if err := r.persistLocked(); err != nil {
		r.current = prevCurrent
		delete(r.retired, expired.KeyID)
		return err
	}
	return nil
}

func (r *FileRepository) VerifyingRepository() VerifyingKeyRepository {
	return &fileVerifyingRepository{path: r.verifyPath}
}

// persistLocked rewrites both the signing and verifying files. Callers
// must hold r.mu.
func (r *FileRepository) persistLocked() error {
	doc := signingDoc{Current: fromSigningKey(r.current)}
	for _, sk := range r.retired {
		doc.Retired = append(doc.Retired, fromSigningKey(sk))
	}
	if err := writeJSONAtomic(r.signingPath, doc); err != nil {
		return err
	}

	vdoc := verifyingDoc{Keys: make([]verifyingKeyJSON, 0, len(r.retired)+1)}
	vdoc.Keys = append(vdoc.Keys, fromVerifyingKey(r.current.Verifying()))
	for _, sk := range r.retired {
		vdoc.Keys = append(vdoc.Keys, fromVerifyingKey(sk.Verifying()))
	}
	if err := writeJSONAtomic(r.verifyPath, vdoc); err != nil {
		return err
	}
	return nil
}

// fileVerifyingRepository is a read-only view over the publishable
// verifying-key file. It reloads on every call rather than caching, so a
// key rotated by the owning FileRepository (in this process or another)
// becomes visible immediately; there is no in-memory state here to go
// stale.
type fileVerifyingRepository struct {
	mu   sync.Mutex
	path string
}

func (v *fileVerifyingRepository) Get(_ context.Context, keyID uuid.UUID) (VerifyingKey, bool, error) {
	keys, err := v.load()
	if err != nil {
		return VerifyingKey{}, false, err
	}
	for _, k := range keys {
		if k.KeyID == keyID {
			return k, true, nil
		}
	}
	return VerifyingKey{}, false, nil
}

func (v *fileVerifyingRepository) List(_ context.Context) ([]VerifyingKey, error) {
	return v.load()
}

func (v *fileVerifyingRepository) load() ([]VerifyingKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := os.ReadFile(v.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("signingkey: load verifying keys: %w", err)
	}
	var doc verifyingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("signingkey: decode verifying keys: %w", err)
	}
	out := make([]VerifyingKey, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		vk, err := k.toVerifyingKey()
		if err != nil {
			return nil, err
		}
		out = append(out, vk)
	}
	return out, nil
}

// --- on-disk JSON shapes ---

type signingDoc struct {
	Current signingKeyJSON   `json:"current"`
	Retired []signingKeyJSON `json:"retired,omitempty"`
}

type signingKeyJSON struct {
	Secret    string    `json:"secret"`
	KeyID     string    `json:"key_id"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
}

type verifyingDoc struct {
	Keys []verifyingKeyJSON `json:"keys"`
}

type verifyingKeyJSON struct {
	Public    string    `json:"public"`
	KeyID     string    `json:"key_id"`
	NotBefore time.Time `json:"not_before"`
}

func fromSigningKey(k SigningKey) signingKeyJSON {
	return signingKeyJSON{
		Secret:    hex.EncodeToString(k.Secret),
		KeyID:     k.KeyID.String(),
		NotBefore: k.NotBefore,
		NotAfter:  k.NotAfter,
	}
}

func fromVerifyingKey(k VerifyingKey) verifyingKeyJSON {
	return verifyingKeyJSON{
		Public:    hex.EncodeToString(k.Public),
		KeyID:     k.KeyID.String(),
		NotBefore: k.NotBefore,
	}
}

func (j signingKeyJSON) toSigningKey() (SigningKey, error) {
	id, err := uuid.Parse(j.KeyID)
	if err != nil {
		return SigningKey{}, fmt.Errorf("signingkey: bad key id %q: %w", j.KeyID, err)
	}
	secret, err := hex.DecodeString(j.Secret)
	if err != nil {
		return SigningKey{}, fmt.Errorf("signingkey: bad secret for key %s: %w", j.KeyID, err)
	}
	if len(secret) != ed25519.PrivateKeySize {
		return SigningKey{}, fmt.Errorf("signingkey: secret for key %s has wrong length %d", j.KeyID, len(secret))
	}
	return SigningKey{
		Secret:    ed25519.PrivateKey(secret),
		KeyID:     id,
		NotBefore: j.NotBefore,
		NotAfter:  j.NotAfter,
	}, nil
}

func (j verifyingKeyJSON) toVerifyingKey() (VerifyingKey, error) {
	id, err := uuid.Parse(j.KeyID)
	if err != nil {
		return VerifyingKey{}, fmt.Errorf("signingkey: bad key id %q: %w", j.KeyID, err)
	}
	pub, err := hex.DecodeString(j.Public)
	if err != nil {
		return VerifyingKey{}, fmt.Errorf("signingkey: bad public key for %s: %w", j.KeyID, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return VerifyingKey{}, fmt.Errorf("signingkey: public key for %s has wrong length %d", j.KeyID, len(pub))
	}
	return VerifyingKey{
		Public:    ed25519.PublicKey(pub),
		KeyID:     id,
		NotBefore: j.NotBefore,
	}, nil
}

func loadSigningDoc(path string) (*signingDoc, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("signingkey: load signing state: %w", err)
	}
	var doc signingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("signingkey: decode signing state: %w", err)
	}
	return &doc, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("signingkey: encode %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("signingkey: prepare key dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".keys-*.tmp")
	if err != nil {
		return fmt.Errorf("signingkey: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("signingkey: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("signingkey: sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("signingkey: close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("signingkey: rename %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
