// Package app implements C7, AuditorApp: wiring every component together
// from configuration, fanning out one NamespaceAuditor per namespace, and
// coordinating shutdown.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitwarden/akd-watch/internal/akdclient"
	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/auditor"
	"github.com/bitwarden/akd-watch/internal/config"
	"github.com/bitwarden/akd-watch/internal/epochsig"
	"github.com/bitwarden/akd-watch/internal/namespacestore"
	"github.com/bitwarden/akd-watch/internal/obslog"
	"github.com/bitwarden/akd-watch/internal/signaturestore"
	"github.com/bitwarden/akd-watch/internal/signingkey"
)

// AuditorApp owns the shared stores, one NamespaceAuditor per configured
// namespace, and the shutdown broadcast all workers listen on.
type AuditorApp struct {
	Namespaces namespacestore.Repository
	Keys       signingkey.Repository

	workers  []*auditor.NamespaceAuditor
	shutdown chan struct{}
	log      obslog.Logger
}

// Deps supplies the collaborators config.Config alone cannot construct:
// the AKD directory client and the append-only verifier dispatch, both of
// which depend on live network/crypto wiring out of config's scope.
type Deps struct {
	Directory akdclient.DirectoryClient
	Verifiers auditor.AppendOnlyVerifier
	Log       obslog.Logger
}

// Build constructs an AuditorApp from cfg: one NamespaceRepository, one
// SigningKeyRepository, one SignatureRepository per namespace, and one
// NamespaceAuditor worker per namespace, reconciled against any existing
// namespace state.
func Build(ctx context.Context, cfg config.Config, deps Deps) (*AuditorApp, error) {
	log := deps.Log
	if log == nil {
		log = obslog.Noop{}
	}

	namespaces, err := buildNamespaceRepository(cfg.NamespaceStorage)
	if err != nil {
		return nil, fmt.Errorf("app: build namespace repository: %w", err)
	}

	keys, err := buildSigningKeyRepository(cfg.Signing)
	if err != nil {
		return nil, fmt.Errorf("app: build signing key repository: %w", err)
	}

	a := &AuditorApp{
		Namespaces: namespaces,
		Keys:       keys,
		shutdown:   make(chan struct{}),
		log:        log,
	}

	for _, nsCfg := range cfg.Namespaces {
		existing, ok, err := namespaces.Get(ctx, nsCfg.Name)
		if err != nil {
			return nil, fmt.Errorf("app: load existing namespace %s: %w", nsCfg.Name, err)
		}
		info, changed := reconcile(existing, ok, nsCfg)

		if !ok {
			if err := namespaces.Add(ctx, info); err != nil {
				return nil, fmt.Errorf("app: add namespace %s: %w", nsCfg.Name, err)
			}
		} else if changed {
			if err := namespaces.Update(ctx, info); err != nil {
				return nil, fmt.Errorf("app: update namespace %s: %w", nsCfg.Name, err)
			}
		}

		sigs, err := buildSignatureRepository(cfg.SignatureStorage, nsCfg.Name)
		if err != nil {
			return nil, fmt.Errorf("app: build signature repository for %s: %w", nsCfg.Name, err)
		}

		w := auditor.New()
		w.Name = nsCfg.Name
		w.Namespaces = namespaces
		w.Keys = keys
		w.Signatures = sigs
		w.Directory = deps.Directory
		w.Verifiers = deps.Verifiers
		w.SleepDuration = cfg.SleepDuration()
		w.Ciphersuite = epochsig.DefaultCiphersuite
		w.Shutdown = a.shutdown
		w.Log = log.With("namespace", nsCfg.Name)

		a.workers = append(a.workers, w)
	}

	return a, nil
}

// Run starts every worker and blocks until all have returned, either
// because they stopped cleanly (inactive namespace, shutdown) or hit a
// terminal failure. The returned errors are indexed identically to the
// configured namespace order; a nil entry means a clean stop.
func (a *AuditorApp) Run(ctx context.Context) []error {
	errs := make([]error, len(a.workers))
	var wg sync.WaitGroup
	wg.Add(len(a.workers))

	for i, w := range a.workers {
		i, w := i, w
		go func() {
			defer wg.Done()
			errs[i] = w.Run(ctx)
		}()
	}

	wg.Wait()
	return errs
}

// Shutdown broadcasts to every worker's interruptible sleep. It is safe to
// call exactly once.
func (a *AuditorApp) Shutdown() {
	close(a.shutdown)
}

// ClearFailureStatus is the administrative operation that resets a
// namespace stuck in a sticky failure status back to Initialization so
// operator-driven remediation (out of scope here) can restart auditing.
// last_verified_epoch is cleared too if it predates starting_epoch,
// mirroring the same rule reconcile applies on configuration reload.
func (a *AuditorApp) ClearFailureStatus(ctx context.Context, name string) error {
	info, ok, err := a.Namespaces.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("app: load namespace %s: %w", name, err)
	}
	if !ok {
		return namespacestore.ErrNotFound
	}
	if !info.Status.IsSticky() {
		return nil
	}

	info.Status = akdwatch.StatusInitialization
	if info.LastVerifiedEpoch != nil && *info.LastVerifiedEpoch < info.StartingEpoch {
		info.LastVerifiedEpoch = nil
	}
	return a.Namespaces.Update(ctx, info)
}

func buildNamespaceRepository(cfg config.StorageConfig) (namespacestore.Repository, error) {
	switch cfg.Type {
	case "", config.StorageTypeInMemory:
		return namespacestore.NewMemoryRepository(), nil
	case config.StorageTypeFile:
		if cfg.StateFile == "" {
			return nil, fmt.Errorf("namespace_storage: type File requires state_file")
		}
		return namespacestore.NewFileRepository(cfg.StateFile)
	default:
		return nil, fmt.Errorf("namespace_storage: unsupported type %q", cfg.Type)
	}
}

func buildSigningKeyRepository(cfg config.SigningConfig) (signingkey.Repository, error) {
	if cfg.KeyDir == "" {
		return signingkey.NewMemoryRepository(cfg.KeyLifetime())
	}
	return signingkey.NewFileRepository(cfg.KeyDir, cfg.KeyLifetime())
}

func buildSignatureRepository(cfg config.StorageConfig, namespace string) (signaturestore.Repository, error) {
	switch cfg.Type {
	case "", config.StorageTypeInMemory:
		return signaturestore.NewMemoryRepository(), nil
	case config.StorageTypeFile:
		if cfg.Directory == "" {
			return nil, fmt.Errorf("signature_storage: type File requires directory")
		}
		return signaturestore.NewFileRepository(cfg.Directory), nil
	case config.StorageTypeAzure:
		return nil, fmt.Errorf("signature_storage: type Azure is reserved, not implemented")
	default:
		return nil, fmt.Errorf("signature_storage: unsupported type %q", cfg.Type)
	}
}
