package akdclient

import (
	"context"
	"sync"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// MemoryDirectoryClient is an in-process DirectoryClient test double:
// blobs are published directly into it by a test rather than fetched over
// the network, letting NamespaceAuditor tests drive the audit loop without
// any object-store dependency.
type MemoryDirectoryClient struct {
	mu    sync.RWMutex
	blobs map[string]map[akdwatch.Epoch]ProofBlob
	names map[string]map[akdwatch.Epoch]AuditBlobName
}

func NewMemoryDirectoryClient() *MemoryDirectoryClient {
	return &MemoryDirectoryClient{
		blobs: make(map[string]map[akdwatch.Epoch]ProofBlob),
		names: make(map[string]map[akdwatch.Epoch]AuditBlobName),
	}
}

// Publish makes a proof blob available as if a directory server had
// published it for logDirectory, keyed by the epoch the proof extends
// from.
func (c *MemoryDirectoryClient) Publish(logDirectory string, fromEpoch akdwatch.Epoch, proof ProofBlob) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := AuditBlobName{Epoch: proof.EndEpoch, PreviousHash: proof.PreviousHash, CurrentHash: proof.EndHash}

	if c.blobs[logDirectory] == nil {
		c.blobs[logDirectory] = make(map[akdwatch.Epoch]ProofBlob)
		c.names[logDirectory] = make(map[akdwatch.Epoch]AuditBlobName)
	}
	c.blobs[logDirectory][fromEpoch] = proof
	c.names[logDirectory][fromEpoch] = name
}

func (c *MemoryDirectoryClient) HasProof(_ context.Context, logDirectory string, epoch akdwatch.Epoch) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blobs[logDirectory][epoch]
	return ok, nil
}

func (c *MemoryDirectoryClient) ProofName(_ context.Context, logDirectory string, epoch akdwatch.Epoch) (AuditBlobName, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[logDirectory][epoch]
	if !ok {
		return AuditBlobName{}, ErrProofNotFound
	}
	return name, nil
}

func (c *MemoryDirectoryClient) FetchProof(_ context.Context, logDirectory string, name AuditBlobName) (ProofBlob, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for epoch, n := range c.names[logDirectory] {
		if n == name {
			return c.blobs[logDirectory][epoch], nil
		}
	}
	return ProofBlob{}, ErrProofNotFound
}
