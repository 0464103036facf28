// Package namespacestore implements C1, the durable map of namespace name
// to akdwatch.NamespaceInfo. It is authoritative for last_verified_epoch
// and lifecycle status.
package namespacestore

import (
	"context"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// Repository is the contract every namespace store implementation
// satisfies, in memory or on disk.
type Repository interface {
	// Get returns the namespace info and true, or a zero value and false
	// if name is not present.
	Get(ctx context.Context, name string) (akdwatch.NamespaceInfo, bool, error)

	// List returns every namespace currently known, in unspecified order.
	List(ctx context.Context) ([]akdwatch.NamespaceInfo, error)

	// Add inserts a new namespace. Returns ErrAlreadyExists if name is
	// already present.
	Add(ctx context.Context, info akdwatch.NamespaceInfo) error

	// Update atomically replaces an existing namespace's record. Returns
	// ErrNotFound if absent.
	Update(ctx context.Context, info akdwatch.NamespaceInfo) error

	// Remove deletes a namespace. Returns ErrNotFound if absent.
	Remove(ctx context.Context, name string) error
}
