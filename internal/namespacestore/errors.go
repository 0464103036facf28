package namespacestore

import "errors"

var (
	// ErrNotFound is returned by Update and Remove when the namespace does
	// not exist, and by Get indirectly via a (NamespaceInfo{}, false) result.
	ErrNotFound = errors.New("namespacestore: namespace not found")

	// ErrAlreadyExists is returned by Add when the namespace name is
	// already present.
	ErrAlreadyExists = errors.New("namespacestore: namespace already exists")
)

// PersistenceError wraps a failure from the underlying durable store (file
// I/O, marshaling). It is distinct from ErrNotFound/ErrAlreadyExists so
// callers can tell "bad input" from "storage is unhealthy" apart.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "namespacestore: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
