package signaturestore

import "errors"

// ErrNotFound is returned by Get when no signature has been stored for the
// requested namespace/epoch pair.
var ErrNotFound = errors.New("signaturestore: signature not found")

// PersistenceError wraps an underlying I/O or encoding failure from a
// durable implementation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "signaturestore: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
