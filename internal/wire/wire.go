// Package wire implements a little-endian, variable-length-integer binary
// framing shared by the on-disk SignatureRepository envelope and the
// bincode-Ed25519 ciphersuite. Integers use LEB128 (the same group order
// encoding/binary's Uvarint/PutUvarint already implement); byte strings
// and UTF-8 strings are length-prefixed with an LEB128 integer. There is
// no overall size limit on any field.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// ErrTruncated is returned by the Reader when the underlying bytes end
// before a complete value could be decoded.
var ErrTruncated = errors.New("wire: truncated input")

// Writer appends LEB128-framed values to an in-memory buffer.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded output so far.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// PutUint writes v as an LEB128 unsigned variable-length integer. The u32
// ciphersuite discriminant and u64 fields (timestamp, epoch) are both
// written through this single path.
func (w *Writer) PutUint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

// PutBytes writes a length-prefixed byte string.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint(uint64(len(b)))
	w.buf.Write(b)
}

// PutString writes a length-prefixed UTF-8 string.
func (w *Writer) PutString(s string) {
	w.PutBytes([]byte(s))
}

// Reader decodes LEB128-framed values from a byte slice, tracking its own
// read position.
type Reader struct {
	r *bytes.Reader
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Uint reads an LEB128 unsigned variable-length integer.
func (r *Reader) Uint() (uint64, error) {
	v, err := binary.ReadUvarint(r.r)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, ErrTruncated
	}
	return v, err
}

// Bytes reads a length-prefixed byte string.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

// String reads a length-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Remaining reports whether unread bytes are still left in the input.
func (r *Reader) Remaining() bool {
	return r.r.Len() > 0
}
