package encoding

import (
	"fmt"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
)

// BufferRef identifies a buffer by scope and index without naming its
// position. It is a lookup key into a buffer table owned by the container,
// never an owning handle.
type BufferRef struct {
	Index uint32
	Scope format.BufferScope
}

func (r BufferRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Scope, r.Index)
}

// Locator resolves buffer references to bytes.
//
// Resolve is a pure lookup. It returns an error wrapping errs.ErrUnresolvedBuffer
// when the scope has no buffer at ref.Index.
type Locator interface {
	Resolve(ref BufferRef) ([]byte, error)
}

// Sink receives the buffers emitted while encoding an array.
//
// Put stores data in the given scope and returns its reference. Indexes are
// assigned per scope in insertion order. The sink takes ownership of data.
type Sink interface {
	Put(scope format.BufferScope, data []byte) BufferRef
}

// BufferTable is an in-memory Locator and Sink holding one buffer list per scope.
//
// It is not safe for concurrent writes. Concurrent Resolve calls are safe once
// writing has finished.
type BufferTable struct {
	scopes [3][][]byte
}

var (
	_ Locator = (*BufferTable)(nil)
	_ Sink    = (*BufferTable)(nil)
)

// NewBufferTable creates an empty buffer table.
func NewBufferTable() *BufferTable {
	return &BufferTable{}
}

// NewBufferTableFrom creates a buffer table over existing per-scope buffer lists.
func NewBufferTableFrom(page, column, file [][]byte) *BufferTable {
	return &BufferTable{scopes: [3][][]byte{page, column, file}}
}

// Put appends data to the scope's buffer list.
//
// Panics if scope is not one of the three known scopes.
func (t *BufferTable) Put(scope format.BufferScope, data []byte) BufferRef {
	if !scope.Valid() {
		panic(errors.AssertionFailedf("invalid buffer scope %d", scope))
	}

	idx := uint32(len(t.scopes[scope])) //nolint:gosec
	t.scopes[scope] = append(t.scopes[scope], data)

	return BufferRef{Index: idx, Scope: scope}
}

// Resolve returns the bytes referenced by ref.
func (t *BufferTable) Resolve(ref BufferRef) ([]byte, error) {
	if !ref.Scope.Valid() {
		return nil, errors.Wrapf(errs.ErrUnresolvedBuffer, "unknown scope %d", ref.Scope)
	}

	buffers := t.scopes[ref.Scope]
	if uint64(ref.Index) >= uint64(len(buffers)) {
		return nil, errors.Wrapf(errs.ErrUnresolvedBuffer, "%s: scope holds %d buffers", ref, len(buffers))
	}

	return buffers[ref.Index], nil
}

// Buffers returns the buffer list of scope.
func (t *BufferTable) Buffers(scope format.BufferScope) [][]byte {
	if !scope.Valid() {
		return nil
	}

	return t.scopes[scope]
}

// Len returns the number of buffers in scope.
func (t *BufferTable) Len(scope format.BufferScope) int {
	return len(t.Buffers(scope))
}
