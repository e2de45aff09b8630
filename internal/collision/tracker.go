package collision

import (
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
)

type refKey struct {
	scope format.BufferScope
	index uint32
}

// Tracker detects buffer references that appear more than once within a scope.
//
// Every node of an encoding tree owns disjoint buffers, so a (scope, index)
// pair seen twice means the tree is corrupt.
type Tracker struct {
	seen  map[refKey]struct{}
	order []refKey
}

// NewTracker creates a new reference tracker.
func NewTracker() *Tracker {
	return &Tracker{
		seen: make(map[refKey]struct{}),
	}
}

// Track records a reference and returns ErrDuplicateBufferRef if it was
// already recorded.
func (t *Tracker) Track(scope format.BufferScope, index uint32) error {
	key := refKey{scope: scope, index: index}
	if _, exists := t.seen[key]; exists {
		return errors.Wrapf(errs.ErrDuplicateBufferRef, "%s buffer %d", scope, index)
	}

	t.seen[key] = struct{}{}
	t.order = append(t.order, key)

	return nil
}

// Count returns the number of tracked references.
func (t *Tracker) Count() int {
	return len(t.order)
}

// CountInScope returns the number of tracked references in scope.
func (t *Tracker) CountInScope(scope format.BufferScope) int {
	n := 0
	for _, k := range t.order {
		if k.scope == scope {
			n++
		}
	}

	return n
}

// Reset clears the tracker for reuse.
func (t *Tracker) Reset() {
	clear(t.seen)
	t.order = t.order[:0]
}
