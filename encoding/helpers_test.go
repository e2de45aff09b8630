package encoding

import (
	"github.com/arloliu/colenc/errs"
	"github.com/cockroachdb/errors"
)

// countingLocator records every Resolve call made against the wrapped locator.
type countingLocator struct {
	Locator
	calls []BufferRef
}

func (c *countingLocator) Resolve(ref BufferRef) ([]byte, error) {
	c.calls = append(c.calls, ref)
	return c.Locator.Resolve(ref)
}

var errorKinds = []struct {
	err  error
	name string
}{
	{errs.ErrUnresolvedBuffer, "unresolved buffer"},
	{errs.ErrLengthMismatch, "length mismatch"},
	{errs.ErrInvalidOffsets, "invalid offsets"},
	{errs.ErrDimensionMismatch, "dimension mismatch"},
	{errs.ErrUnsupportedEncoding, "unsupported encoding"},
	{errs.ErrMalformedMetadata, "malformed metadata"},
	{errs.ErrUnsupportedVersion, "unsupported version"},
	{errs.ErrDuplicateBufferRef, "duplicate buffer ref"},
	{errs.ErrDataTypeMismatch, "data type mismatch"},
}

// errorKind names the sentinel err wraps, for stable fixture output.
func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return err.Error()
}

// offsetsTree builds the offsets subtree the encoder emits for a value buffer.
func offsetsTree(ref BufferRef, width uint64) *BasicEncoding {
	return &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: ref, BytesPerValue: width}}}
}
