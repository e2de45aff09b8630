package encoding

import (
	"fmt"
	"strings"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/arloliu/colenc/internal/collision"
	"github.com/cockroachdb/errors"
)

// ArrayEncoding is a node of the encoding tree. The implementations are
// *BasicEncoding, *FixedSizeListEncoding, *ListEncoding and *StructEncoding.
//
// Each node exclusively owns its children; BufferRefs are leaves pointing at
// buffers owned by the container. Trees are immutable once built.
type ArrayEncoding interface {
	Type() format.ArrayEncodingType
	isArrayEncoding()
}

func (*BasicEncoding) Type() format.ArrayEncodingType { return format.ArrayBasic }

func (*FixedSizeListEncoding) Type() format.ArrayEncodingType { return format.ArrayFixedSizeList }

func (*ListEncoding) Type() format.ArrayEncodingType { return format.ArrayList }

func (*StructEncoding) Type() format.ArrayEncodingType { return format.ArrayStruct }

func (*BasicEncoding) isArrayEncoding()         {}
func (*FixedSizeListEncoding) isArrayEncoding() {}
func (*ListEncoding) isArrayEncoding()          {}
func (*StructEncoding) isArrayEncoding()        {}

// arrayOrNil maps a nil node pointer to a nil interface, so that type
// switches treat a typed nil like an unset node.
func arrayOrNil(enc ArrayEncoding) ArrayEncoding {
	switch e := enc.(type) {
	case *BasicEncoding:
		if e == nil {
			return nil
		}
	case *FixedSizeListEncoding:
		if e == nil {
			return nil
		}
	case *ListEncoding:
		if e == nil {
			return nil
		}
	case *StructEncoding:
		if e == nil {
			return nil
		}
	}

	return enc
}

func nullabilityOrNil(n Nullability) Nullability {
	switch v := n.(type) {
	case *NoNulls:
		if v == nil {
			return nil
		}
	case *SomeNulls:
		if v == nil {
			return nil
		}
	case *AllNulls:
		if v == nil {
			return nil
		}
	}

	return n
}

func bufferOrNil(enc BufferEncoding) BufferEncoding {
	switch e := enc.(type) {
	case *ValueBuffer:
		if e == nil {
			return nil
		}
	case *BitmapBuffer:
		if e == nil {
			return nil
		}
	case *ReservedBuffer:
		if e == nil {
			return nil
		}
	}

	return enc
}

// Refs returns every buffer reference in the tree, in depth-first order.
func Refs(enc ArrayEncoding) []BufferRef {
	var refs []BufferRef
	walkBuffers(enc, func(b BufferEncoding) {
		switch e := bufferOrNil(b).(type) {
		case *ValueBuffer:
			refs = append(refs, e.Buffer)
		case *BitmapBuffer:
			refs = append(refs, e.Buffer)
		}
	})

	return refs
}

func walkBuffers(enc ArrayEncoding, fn func(BufferEncoding)) {
	switch e := arrayOrNil(enc).(type) {
	case *BasicEncoding:
		switch n := nullabilityOrNil(e.Nullability).(type) {
		case *NoNulls:
			fn(n.Values)
		case *SomeNulls:
			fn(n.Validity)
			fn(n.Values)
		}
	case *FixedSizeListEncoding:
		walkBuffers(e.Items, fn)
	case *ListEncoding:
		walkBuffers(e.Offsets, fn)
	}
}

// Validate checks the structure of a tree without resolving any buffer.
//
// It rejects unset or reserved variants (ErrUnsupportedEncoding), a SomeNulls
// validity that is not a bitmap (ErrUnsupportedEncoding), a zero fixed-size
// list dimension (ErrDimensionMismatch) and a buffer referenced twice
// (ErrDuplicateBufferRef).
func Validate(enc ArrayEncoding) error {
	tracker := collision.NewTracker()
	return validate(enc, tracker)
}

func validate(enc ArrayEncoding, tracker *collision.Tracker) error {
	switch e := arrayOrNil(enc).(type) {
	case *BasicEncoding:
		switch n := nullabilityOrNil(e.Nullability).(type) {
		case *NoNulls:
			return validateBuffer(n.Values, tracker)
		case *SomeNulls:
			if _, ok := n.Validity.(*BitmapBuffer); !ok {
				return errors.Wrapf(errs.ErrUnsupportedEncoding, "validity must be a bitmap buffer, got %s", bufferTypeName(n.Validity))
			}
			if err := validateBuffer(n.Validity, tracker); err != nil {
				return err
			}

			return validateBuffer(n.Values, tracker)
		case *AllNulls:
			return nil
		case nil:
			return errors.Wrap(errs.ErrUnsupportedEncoding, "basic nullability is unset")
		default:
			return errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized nullability %T", e.Nullability)
		}
	case *FixedSizeListEncoding:
		if e.Dimension == 0 {
			return errors.Wrap(errs.ErrDimensionMismatch, "dimension is 0")
		}

		return validate(e.Items, tracker)
	case *ListEncoding:
		return validate(e.Offsets, tracker)
	case *StructEncoding:
		return nil
	case nil:
		return errors.Wrap(errs.ErrUnsupportedEncoding, "array encoding is unset")
	default:
		return errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized array encoding %T", enc)
	}
}

func validateBuffer(enc BufferEncoding, tracker *collision.Tracker) error {
	switch e := bufferOrNil(enc).(type) {
	case *ValueBuffer:
		return tracker.Track(e.Buffer.Scope, e.Buffer.Index)
	case *BitmapBuffer:
		return tracker.Track(e.Buffer.Scope, e.Buffer.Index)
	case *ReservedBuffer:
		return errors.Wrapf(errs.ErrUnsupportedEncoding, "%s buffer encoding is not implemented", e.Kind)
	case nil:
		return errors.Wrap(errs.ErrUnsupportedEncoding, "buffer encoding is unset")
	default:
		return errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized buffer encoding %T", enc)
	}
}

// Describe renders a tree on one line, for example
//
//	List(offsets=Basic(NoNulls(values=Value(Page[0], 1))))
func Describe(enc ArrayEncoding) string {
	var sb strings.Builder
	describe(&sb, enc)

	return sb.String()
}

func describe(sb *strings.Builder, enc ArrayEncoding) {
	switch e := arrayOrNil(enc).(type) {
	case *BasicEncoding:
		sb.WriteString("Basic(")
		switch n := nullabilityOrNil(e.Nullability).(type) {
		case *NoNulls:
			sb.WriteString("NoNulls(values=")
			describeBuffer(sb, n.Values)
			sb.WriteString(")")
		case *SomeNulls:
			sb.WriteString("SomeNulls(validity=")
			describeBuffer(sb, n.Validity)
			sb.WriteString(", values=")
			describeBuffer(sb, n.Values)
			sb.WriteString(")")
		case *AllNulls:
			sb.WriteString("AllNulls")
		default:
			sb.WriteString("?")
		}
		sb.WriteString(")")
	case *FixedSizeListEncoding:
		fmt.Fprintf(sb, "FixedSizeList(dimension=%d, items=", e.Dimension)
		describe(sb, e.Items)
		sb.WriteString(")")
	case *ListEncoding:
		sb.WriteString("List(offsets=")
		describe(sb, e.Offsets)
		sb.WriteString(")")
	case *StructEncoding:
		sb.WriteString("Struct")
	default:
		sb.WriteString("?")
	}
}

func describeBuffer(sb *strings.Builder, enc BufferEncoding) {
	switch e := bufferOrNil(enc).(type) {
	case *ValueBuffer:
		fmt.Fprintf(sb, "Value(%s, %d)", e.Buffer, e.BytesPerValue)
	case *BitmapBuffer:
		fmt.Fprintf(sb, "Bitmap(%s)", e.Buffer)
	case *ReservedBuffer:
		fmt.Fprintf(sb, "%s(reserved)", e.Kind)
	default:
		sb.WriteString("?")
	}
}
