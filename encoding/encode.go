package encoding

import (
	"math"

	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/arloliu/colenc/internal/options"
	"github.com/arloliu/colenc/internal/pool"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// EncoderConfig holds the settings of an Encoder.
type EncoderConfig struct {
	scope  format.BufferScope
	logger log.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithScope sets the scope that every emitted buffer is placed in.
// The default is format.ScopePage.
func WithScope(scope format.BufferScope) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if !scope.Valid() {
			return errors.Newf("invalid buffer scope: %d", scope)
		}
		c.scope = scope

		return nil
	})
}

// WithLogger sets the logger used for debug output. The default discards
// everything.
func WithLogger(logger log.Logger) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		if logger == nil {
			logger = log.NewNopLogger()
		}
		c.logger = logger
	})
}

// Encoder builds encoding trees for in-memory arrays.
//
// An Encoder holds no per-column state and may be shared between goroutines,
// as long as each goroutine writes to its own Sink.
type Encoder struct {
	cfg EncoderConfig
}

// EncodedColumn is the result of encoding one column.
type EncodedColumn struct {
	// Tree is the root of the column's encoding tree.
	Tree ArrayEncoding
	// NumRows is the row count to pass back to Decode.
	NumRows uint64
	// NumItems is the list item count to pass back to Decode. It is 0 when
	// the column holds no list.
	NumItems uint64
	// Children are the sibling columns this column does not encode itself:
	// the item array of a list, or the fields of a struct. Each is encoded as
	// its own column.
	Children []array.Array
}

// DecodeContext returns the context Decode needs for this column.
func (c *EncodedColumn) DecodeContext() DecodeContext {
	return DecodeContext{NumRows: c.NumRows, NumItems: c.NumItems}
}

// NewEncoder creates an encoder.
//
// Parameters:
//   - opts: Optional configuration (WithScope, WithLogger)
//
// Returns:
//   - *Encoder: The encoder
//   - error: Returned when an option is invalid
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	e := &Encoder{cfg: EncoderConfig{
		scope:  format.ScopePage,
		logger: log.NewNopLogger(),
	}}

	if err := options.Apply(&e.cfg, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

// Encode builds the encoding tree of arr and emits its buffers into sink.
//
// Fixed-width and boolean arrays become Basic nodes whose nullability is
// chosen from the null count. A fixed-size list with no null rows becomes a
// FixedSizeList node; one with null rows is folded into a Basic node of
// dimension*width bytes per value, which requires non-null fixed-width items.
// Lists encode their offsets only and structs encode nothing; their item and
// field arrays are returned in EncodedColumn.Children.
//
// Parameters:
//   - arr: Array to encode
//   - sink: Destination for the emitted buffers
//
// Returns:
//   - *EncodedColumn: The tree together with the counts Decode needs
//   - error: ErrUnsupportedEncoding for shapes with no encoding, or
//     ErrInvalidOffsets for list columns the offsets rule cannot represent
func (e *Encoder) Encode(arr array.Array, sink Sink) (*EncodedColumn, error) {
	col := &EncodedColumn{NumRows: uint64(arr.Len())} //nolint:gosec

	tree, err := e.encode(arr, sink, col)
	if err != nil {
		return nil, err
	}
	col.Tree = tree

	level.Debug(e.cfg.logger).Log(
		"msg", "encoded column",
		"type", arr.DataType(),
		"rows", col.NumRows,
		"items", col.NumItems,
		"children", len(col.Children),
		"tree", Describe(tree),
	)

	return col, nil
}

func (e *Encoder) encode(arr array.Array, sink Sink, col *EncodedColumn) (ArrayEncoding, error) {
	switch a := arr.(type) {
	case *array.Fixed:
		return e.encodeFixed(a, sink), nil
	case *array.Boolean:
		return e.encodeBoolean(a, sink), nil
	case *array.FixedSizeList:
		return e.encodeFixedSizeList(a, sink, col)
	case *array.List:
		return e.encodeList(a, sink, col)
	case *array.Struct:
		if a.NullCount() > 0 {
			return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "struct with %d null rows", a.NullCount())
		}
		col.Children = append(col.Children, a.Fields()...)

		return &StructEncoding{}, nil
	default:
		return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "array type %T", arr)
	}
}

// encodeBasic wraps a values buffer in the nullability selected for arr.
// values is only called when at least one row is valid.
func (e *Encoder) encodeBasic(arr array.Array, sink Sink, values func() BufferEncoding) *BasicEncoding {
	n := uint64(arr.Len()) //nolint:gosec

	switch SelectNullability(uint64(arr.NullCount()), n) { //nolint:exhaustive,gosec
	case format.NoNulls:
		return &BasicEncoding{Nullability: &NoNulls{Values: values()}}
	case format.AllNulls:
		return &BasicEncoding{Nullability: &AllNulls{}}
	default:
		validity := &BitmapBuffer{Buffer: sink.Put(e.cfg.scope, PackBitmap(arr.Validity(), n))}
		return &BasicEncoding{Nullability: &SomeNulls{Validity: validity, Values: values()}}
	}
}

func (e *Encoder) encodeFixed(a *array.Fixed, sink Sink) *BasicEncoding {
	return e.encodeBasic(a, sink, func() BufferEncoding {
		return &ValueBuffer{
			Buffer:        sink.Put(e.cfg.scope, cloneBytes(a.Data())),
			BytesPerValue: uint64(a.Width()), //nolint:gosec
		}
	})
}

func (e *Encoder) encodeBoolean(a *array.Boolean, sink Sink) *BasicEncoding {
	return e.encodeBasic(a, sink, func() BufferEncoding {
		return &BitmapBuffer{Buffer: sink.Put(e.cfg.scope, PackBitmap(a.Bits(), uint64(a.Len())))} //nolint:gosec
	})
}

func (e *Encoder) encodeFixedSizeList(a *array.FixedSizeList, sink Sink, col *EncodedColumn) (ArrayEncoding, error) {
	if a.NullCount() == 0 {
		items, err := e.encode(a.Child(), sink, col)
		if err != nil {
			return nil, errors.Wrap(err, "fixed-size list items")
		}

		return &FixedSizeListEncoding{Dimension: uint32(a.Dimension()), Items: items}, nil //nolint:gosec
	}

	child, ok := a.Child().(*array.Fixed)
	if !ok || child.NullCount() > 0 {
		return nil, errors.Wrapf(errs.ErrUnsupportedEncoding,
			"nullable fixed-size list requires non-null fixed-width items, got %s", a.Child().DataType())
	}

	return e.encodeBasic(a, sink, func() BufferEncoding {
		return &ValueBuffer{
			Buffer:        sink.Put(e.cfg.scope, cloneBytes(child.Data())),
			BytesPerValue: uint64(a.Dimension() * child.Width()), //nolint:gosec
		}
	}), nil
}

func (e *Encoder) encodeList(a *array.List, sink Sink, col *EncodedColumn) (ArrayEncoding, error) {
	n := a.Len()
	lengths, release := pool.GetUint64Slice(n)
	defer release()

	var nulls []bool
	if a.NullCount() > 0 {
		nulls = make([]bool, n)
	}

	src := a.Offsets()
	for i := range n {
		lengths[i] = src[i+1] - src[i]
		if nulls != nil {
			nulls[i] = a.IsNull(i)
		}
	}

	numItems := uint64(a.Child().Len()) //nolint:gosec
	offsets, err := EncodeOffsets(lengths, nulls, numItems)
	if err != nil {
		return nil, err
	}

	// Size for the full [0, 2*numItems] delta range, not just this column's offsets.
	limit := uint64(math.MaxUint64)
	if numItems <= math.MaxUint64/2 {
		limit = max(offsets[len(offsets)-1], 2*numItems)
	}
	width := offsetWidth(limit)

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	buf.ExtendOrGrow(len(offsets) * int(width)) //nolint:gosec
	out := buf.Bytes()
	engine := endian.GetLittleEndianEngine()
	for i, off := range offsets {
		endian.PutUintN(engine, out[i*int(width):], int(width), off) //nolint:gosec
	}

	ref := sink.Put(e.cfg.scope, buf.Clone())

	col.NumItems = numItems
	col.Children = append(col.Children, a.Child())

	return &ListEncoding{
		Offsets: &BasicEncoding{Nullability: &NoNulls{Values: &ValueBuffer{Buffer: ref, BytesPerValue: width}}},
	}, nil
}

func cloneBytes(data []byte) []byte {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	_, _ = buf.Write(data)

	return buf.Clone()
}
