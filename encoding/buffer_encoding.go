package encoding

import (
	"math/bits"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/arloliu/colenc/internal/pool"
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

// BufferEncoding describes how the rows of one buffer are laid out.
//
// The implementations are *ValueBuffer, *BitmapBuffer and *ReservedBuffer.
// The set is closed.
type BufferEncoding interface {
	Type() format.BufferEncodingType
	isBufferEncoding()
}

// ValueBuffer stores fixed-width values row-major. The resolved buffer holds
// exactly numRows*BytesPerValue bytes; numRows comes from the enclosing node.
type ValueBuffer struct {
	Buffer        BufferRef
	BytesPerValue uint64
}

// BitmapBuffer stores one bit per row, least-significant bit first, byte 0
// holding rows [0, 8). The resolved buffer holds at least ceil(numRows/8)
// bytes; pad bits are ignored.
type BitmapBuffer struct {
	Buffer BufferRef
}

// ReservedBuffer is a buffer encoding whose tag is reserved for a future
// variant (constant, run-end, dictionary, bit-packing, frame-of-reference).
// It round-trips through metadata untouched and is rejected on decode.
type ReservedBuffer struct {
	Kind    format.BufferEncodingType
	Payload []byte
}

func (*ValueBuffer) Type() format.BufferEncodingType { return format.BufferValue }

func (*BitmapBuffer) Type() format.BufferEncodingType { return format.BufferBitmap }

func (r *ReservedBuffer) Type() format.BufferEncodingType { return r.Kind }

func (*ValueBuffer) isBufferEncoding()    {}
func (*BitmapBuffer) isBufferEncoding()   {}
func (*ReservedBuffer) isBufferEncoding() {}

// Values is a decoded buffer. Data is set for value buffers, Bits for bitmap
// buffers. The zero Values carries no data.
type Values struct {
	Encoding format.BufferEncodingType
	Width    uint64
	Data     []byte
	Bits     *bitset.BitSet
}

// DecodeValue resolves a value buffer and checks its length against numRows.
//
// Parameters:
//   - loc: Locator resolving the buffer reference
//   - enc: Value buffer encoding
//   - numRows: Row count supplied by the enclosing node
//
// Returns:
//   - []byte: The resolved bytes, exactly numRows*BytesPerValue long
//   - error: ErrUnresolvedBuffer, ErrLengthMismatch, or ErrUnsupportedEncoding when enc is nil
func DecodeValue(loc Locator, enc *ValueBuffer, numRows uint64) ([]byte, error) {
	if enc == nil {
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "value buffer is unset")
	}

	data, err := loc.Resolve(enc.Buffer)
	if err != nil {
		return nil, errors.Wrap(err, "value buffer")
	}

	hi, want := bits.Mul64(numRows, enc.BytesPerValue)
	if hi != 0 || uint64(len(data)) != want {
		return nil, errors.Wrapf(errs.ErrLengthMismatch,
			"value buffer %s: %d bytes for %d rows of %d bytes", enc.Buffer, len(data), numRows, enc.BytesPerValue)
	}

	return data, nil
}

// DecodeBitmap resolves a bitmap buffer and unpacks its first numRows bits.
//
// Returns:
//   - *bitset.BitSet: Bit i set when row i is set in the buffer
//   - error: ErrUnresolvedBuffer or ErrLengthMismatch when the buffer is shorter than ceil(numRows/8)
func DecodeBitmap(loc Locator, enc *BitmapBuffer, numRows uint64) (*bitset.BitSet, error) {
	if enc == nil {
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "bitmap buffer is unset")
	}

	data, err := loc.Resolve(enc.Buffer)
	if err != nil {
		return nil, errors.Wrap(err, "bitmap buffer")
	}

	need := bitmapSize(numRows)
	if uint64(len(data)) < need {
		return nil, errors.Wrapf(errs.ErrLengthMismatch,
			"bitmap buffer %s: %d bytes for %d rows, want at least %d", enc.Buffer, len(data), numRows, need)
	}

	return UnpackBitmap(data, numRows), nil
}

// UnpackBitmap reads numRows LSB-first bits from data. Bits past numRows are
// ignored. data must hold at least ceil(numRows/8) bytes.
func UnpackBitmap(data []byte, numRows uint64) *bitset.BitSet {
	out := bitset.New(uint(numRows))
	for i := range numRows {
		if data[i>>3]&(1<<(i&7)) != 0 {
			out.Set(uint(i))
		}
	}

	return out
}

// PackBitmap packs the first numRows bits of b LSB-first into ceil(numRows/8)
// bytes. Pad bits in the last byte are zero. A nil b packs as all ones.
func PackBitmap(b *bitset.BitSet, numRows uint64) []byte {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	buf.ExtendOrGrow(int(bitmapSize(numRows))) //nolint:gosec
	out := buf.Bytes()

	if b == nil {
		for i := range numRows {
			out[i>>3] |= 1 << (i & 7)
		}

		return buf.Clone()
	}

	for i, ok := b.NextSet(0); ok && uint64(i) < numRows; i, ok = b.NextSet(i + 1) {
		out[i>>3] |= 1 << (i & 7)
	}

	return buf.Clone()
}

func bitmapSize(numRows uint64) uint64 {
	return numRows/8 + min(numRows%8, 1)
}

// decodeBuffer dispatches on the buffer encoding variant.
func decodeBuffer(loc Locator, enc BufferEncoding, numRows uint64) (Values, error) {
	switch e := bufferOrNil(enc).(type) {
	case *ValueBuffer:
		data, err := DecodeValue(loc, e, numRows)
		if err != nil {
			return Values{}, err
		}

		return Values{Encoding: format.BufferValue, Width: e.BytesPerValue, Data: data}, nil
	case *BitmapBuffer:
		b, err := DecodeBitmap(loc, e, numRows)
		if err != nil {
			return Values{}, err
		}

		return Values{Encoding: format.BufferBitmap, Bits: b}, nil
	case *ReservedBuffer:
		return Values{}, errors.Wrapf(errs.ErrUnsupportedEncoding, "%s buffer encoding is not implemented", e.Kind)
	case nil:
		return Values{}, errors.Wrap(errs.ErrUnsupportedEncoding, "buffer encoding is unset")
	default:
		return Values{}, errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized buffer encoding %T", enc)
	}
}
