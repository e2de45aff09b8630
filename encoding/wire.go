package encoding

import (
	"bytes"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// MetadataVersion is the only column metadata version this package reads and writes.
const MetadataVersion = 1

// Field numbers of the metadata messages. They are part of the file format
// and must never be renumbered.
const (
	fieldArrayBasic         protowire.Number = 1
	fieldArrayFixedSizeList protowire.Number = 2
	fieldArrayList          protowire.Number = 3
	fieldArrayStruct        protowire.Number = 4

	fieldBasicNoNulls   protowire.Number = 1
	fieldBasicSomeNulls protowire.Number = 2
	fieldBasicAllNulls  protowire.Number = 3

	fieldNoNullsValues protowire.Number = 1

	fieldSomeNullsValidity protowire.Number = 1
	fieldSomeNullsValues   protowire.Number = 2

	fieldBufferValue  protowire.Number = 1
	fieldBufferBitmap protowire.Number = 2

	fieldValueBuffer        protowire.Number = 1
	fieldValueBytesPerValue protowire.Number = 2

	fieldBitmapBuffer protowire.Number = 1

	fieldRefIndex protowire.Number = 1
	fieldRefScope protowire.Number = 2

	fieldFixedSizeListDimension protowire.Number = 1
	fieldFixedSizeListItems     protowire.Number = 2

	fieldListOffsets protowire.Number = 1

	fieldColumnVersion protowire.Number = 1
	fieldColumnRoot    protowire.Number = 2
)

// Marshal serializes an encoding tree in protobuf wire format.
//
// Reserved buffer encodings are written back with their original payload.
//
// Returns:
//   - []byte: The serialized tree
//   - error: ErrUnsupportedEncoding when the tree holds an unset or unknown variant
func Marshal(enc ArrayEncoding) ([]byte, error) {
	return appendArray(nil, enc)
}

// Unmarshal parses an encoding tree written by Marshal.
//
// Returns:
//   - ArrayEncoding: The parsed tree
//   - error: ErrMalformedMetadata for bytes that are not a valid message, or
//     ErrUnsupportedEncoding for unknown fields and unset variants
func Unmarshal(data []byte) (ArrayEncoding, error) {
	return parseArray(data)
}

// MarshalColumn serializes a tree inside a versioned column envelope.
func MarshalColumn(enc ArrayEncoding) ([]byte, error) {
	root, err := Marshal(enc)
	if err != nil {
		return nil, err
	}

	b := protowire.AppendTag(nil, fieldColumnVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, MetadataVersion)
	b = protowire.AppendTag(b, fieldColumnRoot, protowire.BytesType)
	b = protowire.AppendBytes(b, root)

	return b, nil
}

// UnmarshalColumn parses a column envelope written by MarshalColumn.
//
// It fails with ErrUnsupportedVersion when the envelope is not version 1.
func UnmarshalColumn(data []byte) (ArrayEncoding, error) {
	fields, err := parseFields(data)
	if err != nil {
		return nil, err
	}

	var (
		version uint64
		root    []byte
		hasRoot bool
	)
	for _, f := range fields {
		switch f.num {
		case fieldColumnVersion:
			if version, err = f.asVarint(); err != nil {
				return nil, err
			}
		case fieldColumnRoot:
			if root, err = f.asBytes(); err != nil {
				return nil, err
			}
			hasRoot = true
		default:
			return nil, f.unknown("column")
		}
	}

	if version != MetadataVersion {
		return nil, errors.Wrapf(errs.ErrUnsupportedVersion, "column metadata version %d", version)
	}
	if !hasRoot {
		return nil, errors.Wrap(errs.ErrMalformedMetadata, "column metadata has no root encoding")
	}

	return parseArray(root)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendArray(b []byte, enc ArrayEncoding) ([]byte, error) {
	switch e := arrayOrNil(enc).(type) {
	case *BasicEncoding:
		msg, err := appendBasic(nil, e)
		if err != nil {
			return nil, err
		}

		return appendMessage(b, fieldArrayBasic, msg), nil
	case *FixedSizeListEncoding:
		var msg []byte
		if e.Dimension != 0 {
			msg = protowire.AppendTag(msg, fieldFixedSizeListDimension, protowire.VarintType)
			msg = protowire.AppendVarint(msg, uint64(e.Dimension))
		}
		items, err := appendArray(nil, e.Items)
		if err != nil {
			return nil, errors.Wrap(err, "fixed-size list items")
		}
		msg = appendMessage(msg, fieldFixedSizeListItems, items)

		return appendMessage(b, fieldArrayFixedSizeList, msg), nil
	case *ListEncoding:
		offsets, err := appendArray(nil, e.Offsets)
		if err != nil {
			return nil, errors.Wrap(err, "list offsets")
		}
		msg := appendMessage(nil, fieldListOffsets, offsets)

		return appendMessage(b, fieldArrayList, msg), nil
	case *StructEncoding:
		return appendMessage(b, fieldArrayStruct, nil), nil
	case nil:
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "array encoding is unset")
	default:
		return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized array encoding %T", enc)
	}
}

func appendBasic(b []byte, enc *BasicEncoding) ([]byte, error) {
	switch n := nullabilityOrNil(enc.Nullability).(type) {
	case *NoNulls:
		values, err := appendBuffer(nil, n.Values)
		if err != nil {
			return nil, err
		}

		return appendMessage(b, fieldBasicNoNulls, appendMessage(nil, fieldNoNullsValues, values)), nil
	case *SomeNulls:
		validity, err := appendBuffer(nil, n.Validity)
		if err != nil {
			return nil, err
		}
		values, err := appendBuffer(nil, n.Values)
		if err != nil {
			return nil, err
		}
		msg := appendMessage(nil, fieldSomeNullsValidity, validity)
		msg = appendMessage(msg, fieldSomeNullsValues, values)

		return appendMessage(b, fieldBasicSomeNulls, msg), nil
	case *AllNulls:
		return appendMessage(b, fieldBasicAllNulls, nil), nil
	case nil:
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "basic nullability is unset")
	default:
		return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized nullability %T", enc.Nullability)
	}
}

func appendBuffer(b []byte, enc BufferEncoding) ([]byte, error) {
	switch e := bufferOrNil(enc).(type) {
	case *ValueBuffer:
		msg := appendMessage(nil, fieldValueBuffer, appendRef(nil, e.Buffer))
		if e.BytesPerValue != 0 {
			msg = protowire.AppendTag(msg, fieldValueBytesPerValue, protowire.VarintType)
			msg = protowire.AppendVarint(msg, e.BytesPerValue)
		}

		return appendMessage(b, fieldBufferValue, msg), nil
	case *BitmapBuffer:
		return appendMessage(b, fieldBufferBitmap, appendMessage(nil, fieldBitmapBuffer, appendRef(nil, e.Buffer))), nil
	case *ReservedBuffer:
		if !e.Kind.Reserved() {
			return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "buffer encoding tag %d is not reserved", e.Kind)
		}

		return appendMessage(b, protowire.Number(e.Kind), e.Payload), nil
	case nil:
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "buffer encoding is unset")
	default:
		return nil, errors.Wrapf(errs.ErrUnsupportedEncoding, "unrecognized buffer encoding %T", enc)
	}
}

func appendRef(b []byte, ref BufferRef) []byte {
	if ref.Index != 0 {
		b = protowire.AppendTag(b, fieldRefIndex, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ref.Index))
	}
	if ref.Scope != format.ScopePage {
		b = protowire.AppendTag(b, fieldRefScope, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ref.Scope))
	}

	return b
}

// wireField is one parsed field of a message.
type wireField struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func (f wireField) asVarint() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, errors.Wrapf(errs.ErrMalformedMetadata, "field %d has wire type %d, want varint", f.num, f.typ)
	}

	return f.varint, nil
}

func (f wireField) asBytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, errors.Wrapf(errs.ErrMalformedMetadata, "field %d has wire type %d, want bytes", f.num, f.typ)
	}

	return f.bytes, nil
}

func (f wireField) unknown(msg string) error {
	return errors.Wrapf(errs.ErrUnsupportedEncoding, "unknown field %d in %s", f.num, msg)
}

// parseFields splits a message into its fields without interpreting them.
func parseFields(b []byte) ([]wireField, error) {
	var fields []wireField
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(errs.ErrMalformedMetadata, protowire.ParseError(n).Error())
		}
		b = b[n:]

		f := wireField{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, errors.Wrapf(errs.ErrMalformedMetadata, "field %d: %s", num, protowire.ParseError(n))
		}
		b = b[n:]

		fields = append(fields, f)
	}

	return fields, nil
}

// parseOneof returns the single field of a oneof-only message.
func parseOneof(b []byte, msg string) (wireField, error) {
	fields, err := parseFields(b)
	if err != nil {
		return wireField{}, err
	}

	switch len(fields) {
	case 0:
		return wireField{}, errors.Wrapf(errs.ErrUnsupportedEncoding, "%s variant is unset", msg)
	case 1:
		return fields[0], nil
	default:
		return wireField{}, errors.Wrapf(errs.ErrMalformedMetadata, "%s has %d variants set", msg, len(fields))
	}
}

func parseArray(b []byte) (ArrayEncoding, error) {
	f, err := parseOneof(b, "array encoding")
	if err != nil {
		return nil, err
	}

	switch f.num {
	case fieldArrayBasic, fieldArrayFixedSizeList, fieldArrayList, fieldArrayStruct:
	default:
		return nil, f.unknown("array encoding")
	}

	body, err := f.asBytes()
	if err != nil {
		return nil, err
	}

	switch f.num {
	case fieldArrayBasic:
		return parseBasic(body)
	case fieldArrayFixedSizeList:
		return parseFixedSizeList(body)
	case fieldArrayList:
		return parseList(body)
	default:
		if len(body) > 0 {
			fields, err := parseFields(body)
			if err != nil {
				return nil, err
			}

			return nil, fields[0].unknown("struct")
		}

		return &StructEncoding{}, nil
	}
}

func parseBasic(b []byte) (*BasicEncoding, error) {
	f, err := parseOneof(b, "basic nullability")
	if err != nil {
		return nil, err
	}

	switch f.num {
	case fieldBasicNoNulls, fieldBasicSomeNulls, fieldBasicAllNulls:
	default:
		return nil, f.unknown("basic")
	}

	body, err := f.asBytes()
	if err != nil {
		return nil, err
	}

	fields, err := parseFields(body)
	if err != nil {
		return nil, err
	}

	switch f.num {
	case fieldBasicNoNulls:
		n := &NoNulls{}
		for _, g := range fields {
			if g.num != fieldNoNullsValues {
				return nil, g.unknown("no-nulls")
			}
			if n.Values, err = parseBufferField(g); err != nil {
				return nil, err
			}
		}
		if n.Values == nil {
			return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "no-nulls values are unset")
		}

		return &BasicEncoding{Nullability: n}, nil
	case fieldBasicSomeNulls:
		n := &SomeNulls{}
		for _, g := range fields {
			switch g.num {
			case fieldSomeNullsValidity:
				n.Validity, err = parseBufferField(g)
			case fieldSomeNullsValues:
				n.Values, err = parseBufferField(g)
			default:
				return nil, g.unknown("some-nulls")
			}
			if err != nil {
				return nil, err
			}
		}
		if n.Validity == nil || n.Values == nil {
			return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "some-nulls buffers are unset")
		}

		return &BasicEncoding{Nullability: n}, nil
	default:
		if len(fields) > 0 {
			return nil, fields[0].unknown("all-nulls")
		}

		return &BasicEncoding{Nullability: &AllNulls{}}, nil
	}
}

func parseBufferField(f wireField) (BufferEncoding, error) {
	body, err := f.asBytes()
	if err != nil {
		return nil, err
	}

	return parseBuffer(body)
}

func parseBuffer(b []byte) (BufferEncoding, error) {
	f, err := parseOneof(b, "buffer encoding")
	if err != nil {
		return nil, err
	}

	if f.num < protowire.Number(format.BufferValue) || f.num > protowire.Number(format.BufferFrameOfReference) {
		return nil, f.unknown("buffer encoding")
	}
	kind := format.BufferEncodingType(f.num) //nolint:gosec

	body, err := f.asBytes()
	if err != nil {
		return nil, err
	}

	if kind.Reserved() {
		return &ReservedBuffer{Kind: kind, Payload: bytes.Clone(body)}, nil
	}

	fields, err := parseFields(body)
	if err != nil {
		return nil, err
	}

	if kind == format.BufferBitmap {
		out := &BitmapBuffer{}
		for _, g := range fields {
			if g.num != fieldBitmapBuffer {
				return nil, g.unknown("bitmap")
			}
			if out.Buffer, err = parseRefField(g); err != nil {
				return nil, err
			}
		}

		return out, nil
	}

	out := &ValueBuffer{}
	for _, g := range fields {
		switch g.num {
		case fieldValueBuffer:
			out.Buffer, err = parseRefField(g)
		case fieldValueBytesPerValue:
			out.BytesPerValue, err = g.asVarint()
		default:
			return nil, g.unknown("value")
		}
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func parseRefField(f wireField) (BufferRef, error) {
	body, err := f.asBytes()
	if err != nil {
		return BufferRef{}, err
	}

	fields, err := parseFields(body)
	if err != nil {
		return BufferRef{}, err
	}

	var ref BufferRef
	for _, g := range fields {
		v, err := g.asVarint()
		if err != nil {
			return BufferRef{}, err
		}

		switch g.num {
		case fieldRefIndex:
			if v > uint64(^uint32(0)) {
				return BufferRef{}, errors.Wrapf(errs.ErrMalformedMetadata, "buffer index %d overflows uint32", v)
			}
			ref.Index = uint32(v)
		case fieldRefScope:
			if v > uint64(format.ScopeFileMetadata) {
				return BufferRef{}, errors.Wrapf(errs.ErrUnsupportedEncoding, "unknown buffer scope %d", v)
			}
			ref.Scope = format.BufferScope(v)
		default:
			return BufferRef{}, g.unknown("buffer")
		}
	}

	return ref, nil
}

func parseFixedSizeList(b []byte) (*FixedSizeListEncoding, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}

	out := &FixedSizeListEncoding{}
	for _, f := range fields {
		switch f.num {
		case fieldFixedSizeListDimension:
			v, err := f.asVarint()
			if err != nil {
				return nil, err
			}
			if v > uint64(^uint32(0)) {
				return nil, errors.Wrapf(errs.ErrMalformedMetadata, "dimension %d overflows uint32", v)
			}
			out.Dimension = uint32(v)
		case fieldFixedSizeListItems:
			body, err := f.asBytes()
			if err != nil {
				return nil, err
			}
			if out.Items, err = parseArray(body); err != nil {
				return nil, errors.Wrap(err, "fixed-size list items")
			}
		default:
			return nil, f.unknown("fixed-size list")
		}
	}

	if out.Items == nil {
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "fixed-size list items are unset")
	}

	return out, nil
}

func parseList(b []byte) (*ListEncoding, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}

	out := &ListEncoding{}
	for _, f := range fields {
		if f.num != fieldListOffsets {
			return nil, f.unknown("list")
		}
		body, err := f.asBytes()
		if err != nil {
			return nil, err
		}
		if out.Offsets, err = parseArray(body); err != nil {
			return nil, errors.Wrap(err, "list offsets")
		}
	}

	if out.Offsets == nil {
		return nil, errors.Wrap(errs.ErrUnsupportedEncoding, "list offsets are unset")
	}

	return out, nil
}
