package container

import (
	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/encoding"
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/section"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// File metadata field numbers.
//
//	FileMetadata { file_buffers = 1 (packed entries); repeated Column columns = 2; }
//	Column       { name = 1; DataType data_type = 2; column_buffers = 3 (packed); repeated Page pages = 4; }
//	Page         { num_rows = 1; num_items = 2; encoding = 3 (ColumnEncoding); page_buffers = 4 (packed); }
//	DataType     { kind = 1; width = 2; dimension = 3; DataType elem = 4; repeated DataType fields = 5; }
const (
	fieldFileBuffers protowire.Number = 1
	fieldFileColumns protowire.Number = 2

	fieldColumnName     protowire.Number = 1
	fieldColumnDataType protowire.Number = 2
	fieldColumnBuffers  protowire.Number = 3
	fieldColumnPages    protowire.Number = 4

	fieldPageNumRows  protowire.Number = 1
	fieldPageNumItems protowire.Number = 2
	fieldPageEncoding protowire.Number = 3
	fieldPageBuffers  protowire.Number = 4

	fieldTypeKind      protowire.Number = 1
	fieldTypeWidth     protowire.Number = 2
	fieldTypeDimension protowire.Number = 3
	fieldTypeElem      protowire.Number = 4
	fieldTypeFields    protowire.Number = 5
)

// fileMeta is the decoded metadata section.
type fileMeta struct {
	buffers []section.BufferEntry
	columns []*columnMeta
}

type columnMeta struct {
	name     string
	dataType array.DataType
	buffers  []section.BufferEntry
	pages    []*pageMeta
}

type pageMeta struct {
	numRows  uint64
	numItems uint64
	tree     encoding.ArrayEncoding
	buffers  []section.BufferEntry
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, v)
}

func marshalFileMeta(meta *fileMeta, engine endian.EndianEngine) ([]byte, error) {
	var b []byte
	if len(meta.buffers) > 0 {
		b = appendBytesField(b, fieldFileBuffers, section.AppendBufferEntries(nil, meta.buffers, engine))
	}

	for _, col := range meta.columns {
		body, err := marshalColumnMeta(col, engine)
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, fieldFileColumns, body)
	}

	return b, nil
}

func marshalColumnMeta(col *columnMeta, engine endian.EndianEngine) ([]byte, error) {
	b := appendBytesField(nil, fieldColumnName, []byte(col.name))
	b = appendBytesField(b, fieldColumnDataType, marshalDataType(col.dataType))
	if len(col.buffers) > 0 {
		b = appendBytesField(b, fieldColumnBuffers, section.AppendBufferEntries(nil, col.buffers, engine))
	}

	for i, page := range col.pages {
		tree, err := encoding.MarshalColumn(page.tree)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q page %d", col.name, i)
		}

		var p []byte
		p = appendVarintField(p, fieldPageNumRows, page.numRows)
		p = appendVarintField(p, fieldPageNumItems, page.numItems)
		p = appendBytesField(p, fieldPageEncoding, tree)
		if len(page.buffers) > 0 {
			p = appendBytesField(p, fieldPageBuffers, section.AppendBufferEntries(nil, page.buffers, engine))
		}
		b = appendBytesField(b, fieldColumnPages, p)
	}

	return b, nil
}

func marshalDataType(dt array.DataType) []byte {
	var b []byte
	b = appendVarintField(b, fieldTypeKind, uint64(dt.Kind))
	b = appendVarintField(b, fieldTypeWidth, uint64(dt.Width))         //nolint:gosec
	b = appendVarintField(b, fieldTypeDimension, uint64(dt.Dimension)) //nolint:gosec
	if dt.Elem != nil {
		b = appendBytesField(b, fieldTypeElem, marshalDataType(*dt.Elem))
	}
	for _, f := range dt.Fields {
		b = appendBytesField(b, fieldTypeFields, marshalDataType(f))
	}

	return b
}

// metaField is one parsed field of a metadata message.
type metaField struct {
	num    protowire.Number
	varint uint64
	bytes  []byte
	isVar  bool
}

// parseMetaFields splits a message into fields. Container metadata only uses
// varint and length-delimited fields.
func parseMetaFields(b []byte, msg string) ([]metaField, error) {
	var fields []metaField
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrapf(errs.ErrMalformedMetadata, "%s: %v", msg, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, errors.Wrapf(errs.ErrMalformedMetadata, "%s field %d: %v", msg, num, protowire.ParseError(m))
			}
			fields = append(fields, metaField{num: num, varint: v, isVar: true})
			b = b[m:]
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, errors.Wrapf(errs.ErrMalformedMetadata, "%s field %d: %v", msg, num, protowire.ParseError(m))
			}
			fields = append(fields, metaField{num: num, bytes: v})
			b = b[m:]
		default:
			return nil, errors.Wrapf(errs.ErrMalformedMetadata, "%s field %d has wire type %d", msg, num, typ)
		}
	}

	return fields, nil
}

func (f metaField) expect(varint bool, msg string) error {
	if f.isVar != varint {
		return errors.Wrapf(errs.ErrMalformedMetadata, "%s field %d has the wrong wire type", msg, f.num)
	}

	return nil
}

func unknownMetaField(f metaField, msg string) error {
	return errors.Wrapf(errs.ErrMalformedMetadata, "%s has unknown field %d", msg, f.num)
}

func unmarshalFileMeta(b []byte, engine endian.EndianEngine) (*fileMeta, error) {
	fields, err := parseMetaFields(b, "file metadata")
	if err != nil {
		return nil, err
	}

	meta := &fileMeta{}
	for _, f := range fields {
		if err := f.expect(false, "file metadata"); err != nil {
			return nil, err
		}

		switch f.num {
		case fieldFileBuffers:
			if meta.buffers, err = section.ParseBufferEntries(f.bytes, engine); err != nil {
				return nil, errors.Wrap(err, "file buffers")
			}
		case fieldFileColumns:
			col, err := unmarshalColumnMeta(f.bytes, engine)
			if err != nil {
				return nil, err
			}
			meta.columns = append(meta.columns, col)
		default:
			return nil, unknownMetaField(f, "file metadata")
		}
	}

	return meta, nil
}

func unmarshalColumnMeta(b []byte, engine endian.EndianEngine) (*columnMeta, error) {
	fields, err := parseMetaFields(b, "column")
	if err != nil {
		return nil, err
	}

	col := &columnMeta{}
	hasType := false
	for _, f := range fields {
		if err := f.expect(false, "column"); err != nil {
			return nil, err
		}

		switch f.num {
		case fieldColumnName:
			col.name = string(f.bytes)
		case fieldColumnDataType:
			if col.dataType, err = unmarshalDataType(f.bytes); err != nil {
				return nil, err
			}
			hasType = true
		case fieldColumnBuffers:
			if col.buffers, err = section.ParseBufferEntries(f.bytes, engine); err != nil {
				return nil, errors.Wrapf(err, "column %q buffers", col.name)
			}
		case fieldColumnPages:
			page, err := unmarshalPageMeta(f.bytes, engine)
			if err != nil {
				return nil, errors.Wrapf(err, "column %q page %d", col.name, len(col.pages))
			}
			col.pages = append(col.pages, page)
		default:
			return nil, unknownMetaField(f, "column")
		}
	}

	if !hasType {
		return nil, errors.Wrapf(errs.ErrMalformedMetadata, "column %q has no data type", col.name)
	}

	return col, nil
}

func unmarshalPageMeta(b []byte, engine endian.EndianEngine) (*pageMeta, error) {
	fields, err := parseMetaFields(b, "page")
	if err != nil {
		return nil, err
	}

	page := &pageMeta{}
	for _, f := range fields {
		switch f.num {
		case fieldPageNumRows, fieldPageNumItems:
			if err := f.expect(true, "page"); err != nil {
				return nil, err
			}
			if f.num == fieldPageNumRows {
				page.numRows = f.varint
			} else {
				page.numItems = f.varint
			}
		case fieldPageEncoding:
			if err := f.expect(false, "page"); err != nil {
				return nil, err
			}
			if page.tree, err = encoding.UnmarshalColumn(f.bytes); err != nil {
				return nil, err
			}
		case fieldPageBuffers:
			if err := f.expect(false, "page"); err != nil {
				return nil, err
			}
			if page.buffers, err = section.ParseBufferEntries(f.bytes, engine); err != nil {
				return nil, err
			}
		default:
			return nil, unknownMetaField(f, "page")
		}
	}

	if page.tree == nil {
		return nil, errors.Wrap(errs.ErrMalformedMetadata, "page has no encoding")
	}

	return page, nil
}

// maxTypeDepth bounds nested data types so hostile metadata cannot exhaust the stack.
const maxTypeDepth = 64

func unmarshalDataType(b []byte) (array.DataType, error) {
	return unmarshalDataTypeDepth(b, 0)
}

func unmarshalDataTypeDepth(b []byte, depth int) (array.DataType, error) {
	if depth > maxTypeDepth {
		return array.DataType{}, errors.Wrapf(errs.ErrMalformedMetadata, "data type nested deeper than %d", maxTypeDepth)
	}

	fields, err := parseMetaFields(b, "data type")
	if err != nil {
		return array.DataType{}, err
	}

	var dt array.DataType
	for _, f := range fields {
		switch f.num {
		case fieldTypeKind, fieldTypeWidth, fieldTypeDimension:
			if err := f.expect(true, "data type"); err != nil {
				return array.DataType{}, err
			}
			if f.varint > 1<<31 {
				return array.DataType{}, errors.Wrapf(errs.ErrMalformedMetadata, "data type field %d out of range", f.num)
			}
			switch f.num {
			case fieldTypeKind:
				dt.Kind = array.Kind(f.varint)
			case fieldTypeWidth:
				dt.Width = int(f.varint)
			default:
				dt.Dimension = int(f.varint)
			}
		case fieldTypeElem, fieldTypeFields:
			if err := f.expect(false, "data type"); err != nil {
				return array.DataType{}, err
			}
			child, err := unmarshalDataTypeDepth(f.bytes, depth+1)
			if err != nil {
				return array.DataType{}, err
			}
			if f.num == fieldTypeElem {
				dt.Elem = &child
			} else {
				dt.Fields = append(dt.Fields, child)
			}
		default:
			return array.DataType{}, unknownMetaField(f, "data type")
		}
	}

	if err := checkDataType(dt); err != nil {
		return array.DataType{}, err
	}

	return dt, nil
}

func checkDataType(dt array.DataType) error {
	switch dt.Kind {
	case array.KindFixed:
		if dt.Width < 1 {
			return errors.Wrapf(errs.ErrMalformedMetadata, "fixed type with width %d", dt.Width)
		}
	case array.KindBoolean, array.KindStruct:
	case array.KindList:
		if dt.Elem == nil {
			return errors.Wrap(errs.ErrMalformedMetadata, "list type without element type")
		}
	case array.KindFixedSizeList:
		if dt.Elem == nil || dt.Dimension < 1 {
			return errors.Wrapf(errs.ErrMalformedMetadata, "fixed-size list type with dimension %d", dt.Dimension)
		}
	default:
		return errors.Wrapf(errs.ErrMalformedMetadata, "unknown data type kind %d", dt.Kind)
	}

	return nil
}

// childTypes returns the types of the sibling columns an array of type dt
// spills into when encoded, in the order the encoder emits them.
func childTypes(dt array.DataType) []array.DataType {
	switch dt.Kind {
	case array.KindList:
		return []array.DataType{*dt.Elem}
	case array.KindFixedSizeList:
		return childTypes(*dt.Elem)
	case array.KindStruct:
		return dt.Fields
	default:
		return nil
	}
}
