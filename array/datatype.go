package array

import (
	"fmt"
	"strings"
)

// Kind identifies the physical layout of an array.
type Kind uint8

const (
	KindFixed Kind = iota + 1
	KindBoolean
	KindList
	KindFixedSizeList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "Fixed"
	case KindBoolean:
		return "Boolean"
	case KindList:
		return "List"
	case KindFixedSizeList:
		return "FixedSizeList"
	case KindStruct:
		return "Struct"
	default:
		return "Unknown"
	}
}

// DataType describes an array's logical shape. Only the fields relevant to
// Kind are set.
type DataType struct {
	Kind      Kind
	Width     int        // bytes per value, KindFixed
	Dimension int        // list size, KindFixedSizeList
	Elem      *DataType  // item type, KindList and KindFixedSizeList
	Fields    []DataType // field types, KindStruct
}

// FixedType returns a fixed-width type of width bytes per value.
func FixedType(width int) DataType {
	return DataType{Kind: KindFixed, Width: width}
}

// BooleanType returns the one-bit-per-row type.
func BooleanType() DataType {
	return DataType{Kind: KindBoolean}
}

// ListOf returns a variable-length list type over elem.
func ListOf(elem DataType) DataType {
	return DataType{Kind: KindList, Elem: &elem}
}

// FixedSizeListOf returns a fixed-size list type of dimension items of elem.
func FixedSizeListOf(dimension int, elem DataType) DataType {
	return DataType{Kind: KindFixedSizeList, Dimension: dimension, Elem: &elem}
}

// StructOf returns a struct type with the given field types.
func StructOf(fields ...DataType) DataType {
	return DataType{Kind: KindStruct, Fields: fields}
}

// Equal reports whether d and o describe the same type.
func (d DataType) Equal(o DataType) bool {
	if d.Kind != o.Kind {
		return false
	}

	switch d.Kind {
	case KindFixed:
		return d.Width == o.Width
	case KindBoolean:
		return true
	case KindList:
		return d.Elem != nil && o.Elem != nil && d.Elem.Equal(*o.Elem)
	case KindFixedSizeList:
		return d.Dimension == o.Dimension && d.Elem != nil && o.Elem != nil && d.Elem.Equal(*o.Elem)
	case KindStruct:
		if len(d.Fields) != len(o.Fields) {
			return false
		}
		for i := range d.Fields {
			if !d.Fields[i].Equal(o.Fields[i]) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func (d DataType) String() string {
	switch d.Kind {
	case KindFixed:
		return fmt.Sprintf("fixed<%d>", d.Width)
	case KindBoolean:
		return "bool"
	case KindList:
		return fmt.Sprintf("list<%s>", d.Elem)
	case KindFixedSizeList:
		return fmt.Sprintf("fixed_size_list<%s, %d>", d.Elem, d.Dimension)
	case KindStruct:
		parts := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			parts[i] = f.String()
		}

		return "struct<" + strings.Join(parts, ", ") + ">"
	default:
		return "unknown"
	}
}
