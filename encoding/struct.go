package encoding

// StructEncoding encodes a non-nullable struct whose fields are stored as
// sibling columns. It owns no buffers.
type StructEncoding struct{}

// StructValue is a decoded struct shell; its fields come from sibling columns.
type StructValue struct {
	NumRows uint64
}

// Len returns the number of rows.
func (v *StructValue) Len() uint64 { return v.NumRows }
