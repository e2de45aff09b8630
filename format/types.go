package format

type (
	BufferScope        uint8
	BufferEncodingType uint8
	NullabilityType    uint8
	ArrayEncodingType  uint8
	CompressionType    uint8
)

// Buffer scopes. The numeric values match the metadata wire enum.
const (
	ScopePage           BufferScope = 0x0 // ScopePage places a buffer in the page that owns the tree.
	ScopeColumnMetadata BufferScope = 0x1 // ScopeColumnMetadata shares a buffer across every page of a column.
	ScopeFileMetadata   BufferScope = 0x2 // ScopeFileMetadata shares a buffer across the whole file.
)

const (
	BufferValue  BufferEncodingType = 0x1 // BufferValue represents fixed-width row-major values.
	BufferBitmap BufferEncodingType = 0x2 // BufferBitmap represents one bit per row, LSB first.

	// Reserved buffer encodings. They have wire tags but no decoder.
	BufferConstant         BufferEncodingType = 0x3
	BufferRunEnd           BufferEncodingType = 0x4
	BufferDictionary       BufferEncodingType = 0x5
	BufferBitPacking       BufferEncodingType = 0x6
	BufferFrameOfReference BufferEncodingType = 0x7
)

const (
	NoNulls   NullabilityType = 0x1 // NoNulls means every row is valid.
	SomeNulls NullabilityType = 0x2 // SomeNulls means a validity bitmap accompanies the values.
	AllNulls  NullabilityType = 0x3 // AllNulls means every row is null and no buffers are stored.
)

const (
	ArrayBasic         ArrayEncodingType = 0x1
	ArrayFixedSizeList ArrayEncodingType = 0x2
	ArrayList          ArrayEncodingType = 0x3
	ArrayStruct        ArrayEncodingType = 0x4
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (s BufferScope) String() string {
	switch s {
	case ScopePage:
		return "Page"
	case ScopeColumnMetadata:
		return "ColumnMetadata"
	case ScopeFileMetadata:
		return "FileMetadata"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the three known scopes.
func (s BufferScope) Valid() bool {
	return s <= ScopeFileMetadata
}

func (e BufferEncodingType) String() string {
	switch e {
	case BufferValue:
		return "Value"
	case BufferBitmap:
		return "Bitmap"
	case BufferConstant:
		return "Constant"
	case BufferRunEnd:
		return "RunEnd"
	case BufferDictionary:
		return "Dictionary"
	case BufferBitPacking:
		return "BitPacking"
	case BufferFrameOfReference:
		return "FrameOfReference"
	default:
		return "Unknown"
	}
}

// Reserved reports whether e is a recognized but unimplemented buffer encoding.
func (e BufferEncodingType) Reserved() bool {
	return e >= BufferConstant && e <= BufferFrameOfReference
}

func (n NullabilityType) String() string {
	switch n {
	case NoNulls:
		return "NoNulls"
	case SomeNulls:
		return "SomeNulls"
	case AllNulls:
		return "AllNulls"
	default:
		return "Unknown"
	}
}

func (a ArrayEncodingType) String() string {
	switch a {
	case ArrayBasic:
		return "Basic"
	case ArrayFixedSizeList:
		return "FixedSizeList"
	case ArrayList:
		return "List"
	case ArrayStruct:
		return "Struct"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
