// Package section defines the fixed-size binary structures of a column container.
//
// A container stores the buffers referenced by encoding trees, followed by a
// protobuf-framed metadata section and a fixed footer:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Buffers (variable, each compressed independently)       │
//	├─────────────────────────────────────────────────────────┤
//	│ File metadata (variable, protobuf wire format)          │
//	│  - file-scope buffer entries                            │
//	│  - per column: name, data type, column-scope entries    │
//	│  - per page: row/item counts, encoding tree, entries    │
//	├─────────────────────────────────────────────────────────┤
//	│ Footer (32 bytes, fixed)                                │
//	│  - Flag (4 bytes): magic, byte order, compression       │
//	│  - Version (4 bytes)                                    │
//	│  - Metadata offset, length and xxHash64 (24 bytes)      │
//	└─────────────────────────────────────────────────────────┘
//
// This package owns the footer and the 32-byte BufferEntry that locates each
// stored buffer. The metadata section itself is produced by the container
// package.
//
// # Byte Order
//
// The Flag.Options field is always little-endian so a reader can find the byte
// order before decoding anything else. Every other footer and entry field uses
// the byte order the flag selects.
package section
