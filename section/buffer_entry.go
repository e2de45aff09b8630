package section

import (
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/cockroachdb/errors"
)

// BufferEntry locates one stored buffer in the container's buffer section.
//
// It is a fixed size of 32 bytes:
//
//	0-7   Offset
//	8-15  StoredLength
//	16-23 RawLength
//	24-31 Checksum
type BufferEntry struct {
	// Offset is the absolute byte offset of the stored buffer in the file.
	Offset uint64
	// StoredLength is the byte length after compression.
	StoredLength uint64
	// RawLength is the byte length after decompression.
	RawLength uint64
	// Checksum is the xxHash64 of the stored (compressed) bytes.
	Checksum uint64
}

// End returns the offset just past the stored buffer.
func (e BufferEntry) End() uint64 {
	return e.Offset + e.StoredLength
}

// Bytes returns the entry as a byte slice using the specified endian engine.
//
// Parameters:
//   - engine: Endian engine for byte order
//
// Returns:
//   - []byte: 32-byte entry
func (e *BufferEntry) Bytes(engine endian.EndianEngine) []byte {
	var b [BufferEntrySize]byte
	e.WriteToSlice(b[:], 0, engine)

	return b[:]
}

// WriteToSlice writes to a pre-allocated slice and returns the next position.
//
// Parameters:
//   - data: Pre-allocated byte slice (must have space for 32 bytes at offset)
//   - offset: Starting position in data slice
//   - engine: Endian engine for byte order
//
// Returns:
//   - int: Next write position (offset + 32)
func (e *BufferEntry) WriteToSlice(data []byte, offset int, engine endian.EndianEngine) int {
	engine.PutUint64(data[offset:offset+8], e.Offset)
	engine.PutUint64(data[offset+8:offset+16], e.StoredLength)
	engine.PutUint64(data[offset+16:offset+24], e.RawLength)
	engine.PutUint64(data[offset+24:offset+32], e.Checksum)

	return offset + BufferEntrySize
}

// ParseBufferEntry parses a BufferEntry from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the entry (must be at least 32 bytes)
//   - engine: Endian engine for byte order
//
// Returns:
//   - BufferEntry: Parsed entry
//   - error: ErrInvalidEntrySize if data is too short
func ParseBufferEntry(data []byte, engine endian.EndianEngine) (BufferEntry, error) {
	if len(data) < BufferEntrySize {
		return BufferEntry{}, errors.Wrapf(errs.ErrInvalidEntrySize, "got %d bytes", len(data))
	}

	return BufferEntry{
		Offset:       engine.Uint64(data[0:8]),
		StoredLength: engine.Uint64(data[8:16]),
		RawLength:    engine.Uint64(data[16:24]),
		Checksum:     engine.Uint64(data[24:32]),
	}, nil
}

// AppendBufferEntries appends the packed form of entries to dst.
func AppendBufferEntries(dst []byte, entries []BufferEntry, engine endian.EndianEngine) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, len(entries)*BufferEntrySize)...)

	pos := start
	for i := range entries {
		pos = entries[i].WriteToSlice(dst, pos, engine)
	}

	return dst
}

// ParseBufferEntries parses a packed run of entries.
//
// Parameters:
//   - data: Packed entries, a multiple of 32 bytes
//   - engine: Endian engine for byte order
//
// Returns:
//   - []BufferEntry: Parsed entries in order
//   - error: ErrInvalidEntrySize if data is not a multiple of 32 bytes
func ParseBufferEntries(data []byte, engine endian.EndianEngine) ([]BufferEntry, error) {
	if len(data)%BufferEntrySize != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidEntrySize, "packed entries are %d bytes", len(data))
	}

	entries := make([]BufferEntry, len(data)/BufferEntrySize)
	for i := range entries {
		off := i * BufferEntrySize
		entries[i] = BufferEntry{
			Offset:       engine.Uint64(data[off : off+8]),
			StoredLength: engine.Uint64(data[off+8 : off+16]),
			RawLength:    engine.Uint64(data[off+16 : off+24]),
			Checksum:     engine.Uint64(data[off+24 : off+32]),
		}
	}

	return entries, nil
}
