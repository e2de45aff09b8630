// Package endian provides byte order utilities for colenc buffers.
//
// Value buffers and the container's binary sections are written through an
// EndianEngine, which merges binary.ByteOrder and binary.AppendByteOrder so the
// same value can be used for in-place writes and appends:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint64(buf, offset)
//
// Encoding-tree buffers are always little-endian. The container records its
// own byte order in the footer flag and may use either engine for sections.
//
// All functions in this package are safe for concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness returns the host byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// PutUintN writes the low width bytes of v into b using engine's byte order.
//
// Width must be 1..8 and b must hold at least width bytes. Widths 1, 2, 4 and 8
// use the engine directly; other widths are assembled byte by byte.
func PutUintN(engine EndianEngine, b []byte, width int, v uint64) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		engine.PutUint16(b, uint16(v))
	case 4:
		engine.PutUint32(b, uint32(v))
	case 8:
		engine.PutUint64(b, v)
	default:
		var tmp [8]byte
		engine.PutUint64(tmp[:], v)
		if engine == EndianEngine(binary.BigEndian) {
			copy(b[:width], tmp[8-width:])
		} else {
			copy(b[:width], tmp[:width])
		}
	}
}

// UintN reads a width-byte unsigned integer from b using engine's byte order.
func UintN(engine EndianEngine, b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(engine.Uint16(b))
	case 4:
		return uint64(engine.Uint32(b))
	case 8:
		return engine.Uint64(b)
	default:
		var tmp [8]byte
		if engine == EndianEngine(binary.BigEndian) {
			copy(tmp[8-width:], b[:width])
		} else {
			copy(tmp[:width], b[:width])
		}

		return engine.Uint64(tmp[:])
	}
}
