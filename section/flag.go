package section

import (
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
)

// Flag is the packed 4-byte field at the start of the footer.
type Flag struct {
	// Options is a packed field for various options.
	// Bit 0 is the endianness flag, 0 means little-endian, 1 means big-endian.
	// Bits 1-3 are reserved and must be 0.
	// Bits 4-15 are the magic number, 0xC010 for container format v1.
	//
	// Options itself is always stored little-endian so it can be read before
	// the byte order is known.
	Options uint16

	// CompressionType is the codec applied to every stored buffer.
	CompressionType uint8

	// Reserved must be 0.
	Reserved uint8
}

// NewFlag creates a little-endian flag without compression.
func NewFlag() Flag {
	return Flag{
		Options:         MagicContainerV1Opt,
		CompressionType: uint8(format.CompressionNone),
	}
}

// IsLittleEndian returns whether sections are little-endian.
func (f Flag) IsLittleEndian() bool {
	return (f.Options & EndiannessMask) == 0
}

// IsBigEndian returns whether sections are big-endian.
func (f Flag) IsBigEndian() bool {
	return (f.Options & EndiannessMask) != 0
}

// WithLittleEndian sets little-endian byte order.
func (f *Flag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

// WithBigEndian sets big-endian byte order.
func (f *Flag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number from the Options field.
func (f Flag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// Compression returns the buffer compression type.
func (f Flag) Compression() format.CompressionType {
	return format.CompressionType(f.CompressionType)
}

// SetCompression sets the buffer compression type.
func (f *Flag) SetCompression(compression format.CompressionType) {
	f.CompressionType = uint8(compression)
}

// Validate checks the magic number, reserved bits and compression type.
func (f Flag) Validate() error {
	if f.GetMagicNumber() != MagicContainerV1Opt {
		return errors.Wrapf(errs.ErrInvalidMagicNumber, "magic 0x%04x", f.GetMagicNumber())
	}

	if f.Options&ReservedBitsMask != 0 || f.Reserved != 0 {
		return errors.Wrapf(errs.ErrInvalidFooterFlags, "options 0x%04x reserved 0x%02x", f.Options, f.Reserved)
	}

	switch f.Compression() {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		return nil
	default:
		return errors.Wrapf(errs.ErrInvalidCompression, "footer compression %s", f.Compression())
	}
}

// GetEndianEngine returns the endian engine matching the flag.
func (f Flag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}
