package section

import (
	"github.com/arloliu/colenc/errs"
	"github.com/cockroachdb/errors"
)

// Footer is the fixed-size trailer of a column container.
//
// Layout (32 bytes):
//
//	0-3   Flag
//	4-7   Version
//	8-15  MetadataOffset
//	16-23 MetadataLength
//	24-31 MetadataChecksum
//
// All fields after the flag use the byte order the flag selects.
type Footer struct {
	// Flag is a packed field for the magic number, byte order and compression.
	Flag Flag // byte offset 0-3
	// Version is the container layout version.
	Version uint32 // byte offset 4-7
	// MetadataOffset is the byte offset of the file metadata section.
	MetadataOffset uint64 // byte offset 8-15
	// MetadataLength is the byte length of the file metadata section.
	MetadataLength uint64 // byte offset 16-23
	// MetadataChecksum is the xxHash64 of the file metadata section.
	MetadataChecksum uint64 // byte offset 24-31
}

// NewFooter creates a footer with the default flag and current version.
// Metadata location and checksum are set when the writer finishes.
func NewFooter() *Footer {
	return &Footer{
		Flag:    NewFlag(),
		Version: ContainerVersion,
	}
}

// Parse parses the footer from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the footer (must be exactly 32 bytes)
//
// Returns:
//   - error: ErrInvalidFooterSize, flag validation errors, or ErrUnsupportedVersion
func (f *Footer) Parse(data []byte) error {
	if len(data) != FooterSize {
		return errors.Wrapf(errs.ErrInvalidFooterSize, "got %d bytes", len(data))
	}

	f.Flag.Options = uint16(data[0]) | (uint16(data[1]) << 8)
	f.Flag.CompressionType = data[2]
	f.Flag.Reserved = data[3]

	if err := f.Flag.Validate(); err != nil {
		return err
	}

	engine := f.Flag.GetEndianEngine()

	f.Version = engine.Uint32(data[4:8])
	f.MetadataOffset = engine.Uint64(data[8:16])
	f.MetadataLength = engine.Uint64(data[16:24])
	f.MetadataChecksum = engine.Uint64(data[24:32])

	if f.Version != ContainerVersion {
		return errors.Wrapf(errs.ErrUnsupportedVersion, "container version %d", f.Version)
	}

	return nil
}

// Bytes serializes the footer into a 32-byte slice.
func (f *Footer) Bytes() []byte {
	b := make([]byte, FooterSize)

	engine := f.Flag.GetEndianEngine()

	b[0] = byte(f.Flag.Options)
	b[1] = byte(f.Flag.Options >> 8)
	b[2] = f.Flag.CompressionType
	b[3] = f.Flag.Reserved
	engine.PutUint32(b[4:8], f.Version)
	engine.PutUint64(b[8:16], f.MetadataOffset)
	engine.PutUint64(b[16:24], f.MetadataLength)
	engine.PutUint64(b[24:32], f.MetadataChecksum)

	return b
}

// ParseFooter parses the footer from the tail of a container file.
//
// Parameters:
//   - data: Whole container file (must be at least 32 bytes)
//
// Returns:
//   - Footer: Parsed footer
//   - error: ErrInvalidFooterSize, flag validation errors, or ErrUnsupportedVersion
func ParseFooter(data []byte) (Footer, error) {
	if len(data) < FooterSize {
		return Footer{}, errors.Wrapf(errs.ErrInvalidFooterSize, "file is %d bytes", len(data))
	}

	f := Footer{}
	if err := f.Parse(data[len(data)-FooterSize:]); err != nil {
		return Footer{}, err
	}

	return f, nil
}
