package section

const (
	// Bit masks for Flag.Options
	EndiannessMask   = 0x0001 // Mask for endianness bit (bit 0)
	ReservedBitsMask = 0x000E // Mask for reserved bits (bits 1-3), must be zero
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// Magic numbers (bits 4-15)
	MagicContainerV1Opt = 0xC010 // MagicContainerV1Opt identifies a version 1 column container.
)

// ContainerVersion is the footer layout version written by this package.
const ContainerVersion uint32 = 1

// Section sizes in the container file.
const (
	FooterSize      = 32 // fixed footer size in bytes, stored at the end of the file
	BufferEntrySize = 32 // fixed size of one buffer directory entry in bytes
)
