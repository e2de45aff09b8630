package compress

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances, which keep a hash table
// between calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// SizedDecompressor is implemented by codecs that decompress faster when the
// decompressed size is known up front. Container entries record it.
type SizedDecompressor interface {
	DecompressSized(data []byte, rawSize int) ([]byte, error)
}

// LZ4Compressor compresses buffers as raw LZ4 blocks.
//
// LZ4 blocks do not carry their decompressed size, so Decompress has to probe
// for it. Use DecompressSized when the size is known.
type LZ4Compressor struct{}

var (
	_ Codec             = (*LZ4Compressor)(nil)
	_ SizedDecompressor = (*LZ4Compressor)(nil)
)

// NewLZ4Compressor creates a new LZ4 compressor.
//
// Returns:
//   - LZ4Compressor: New LZ4 compressor instance
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data as a single LZ4 block.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: Compressed data (nil if input is empty)
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compression failed")
	}

	return dst[:n], nil
}

// Decompress decompresses an LZ4 block of unknown decompressed size.
//
// It starts with a buffer four times the compressed size and doubles it on
// ErrInvalidSourceShortBuffer, up to a 128MB limit.
//
// Parameters:
//   - data: Compressed data to decompress
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: Decompression error, or lz4.ErrInvalidSourceShortBuffer past the limit
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}

			return nil, errors.Wrap(err, "lz4 decompression failed")
		}

		return buf[:n], nil
	}

	return nil, errors.Wrap(lz4.ErrInvalidSourceShortBuffer, "lz4 decompression failed")
}

// DecompressSized decompresses an LZ4 block into a buffer of exactly rawSize bytes.
//
// Parameters:
//   - data: Compressed data to decompress
//   - rawSize: Expected decompressed size
//
// Returns:
//   - []byte: Decompressed data
//   - error: Decompression error, including a short block
func (c LZ4Compressor) DecompressSized(data []byte, rawSize int) ([]byte, error) {
	if len(data) == 0 || rawSize == 0 {
		return nil, nil
	}

	buf := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompression failed")
	}
	if n != rawSize {
		return nil, errors.Newf("lz4 decompression produced %d bytes, want %d", n, rawSize)
	}

	return buf, nil
}
