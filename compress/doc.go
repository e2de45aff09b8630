// Package compress provides the block codecs used for container buffers.
//
// Every buffer a container stores is compressed independently with the
// codec named in the container footer, so a reader can decompress only the
// buffers a decode actually resolves.
//
// # Supported Algorithms
//
//   - None: buffers are stored as-is
//   - Zstd: best ratio, slowest; pure Go by default, C library with the gozstd build tag
//   - S2: fast Snappy-compatible compression
//   - LZ4: fastest decompression; blocks do not carry their raw size
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//		return err
//	}
//	stored, err := codec.Compress(buf)
//
// The shared codecs returned by GetCodec are safe for concurrent use.
// CompressionStats accumulates raw and stored sizes so callers can report the
// effect of a codec on a file.
package compress
