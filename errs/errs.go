// Package errs defines the sentinel errors returned by colenc packages.
//
// Call sites wrap these sentinels with context (errors.Wrapf), so callers should
// match them with errors.Is rather than by comparing messages.
package errs

import "github.com/cockroachdb/errors"

// Read-path errors. They signal corruption or version skew and are never
// recovered locally: a failing node fails the whole column decode.
var (
	// ErrUnresolvedBuffer is returned when a BufferRef index has no entry in its scope.
	ErrUnresolvedBuffer = errors.New("unresolved buffer reference")
	// ErrLengthMismatch is returned when a buffer length disagrees with the row count and width.
	ErrLengthMismatch = errors.New("buffer length mismatch")
	// ErrInvalidOffsets is returned when list offsets break the offsets invariant.
	ErrInvalidOffsets = errors.New("invalid list offsets")
	// ErrDimensionMismatch is returned for a zero dimension or a wrong fixed-size list child row count.
	ErrDimensionMismatch = errors.New("fixed-size list dimension mismatch")
	// ErrUnsupportedEncoding is returned for unset, unknown or reserved encoding variants.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// Metadata and container errors.
var (
	ErrMalformedMetadata   = errors.New("malformed encoding metadata")
	ErrUnsupportedVersion  = errors.New("unsupported metadata version")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrInvalidFooterSize   = errors.New("invalid footer size")
	ErrInvalidFooterFlags  = errors.New("invalid footer flags")
	ErrInvalidEntrySize    = errors.New("invalid buffer entry size")
	ErrInvalidMagicNumber  = errors.New("invalid magic number")
	ErrDuplicateBufferRef  = errors.New("duplicate buffer reference")
	ErrColumnNotFound      = errors.New("column not found")
	ErrInvalidColumnName   = errors.New("invalid column name")
	ErrPageNotFound        = errors.New("page not found")
	ErrDataTypeMismatch    = errors.New("data type mismatch")
	ErrInvalidArray        = errors.New("invalid array")
	ErrInvalidCompression  = errors.New("invalid compression type")
	ErrWriterAlreadyClosed = errors.New("writer already closed")
)
