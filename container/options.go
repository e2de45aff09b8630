package container

import (
	"github.com/arloliu/colenc/compress"
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/format"
	"github.com/arloliu/colenc/internal/options"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
)

// WriterConfig holds the settings of a Writer.
type WriterConfig struct {
	compression format.CompressionType
	bigEndian   bool
	scope       format.BufferScope
	logger      log.Logger
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*WriterConfig]

// WithCompression sets the codec applied to every stored buffer.
//
// Default: format.CompressionNone.
func WithCompression(compression format.CompressionType) WriterOption {
	return options.New(func(cfg *WriterConfig) error {
		if _, err := compress.GetCodec(compression); err != nil {
			return err
		}
		cfg.compression = compression

		return nil
	})
}

// WithEndian sets the byte order of the footer and buffer entries.
//
// Encoding-tree buffers are always little-endian and are not affected.
// Default: little-endian.
func WithEndian(engine endian.EndianEngine) WriterOption {
	return options.New(func(cfg *WriterConfig) error {
		switch engine {
		case endian.GetLittleEndianEngine():
			cfg.bigEndian = false
		case endian.GetBigEndianEngine():
			cfg.bigEndian = true
		default:
			return errors.Newf("unsupported endian engine %T", engine)
		}

		return nil
	})
}

// WithBufferScope sets the scope buffers are placed in.
//
// Page-scoped buffers are listed with their page, column-scoped buffers with
// their column, and file-scoped buffers once per file. Default: format.ScopePage.
func WithBufferScope(scope format.BufferScope) WriterOption {
	return options.New(func(cfg *WriterConfig) error {
		if !scope.Valid() {
			return errors.Newf("invalid buffer scope %d", scope)
		}
		cfg.scope = scope

		return nil
	})
}

// WithWriterLogger sets the logger for page writes. A nil logger disables logging.
func WithWriterLogger(logger log.Logger) WriterOption {
	return options.NoError(func(cfg *WriterConfig) {
		if logger == nil {
			logger = log.NewNopLogger()
		}
		cfg.logger = logger
	})
}

// ReaderConfig holds the settings of a Reader.
type ReaderConfig struct {
	concurrency int
	logger      log.Logger
}

// ReaderOption configures a Reader.
type ReaderOption = options.Option[*ReaderConfig]

// WithDecodeConcurrency bounds the number of pages DecodeColumn decodes at once.
//
// Default: 4.
func WithDecodeConcurrency(n int) ReaderOption {
	return options.New(func(cfg *ReaderConfig) error {
		if n < 1 {
			return errors.Newf("decode concurrency must be positive, got %d", n)
		}
		cfg.concurrency = n

		return nil
	})
}

// WithReaderLogger sets the logger for reads. A nil logger disables logging.
func WithReaderLogger(logger log.Logger) ReaderOption {
	return options.NoError(func(cfg *ReaderConfig) {
		if logger == nil {
			logger = log.NewNopLogger()
		}
		cfg.logger = logger
	})
}
