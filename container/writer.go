package container

import (
	"strconv"
	"strings"

	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/compress"
	"github.com/arloliu/colenc/encoding"
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/arloliu/colenc/internal/hash"
	"github.com/arloliu/colenc/internal/options"
	"github.com/arloliu/colenc/internal/pool"
	"github.com/arloliu/colenc/section"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ChildSeparator joins a column name and a child index into the name of the
// physical column holding list items or struct fields.
const ChildSeparator = "/"

// ChildName returns the name of the i-th child column of column name.
func ChildName(name string, i int) string {
	return name + ChildSeparator + strconv.Itoa(i)
}

// Writer builds a container file in memory.
//
// Each WritePage call appends one page to a column. Columns that spill into
// child columns (list items, struct fields) get a page in every child column
// as well, so page i of a column lines up with page i of its children.
//
// A Writer is not safe for concurrent use. After an error from WritePage the
// writer is poisoned and every later call returns the same error.
type Writer struct {
	cfg     WriterConfig
	codec   compress.Codec
	encoder *encoding.Encoder
	engine  endian.EndianEngine
	body    *pool.ByteBuffer
	meta    fileMeta
	byName  map[string]*columnMeta
	stats   compress.CompressionStats
	err     error
	closed  bool
}

// NewWriter creates a container writer.
//
// Parameters:
//   - opts: Optional configuration (WithCompression, WithEndian, WithBufferScope, WithWriterLogger)
//
// Returns:
//   - *Writer: The writer
//   - error: Returned when an option is invalid
func NewWriter(opts ...WriterOption) (*Writer, error) {
	cfg := WriterConfig{
		compression: format.CompressionNone,
		scope:       format.ScopePage,
		logger:      log.NewNopLogger(),
	}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.CreateCodec(cfg.compression, "buffer")
	if err != nil {
		return nil, err
	}

	encoder, err := encoding.NewEncoder(encoding.WithScope(cfg.scope), encoding.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}

	engine := endian.GetLittleEndianEngine()
	if cfg.bigEndian {
		engine = endian.GetBigEndianEngine()
	}

	return &Writer{
		cfg:     cfg,
		codec:   codec,
		encoder: encoder,
		engine:  engine,
		body:    pool.GetFileBuffer(),
		byName:  make(map[string]*columnMeta),
		stats:   compress.CompressionStats{Algorithm: cfg.compression},
	}, nil
}

// WritePage encodes arr as the next page of column name.
//
// The first page fixes the column's data type; later pages must have the same
// type. Names must be non-empty and must not contain ChildSeparator.
//
// Parameters:
//   - name: Column name
//   - arr: Rows of the page
//
// Returns:
//   - error: ErrWriterAlreadyClosed, ErrInvalidColumnName, ErrDataTypeMismatch,
//     or an encoding error
func (w *Writer) WritePage(name string, arr array.Array) error {
	if w.closed {
		return errs.ErrWriterAlreadyClosed
	}
	if w.err != nil {
		return w.err
	}
	if name == "" || strings.Contains(name, ChildSeparator) {
		return errors.Wrapf(errs.ErrInvalidColumnName, "%q", name)
	}

	if err := w.writePage(name, arr); err != nil {
		w.err = err
		return err
	}

	return nil
}

func (w *Writer) writePage(name string, arr array.Array) error {
	if uint64(arr.Len()) > encoding.MaxRows { //nolint:gosec
		return errors.Wrapf(errs.ErrLengthMismatch, "column %q page has %d rows, limit is %d", name, arr.Len(), uint64(encoding.MaxRows))
	}

	col, ok := w.byName[name]
	if !ok {
		col = &columnMeta{name: name, dataType: arr.DataType()}
		w.byName[name] = col
		w.meta.columns = append(w.meta.columns, col)
	} else if !col.dataType.Equal(arr.DataType()) {
		return errors.Wrapf(errs.ErrDataTypeMismatch, "column %q has type %s, page has %s", name, col.dataType, arr.DataType())
	}

	page := &pageMeta{}
	sink := &pageSink{w: w, col: col, page: page}

	encoded, err := w.encoder.Encode(arr, sink)
	if err != nil {
		return errors.Wrapf(err, "column %q page %d", name, len(col.pages))
	}
	if sink.err != nil {
		return errors.Wrapf(sink.err, "column %q page %d", name, len(col.pages))
	}

	page.numRows = encoded.NumRows
	page.numItems = encoded.NumItems
	page.tree = encoded.Tree
	col.pages = append(col.pages, page)

	level.Debug(w.cfg.logger).Log(
		"msg", "wrote page",
		"column", name,
		"page", len(col.pages)-1,
		"rows", page.numRows,
		"buffers", len(page.buffers),
	)

	for i, child := range encoded.Children {
		if err := w.writePage(ChildName(name, i), child); err != nil {
			return err
		}
	}

	return nil
}

// store compresses data, appends it to the body and returns its entry.
func (w *Writer) store(data []byte) (section.BufferEntry, error) {
	stored, err := w.codec.Compress(data)
	if err != nil {
		return section.BufferEntry{}, err
	}

	entry := section.BufferEntry{
		Offset:       uint64(w.body.Len()), //nolint:gosec
		StoredLength: uint64(len(stored)),
		RawLength:    uint64(len(data)),
		Checksum:     hash.Checksum(stored),
	}
	_, _ = w.body.Write(stored)
	w.stats.Add(int64(len(data)), int64(len(stored)))

	return entry, nil
}

// Stats returns the compression statistics of the buffers written so far.
func (w *Writer) Stats() compress.CompressionStats {
	return w.stats
}

// Bytes seals the container and returns the file contents.
//
// The writer cannot be used afterwards.
//
// Returns:
//   - []byte: Container file
//   - error: ErrWriterAlreadyClosed, a poisoned writer error, or a metadata error
func (w *Writer) Bytes() ([]byte, error) {
	if w.closed {
		return nil, errs.ErrWriterAlreadyClosed
	}
	if w.err != nil {
		return nil, w.err
	}
	w.closed = true
	defer func() {
		pool.PutFileBuffer(w.body)
		w.body = nil
	}()

	metadata, err := marshalFileMeta(&w.meta, w.engine)
	if err != nil {
		return nil, err
	}

	footer := section.NewFooter()
	if w.cfg.bigEndian {
		footer.Flag.WithBigEndian()
	}
	footer.Flag.SetCompression(w.cfg.compression)
	footer.MetadataOffset = uint64(w.body.Len()) //nolint:gosec
	footer.MetadataLength = uint64(len(metadata))
	footer.MetadataChecksum = hash.Checksum(metadata)

	_, _ = w.body.Write(metadata)
	_, _ = w.body.Write(footer.Bytes())

	level.Info(w.cfg.logger).Log(
		"msg", "sealed container",
		"columns", len(w.meta.columns),
		"bytes", w.body.Len(),
		"compression", w.cfg.compression,
		"space_savings", w.stats.SpaceSavings(),
	)

	return w.body.Clone(), nil
}

// pageSink places the buffers of one page into page, column or file scope.
//
// Sink.Put cannot fail, so the first storage error is kept and checked once
// Encode returns.
type pageSink struct {
	w    *Writer
	col  *columnMeta
	page *pageMeta
	err  error
}

var _ encoding.Sink = (*pageSink)(nil)

func (s *pageSink) Put(scope format.BufferScope, data []byte) encoding.BufferRef {
	var list *[]section.BufferEntry
	switch scope {
	case format.ScopePage:
		list = &s.page.buffers
	case format.ScopeColumnMetadata:
		list = &s.col.buffers
	case format.ScopeFileMetadata:
		list = &s.w.meta.buffers
	default:
		panic(errors.AssertionFailedf("invalid buffer scope %d", scope))
	}

	ref := encoding.BufferRef{Index: uint32(len(*list)), Scope: scope} //nolint:gosec
	entry, err := s.w.store(data)
	if err != nil && s.err == nil {
		s.err = err
	}
	*list = append(*list, entry)

	return ref
}
