package container

import (
	"context"
	"strings"

	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/compress"
	"github.com/arloliu/colenc/encoding"
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/arloliu/colenc/internal/hash"
	"github.com/arloliu/colenc/internal/options"
	"github.com/arloliu/colenc/section"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
)

// ColumnInfo describes one physical column of a container.
type ColumnInfo struct {
	Name     string
	DataType array.DataType
	// Root is false for the child columns holding list items or struct fields.
	Root       bool
	NumPages   int
	NumBuffers int
}

// PageInfo describes one page of a column.
type PageInfo struct {
	NumRows    uint64
	NumItems   uint64
	Tree       encoding.ArrayEncoding
	NumBuffers int
}

// Reader decodes columns from a container file held in memory.
//
// A Reader is safe for concurrent use. Buffers stored without compression are
// returned as sub-slices of the file, so the file must not be modified while
// the reader is in use.
type Reader struct {
	cfg     ReaderConfig
	data    []byte
	footer  section.Footer
	engine  endian.EndianEngine
	codec   compress.Codec
	meta    *fileMeta
	byName  map[string]*columnMeta
	bodyEnd uint64
}

// Open parses and verifies a container file.
//
// The footer, the metadata checksum, every encoding tree and every buffer
// entry's bounds are checked up front. Buffer checksums are checked when the
// buffer is resolved.
//
// Parameters:
//   - data: Container file
//   - opts: Optional configuration (WithDecodeConcurrency, WithReaderLogger)
//
// Returns:
//   - *Reader: The reader
//   - error: Footer, checksum or metadata errors
func Open(data []byte, opts ...ReaderOption) (*Reader, error) {
	cfg := ReaderConfig{concurrency: 4, logger: log.NewNopLogger()}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	footer, err := section.ParseFooter(data)
	if err != nil {
		return nil, err
	}

	bodyEnd := uint64(len(data) - section.FooterSize)
	if footer.MetadataOffset > bodyEnd || footer.MetadataLength > bodyEnd-footer.MetadataOffset {
		return nil, errors.Wrapf(errs.ErrMalformedMetadata, "metadata [%d, +%d) outside file body of %d bytes",
			footer.MetadataOffset, footer.MetadataLength, bodyEnd)
	}

	metadata := data[footer.MetadataOffset : footer.MetadataOffset+footer.MetadataLength]
	if !hash.Verify(metadata, footer.MetadataChecksum) {
		return nil, errors.Wrap(errs.ErrChecksumMismatch, "file metadata")
	}

	engine := footer.Flag.GetEndianEngine()
	meta, err := unmarshalFileMeta(metadata, engine)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(footer.Flag.Compression())
	if err != nil {
		return nil, err
	}

	r := &Reader{
		cfg:     cfg,
		data:    data,
		footer:  footer,
		engine:  engine,
		codec:   codec,
		meta:    meta,
		byName:  make(map[string]*columnMeta, len(meta.columns)),
		bodyEnd: footer.MetadataOffset,
	}

	if err := r.verify(); err != nil {
		return nil, err
	}

	level.Debug(cfg.logger).Log(
		"msg", "opened container",
		"columns", len(meta.columns),
		"file_buffers", len(meta.buffers),
		"compression", footer.Flag.Compression(),
	)

	return r, nil
}

func (r *Reader) verify() error {
	if err := r.checkEntries(r.meta.buffers, "file buffers"); err != nil {
		return err
	}

	for _, col := range r.meta.columns {
		if _, dup := r.byName[col.name]; dup || col.name == "" {
			return errors.Wrapf(errs.ErrMalformedMetadata, "duplicate or empty column name %q", col.name)
		}
		r.byName[col.name] = col

		if err := r.checkEntries(col.buffers, col.name); err != nil {
			return err
		}
		for i, page := range col.pages {
			if page.numRows > encoding.MaxRows {
				return errors.Wrapf(errs.ErrMalformedMetadata, "column %q page %d claims %d rows, limit is %d",
					col.name, i, page.numRows, uint64(encoding.MaxRows))
			}
			if err := encoding.Validate(page.tree); err != nil {
				return errors.Wrapf(err, "column %q page %d", col.name, i)
			}
			if err := r.checkEntries(page.buffers, col.name); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Reader) checkEntries(entries []section.BufferEntry, owner string) error {
	for i, e := range entries {
		if e.Offset > r.bodyEnd || e.StoredLength > r.bodyEnd-e.Offset {
			return errors.Wrapf(errs.ErrMalformedMetadata, "%s buffer %d [%d, +%d) outside buffer section",
				owner, i, e.Offset, e.StoredLength)
		}
	}

	return nil
}

// Footer returns the parsed footer.
func (r *Reader) Footer() section.Footer {
	return r.footer
}

// Columns returns every physical column in write order.
func (r *Reader) Columns() []ColumnInfo {
	out := make([]ColumnInfo, len(r.meta.columns))
	for i, col := range r.meta.columns {
		out[i] = columnInfo(col)
	}

	return out
}

// Column returns the description of column name.
func (r *Reader) Column(name string) (ColumnInfo, error) {
	col, err := r.column(name)
	if err != nil {
		return ColumnInfo{}, err
	}

	return columnInfo(col), nil
}

func columnInfo(col *columnMeta) ColumnInfo {
	return ColumnInfo{
		Name:       col.name,
		DataType:   col.dataType,
		Root:       !strings.Contains(col.name, ChildSeparator),
		NumPages:   len(col.pages),
		NumBuffers: len(col.buffers),
	}
}

// Pages returns the pages of column name.
func (r *Reader) Pages(name string) ([]PageInfo, error) {
	col, err := r.column(name)
	if err != nil {
		return nil, err
	}

	out := make([]PageInfo, len(col.pages))
	for i, p := range col.pages {
		out[i] = PageInfo{NumRows: p.numRows, NumItems: p.numItems, Tree: p.tree, NumBuffers: len(p.buffers)}
	}

	return out, nil
}

func (r *Reader) column(name string) (*columnMeta, error) {
	col, ok := r.byName[name]
	if !ok {
		return nil, errors.Wrapf(errs.ErrColumnNotFound, "%q", name)
	}

	return col, nil
}

// Stats returns the compression statistics over every stored buffer.
func (r *Reader) Stats() compress.CompressionStats {
	stats := compress.CompressionStats{Algorithm: r.footer.Flag.Compression()}
	add := func(entries []section.BufferEntry) {
		for _, e := range entries {
			stats.Add(int64(e.RawLength), int64(e.StoredLength)) //nolint:gosec
		}
	}

	add(r.meta.buffers)
	for _, col := range r.meta.columns {
		add(col.buffers)
		for _, p := range col.pages {
			add(p.buffers)
		}
	}

	return stats
}

// Page returns page index of column name. The page resolves buffer
// references for its encoding tree.
func (r *Reader) Page(name string, index int) (*Page, error) {
	col, err := r.column(name)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(col.pages) {
		return nil, errors.Wrapf(errs.ErrPageNotFound, "column %q has %d pages, want %d", name, len(col.pages), index)
	}

	return &Page{r: r, col: col, meta: col.pages[index], index: index}, nil
}

// DecodePage decodes page index of column name into an array, decoding the
// same page of every child column.
func (r *Reader) DecodePage(name string, index int) (array.Array, error) {
	page, err := r.Page(name, index)
	if err != nil {
		return nil, err
	}

	value, err := page.Decode()
	if err != nil {
		return nil, err
	}

	types := childTypes(page.col.dataType)
	children := make([]array.Array, len(types))
	for i := range types {
		child, err := r.DecodePage(ChildName(name, i), index)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	arr, err := encoding.Assemble(value, page.col.dataType, children...)
	if err != nil {
		return nil, errors.Wrapf(err, "column %q page %d", name, index)
	}

	return arr, nil
}

// DecodeColumn decodes every page of column name, one array per page.
//
// Pages are decoded concurrently, up to the WithDecodeConcurrency limit. The
// first failing page cancels the rest.
//
// Parameters:
//   - ctx: Context for cancellation
//   - name: Column name
//
// Returns:
//   - []array.Array: Decoded pages in order
//   - error: ErrColumnNotFound, context errors, or the first page error
func (r *Reader) DecodeColumn(ctx context.Context, name string) ([]array.Array, error) {
	col, err := r.column(name)
	if err != nil {
		return nil, err
	}

	out := make([]array.Array, len(col.pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.concurrency)

	for i := range col.pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			arr, err := r.DecodePage(name, i)
			if err != nil {
				return err
			}
			out[i] = arr

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	level.Debug(r.cfg.logger).Log("msg", "decoded column", "column", name, "pages", len(out))

	return out, nil
}

// Page is one page of a column. It implements encoding.Locator over the
// page's own buffers and those of its column and file.
type Page struct {
	r     *Reader
	col   *columnMeta
	meta  *pageMeta
	index int
}

var _ encoding.Locator = (*Page)(nil)

// NumRows returns the page's row count.
func (p *Page) NumRows() uint64 { return p.meta.numRows }

// NumItems returns the list item count of the page, 0 when it has no list.
func (p *Page) NumItems() uint64 { return p.meta.numItems }

// Tree returns the page's encoding tree.
func (p *Page) Tree() encoding.ArrayEncoding { return p.meta.tree }

// Decode decodes the page's encoding tree.
func (p *Page) Decode() (encoding.ArrayValue, error) {
	value, err := encoding.Decode(p, p.meta.tree, encoding.DecodeContext{
		NumRows:  p.meta.numRows,
		NumItems: p.meta.numItems,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "column %q page %d", p.col.name, p.index)
	}

	return value, nil
}

// Resolve reads, verifies and decompresses the buffer ref names.
func (p *Page) Resolve(ref encoding.BufferRef) ([]byte, error) {
	var entries []section.BufferEntry
	switch ref.Scope {
	case format.ScopePage:
		entries = p.meta.buffers
	case format.ScopeColumnMetadata:
		entries = p.col.buffers
	case format.ScopeFileMetadata:
		entries = p.r.meta.buffers
	default:
		return nil, errors.Wrapf(errs.ErrUnresolvedBuffer, "unknown scope %d", ref.Scope)
	}

	if int(ref.Index) >= len(entries) {
		return nil, errors.Wrapf(errs.ErrUnresolvedBuffer, "%s: scope holds %d buffers", ref, len(entries))
	}

	return p.r.readBuffer(entries[ref.Index], ref)
}

func (r *Reader) readBuffer(e section.BufferEntry, ref encoding.BufferRef) ([]byte, error) {
	stored := r.data[e.Offset:e.End()]
	if !hash.Verify(stored, e.Checksum) {
		return nil, errors.Wrapf(errs.ErrChecksumMismatch, "buffer %s", ref)
	}

	var (
		raw []byte
		err error
	)
	if sized, ok := r.codec.(compress.SizedDecompressor); ok {
		raw, err = sized.DecompressSized(stored, int(e.RawLength)) //nolint:gosec
	} else {
		raw, err = r.codec.Decompress(stored)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "buffer %s", ref)
	}

	if uint64(len(raw)) != e.RawLength {
		return nil, errors.Wrapf(errs.ErrLengthMismatch, "buffer %s decompressed to %d bytes, entry says %d", ref, len(raw), e.RawLength)
	}

	return raw, nil
}
