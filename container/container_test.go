package container

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/arloliu/colenc/array"
	"github.com/arloliu/colenc/encoding"
	"github.com/arloliu/colenc/endian"
	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/arloliu/colenc/internal/hash"
	"github.com/arloliu/colenc/section"
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, pages map[string][]array.Array, opts ...WriterOption) []byte {
	t.Helper()

	w, err := NewWriter(opts...)
	require.NoError(t, err)

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, arr := range pages[name] {
			require.NoError(t, w.WritePage(name, arr))
		}
	}

	data, err := w.Bytes()
	require.NoError(t, err)

	return data
}

func requireRoundTrip(t *testing.T, data []byte, pages map[string][]array.Array) {
	t.Helper()

	r, err := Open(data, WithDecodeConcurrency(2))
	require.NoError(t, err)

	for name, want := range pages {
		got, err := r.DecodeColumn(context.Background(), name)
		require.NoError(t, err, name)
		require.Len(t, got, len(want), name)
		for i := range want {
			require.True(t, array.Equal(want[i], got[i]), "column %s page %d", name, i)
		}
	}
}

func TestContainer_RoundTrip(t *testing.T) {
	compressions := []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	}
	engines := map[string]endian.EndianEngine{
		"little": endian.GetLittleEndianEngine(),
		"big":    endian.GetBigEndianEngine(),
	}

	for _, ct := range compressions {
		for engineName, engine := range engines {
			t.Run(ct.String()+"/"+engineName, func(t *testing.T) {
				pages := samplePages(t)
				data := writeFile(t, pages, WithCompression(ct), WithEndian(engine))
				requireRoundTrip(t, data, pages)

				footer, err := section.ParseFooter(data)
				require.NoError(t, err)
				require.Equal(t, ct, footer.Flag.Compression())
				require.Equal(t, engineName == "big", footer.Flag.IsBigEndian())
			})
		}
	}
}

func TestContainer_BufferScopes(t *testing.T) {
	for _, scope := range []format.BufferScope{format.ScopePage, format.ScopeColumnMetadata, format.ScopeFileMetadata} {
		t.Run(scope.String(), func(t *testing.T) {
			pages := samplePages(t)
			data := writeFile(t, pages, WithBufferScope(scope))
			requireRoundTrip(t, data, pages)

			r, err := Open(data)
			require.NoError(t, err)

			page, err := r.Page("ints", 0)
			require.NoError(t, err)
			for _, ref := range encoding.Refs(page.Tree()) {
				require.Equal(t, scope, ref.Scope)
			}

			info, err := r.Pages("ints")
			require.NoError(t, err)
			col, err := r.Column("ints")
			require.NoError(t, err)
			switch scope {
			case format.ScopePage:
				require.Equal(t, 1, info[0].NumBuffers)
				require.Zero(t, col.NumBuffers)
			case format.ScopeColumnMetadata:
				require.Zero(t, info[0].NumBuffers)
				// two non-AllNulls pages, the second with validity
				require.Equal(t, 3, col.NumBuffers)
			default:
				require.Zero(t, info[0].NumBuffers)
				require.Zero(t, col.NumBuffers)
			}
		})
	}
}

func TestContainer_ChildColumns(t *testing.T) {
	data := writeFile(t, samplePages(t))
	r, err := Open(data)
	require.NoError(t, err)

	var roots, children []string
	for _, col := range r.Columns() {
		if col.Root {
			roots = append(roots, col.Name)
		} else {
			children = append(children, col.Name)
		}
	}

	require.ElementsMatch(t, []string{"flags", "ints", "nested", "points", "records", "tags", "vectors"}, roots)
	require.ElementsMatch(t, []string{"nested/0", "nested/0/0", "records/0", "records/1", "records/1/0", "tags/0"}, children)

	// Child pages line up with the parent's pages.
	tags, err := r.Column("tags")
	require.NoError(t, err)
	items, err := r.Column("tags/0")
	require.NoError(t, err)
	require.Equal(t, tags.NumPages, items.NumPages)
	require.Equal(t, array.FixedType(2), items.DataType)

	pages, err := r.Pages("tags")
	require.NoError(t, err)
	require.Equal(t, uint64(3), pages[0].NumRows)
	require.Equal(t, uint64(5), pages[0].NumItems)
	require.Equal(t, format.ArrayList, pages[0].Tree.Type())
}

func TestContainer_PageDecode(t *testing.T) {
	data := writeFile(t, samplePages(t))
	r, err := Open(data)
	require.NoError(t, err)

	page, err := r.Page("ints", 2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), page.NumRows())
	require.Zero(t, page.NumItems())
	require.Equal(t, "Basic(AllNulls)", encoding.Describe(page.Tree()))

	value, err := page.Decode()
	require.NoError(t, err)
	require.Equal(t, uint64(2), value.Len())

	arr, err := r.DecodePage("ints", 2)
	require.NoError(t, err)
	require.Equal(t, 2, arr.Len())
	require.True(t, arr.IsNull(0))
	require.True(t, arr.IsNull(1))
}

func TestContainer_Stats(t *testing.T) {
	zeros, err := array.NewFixed(8, make([]byte, 8*4096), nil)
	require.NoError(t, err)

	w, err := NewWriter(WithCompression(format.CompressionZstd))
	require.NoError(t, err)
	require.NoError(t, w.WritePage("zeros", zeros))

	written := w.Stats()
	require.Equal(t, int64(8*4096), written.OriginalSize)
	require.Greater(t, written.SpaceSavings(), 90.0)

	data, err := w.Bytes()
	require.NoError(t, err)

	r, err := Open(data)
	require.NoError(t, err)
	require.Equal(t, written, r.Stats())
}

func TestWriter_Errors(t *testing.T) {
	w, err := NewWriter()
	require.NoError(t, err)

	require.True(t, errors.Is(w.WritePage("", array.FromValues([]int8{1}, nil)), errs.ErrInvalidColumnName))
	require.True(t, errors.Is(w.WritePage("a/0", array.FromValues([]int8{1}, nil)), errs.ErrInvalidColumnName))

	require.NoError(t, w.WritePage("a", array.FromValues([]int8{1}, nil)))
	err = w.WritePage("a", array.FromValues([]int16{1}, nil))
	require.True(t, errors.Is(err, errs.ErrDataTypeMismatch))

	// The failed page poisons the writer.
	require.True(t, errors.Is(w.WritePage("b", array.FromValues([]int8{1}, nil)), errs.ErrDataTypeMismatch))
	_, err = w.Bytes()
	require.True(t, errors.Is(err, errs.ErrDataTypeMismatch))

	w, err = NewWriter()
	require.NoError(t, err)
	_, err = w.Bytes()
	require.NoError(t, err)
	_, err = w.Bytes()
	require.True(t, errors.Is(err, errs.ErrWriterAlreadyClosed))
	require.True(t, errors.Is(w.WritePage("a", array.FromValues([]int8{1}, nil)), errs.ErrWriterAlreadyClosed))
}

func TestWriter_UnsupportedShape(t *testing.T) {
	valid := array.ValidityFromBools([]bool{true, false})
	s, err := array.NewStruct(2, []array.Array{array.FromValues([]int8{1, 2}, nil)}, valid)
	require.NoError(t, err)

	w, err := NewWriter()
	require.NoError(t, err)
	require.True(t, errors.Is(w.WritePage("s", s), errs.ErrUnsupportedEncoding))
}

func TestWriter_Options(t *testing.T) {
	_, err := NewWriter(WithCompression(format.CompressionType(0x9)))
	require.True(t, errors.Is(err, errs.ErrInvalidCompression))

	_, err = NewWriter(WithBufferScope(format.BufferScope(7)))
	require.Error(t, err)

	_, err = NewWriter(WithEndian(nil))
	require.Error(t, err)

	_, err = Open(nil, WithDecodeConcurrency(0))
	require.Error(t, err)
}

func TestWriter_Logger(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(WithWriterLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)

	require.NoError(t, w.WritePage("ints", array.FromValues([]int32{1, 2}, nil)))
	_, err = w.Bytes()
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `msg="wrote page" column=ints page=0 rows=2 buffers=1`)
	require.Contains(t, out, `msg="sealed container" columns=1`)
	require.Contains(t, out, `msg="encoded column"`)

	_, err = NewWriter(WithWriterLogger(nil))
	require.NoError(t, err)
}

func TestReader_Lookups(t *testing.T) {
	r, err := Open(writeFile(t, samplePages(t)), WithReaderLogger(nil))
	require.NoError(t, err)

	_, err = r.Column("missing")
	require.True(t, errors.Is(err, errs.ErrColumnNotFound))
	_, err = r.Pages("missing")
	require.True(t, errors.Is(err, errs.ErrColumnNotFound))
	_, err = r.DecodeColumn(context.Background(), "missing")
	require.True(t, errors.Is(err, errs.ErrColumnNotFound))

	_, err = r.Page("ints", 3)
	require.True(t, errors.Is(err, errs.ErrPageNotFound))
	_, err = r.Page("ints", -1)
	require.True(t, errors.Is(err, errs.ErrPageNotFound))

	page, err := r.Page("ints", 0)
	require.NoError(t, err)
	_, err = page.Resolve(encoding.BufferRef{Index: 9})
	require.True(t, errors.Is(err, errs.ErrUnresolvedBuffer))
	_, err = page.Resolve(encoding.BufferRef{Scope: format.BufferScope(5)})
	require.True(t, errors.Is(err, errs.ErrUnresolvedBuffer))
}

func TestReader_CanceledContext(t *testing.T) {
	r, err := Open(writeFile(t, samplePages(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.DecodeColumn(ctx, "ints")
	require.ErrorIs(t, err, context.Canceled)
}

func TestReader_CorruptBuffer(t *testing.T) {
	data := writeFile(t, map[string][]array.Array{
		"ints": {array.FromValues([]int64{1, 2, 3}, nil)},
	})

	// The only buffer starts the file.
	data[0] ^= 0xff

	r, err := Open(data)
	require.NoError(t, err)

	_, err = r.DecodePage("ints", 0)
	require.True(t, errors.Is(err, errs.ErrChecksumMismatch))
}

func TestOpen_Errors(t *testing.T) {
	good := writeFile(t, samplePages(t))
	footer, err := section.ParseFooter(good)
	require.NoError(t, err)

	t.Run("short file", func(t *testing.T) {
		_, err := Open(good[:10])
		require.True(t, errors.Is(err, errs.ErrInvalidFooterSize))
	})

	t.Run("bad magic", func(t *testing.T) {
		data := bytes.Clone(good)
		data[len(data)-section.FooterSize+1] = 0
		_, err := Open(data)
		require.True(t, errors.Is(err, errs.ErrInvalidMagicNumber))
	})

	t.Run("metadata checksum", func(t *testing.T) {
		data := bytes.Clone(good)
		data[footer.MetadataOffset] ^= 0x01
		_, err := Open(data)
		require.True(t, errors.Is(err, errs.ErrChecksumMismatch))
	})

	t.Run("metadata out of range", func(t *testing.T) {
		f := footer
		f.MetadataLength = uint64(len(good))
		data := append(bytes.Clone(good[:len(good)-section.FooterSize]), f.Bytes()...)
		_, err := Open(data)
		require.True(t, errors.Is(err, errs.ErrMalformedMetadata))
	})
}

// rewriteMetadata re-seals data after edit changes its parsed metadata.
func rewriteMetadata(t *testing.T, data []byte, edit func(meta *fileMeta)) []byte {
	t.Helper()

	footer, err := section.ParseFooter(data)
	require.NoError(t, err)

	engine := endian.GetLittleEndianEngine()
	meta, err := unmarshalFileMeta(data[footer.MetadataOffset:footer.MetadataOffset+footer.MetadataLength], engine)
	require.NoError(t, err)
	edit(meta)

	metadata, err := marshalFileMeta(meta, engine)
	require.NoError(t, err)

	footer.MetadataLength = uint64(len(metadata))
	footer.MetadataChecksum = hash.Checksum(metadata)

	out := bytes.Clone(data[:footer.MetadataOffset])
	out = append(out, metadata...)

	return append(out, footer.Bytes()...)
}

func TestOpen_RejectsImplausibleRowCount(t *testing.T) {
	nulls := array.FromValues([]int64{0, 0, 0}, []bool{false, false, false})
	data := writeFile(t, map[string][]array.Array{"ints": {nulls}})

	// The all-null page stores no buffer, so nothing else bounds its row count.
	data = rewriteMetadata(t, data, func(meta *fileMeta) {
		meta.columns[0].pages[0].numRows = 1<<61 + 3
	})

	_, err := Open(data)
	require.True(t, errors.Is(err, errs.ErrMalformedMetadata), "got %v", err)
}

func TestOpen_AcceptsRewrittenMetadata(t *testing.T) {
	nulls := array.FromValues([]int64{0, 0, 0}, []bool{false, false, false})
	data := writeFile(t, map[string][]array.Array{"ints": {nulls}})

	data = rewriteMetadata(t, data, func(meta *fileMeta) {
		meta.columns[0].pages[0].numRows = 5
	})

	r, err := Open(data)
	require.NoError(t, err)

	arr, err := r.DecodePage("ints", 0)
	require.NoError(t, err)
	require.Equal(t, 5, arr.Len())
	require.Equal(t, 5, arr.NullCount())
}

// hugeArray claims more rows than a page may hold.
type hugeArray struct{}

func (hugeArray) DataType() array.DataType { return array.FixedType(1) }
func (hugeArray) Len() int                 { return encoding.MaxRows + 1 }
func (hugeArray) NullCount() int           { return 0 }
func (hugeArray) IsNull(int) bool          { return false }
func (hugeArray) Validity() *bitset.BitSet { return nil }

func TestWriter_RejectsOversizedPage(t *testing.T) {
	w, err := NewWriter()
	require.NoError(t, err)

	err = w.WritePage("huge", hugeArray{})
	require.True(t, errors.Is(err, errs.ErrLengthMismatch), "got %v", err)
}

func TestContainer_FileLayout(t *testing.T) {
	data := writeFile(t, map[string][]array.Array{
		"ints": {array.FromValues([]uint8{1, 2, 3}, nil)},
	})

	// One raw buffer, then metadata, then the footer.
	require.Equal(t, []byte{1, 2, 3}, data[:3])

	footer, err := section.ParseFooter(data)
	require.NoError(t, err)
	require.Equal(t, uint64(3), footer.MetadataOffset)
	require.Equal(t, uint64(len(data)-section.FooterSize), footer.MetadataOffset+footer.MetadataLength)
	require.True(t, strings.Contains(string(data[footer.MetadataOffset:]), "ints"))
}
