package section

import (
	"testing"

	"github.com/arloliu/colenc/errs"
	"github.com/arloliu/colenc/format"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestNewFlag(t *testing.T) {
	flag := NewFlag()

	require.True(t, flag.IsLittleEndian())
	require.False(t, flag.IsBigEndian())
	require.Equal(t, uint16(MagicContainerV1Opt), flag.GetMagicNumber())
	require.Equal(t, format.CompressionNone, flag.Compression())
	require.NoError(t, flag.Validate())
}

func TestFlag_Endianness(t *testing.T) {
	flag := NewFlag()

	flag.WithBigEndian()
	require.True(t, flag.IsBigEndian())
	require.Equal(t, uint16(MagicContainerV1Opt), flag.GetMagicNumber())
	require.NoError(t, flag.Validate())

	flag.WithLittleEndian()
	require.True(t, flag.IsLittleEndian())
}

func TestFlag_Validate(t *testing.T) {
	tests := []struct {
		name string
		flag Flag
		want error
	}{
		{
			name: "bad magic",
			flag: Flag{Options: 0xEA10, CompressionType: uint8(format.CompressionNone)},
			want: errs.ErrInvalidMagicNumber,
		},
		{
			name: "reserved option bit",
			flag: Flag{Options: MagicContainerV1Opt | 0x0004, CompressionType: uint8(format.CompressionNone)},
			want: errs.ErrInvalidFooterFlags,
		},
		{
			name: "reserved byte",
			flag: Flag{Options: MagicContainerV1Opt, CompressionType: uint8(format.CompressionNone), Reserved: 1},
			want: errs.ErrInvalidFooterFlags,
		},
		{
			name: "zero compression",
			flag: Flag{Options: MagicContainerV1Opt},
			want: errs.ErrInvalidCompression,
		},
		{
			name: "unknown compression",
			flag: Flag{Options: MagicContainerV1Opt, CompressionType: 0x7},
			want: errs.ErrInvalidCompression,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.flag.Validate()
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestFlag_SetCompression(t *testing.T) {
	flag := NewFlag()
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		flag.SetCompression(ct)
		require.Equal(t, ct, flag.Compression())
		require.NoError(t, flag.Validate())
	}
}
