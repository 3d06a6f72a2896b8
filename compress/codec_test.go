package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
)

var allCompressions = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
	format.CompressionDeflate,
}

// columnPayload mimics a delta-encoded column of small codes.
func columnPayload(n int) []byte {
	buf := make([]byte, 0, n*2)
	for i := range n {
		buf = binary.AppendUvarint(buf, uint64(i%7))
	}

	return buf
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range allCompressions {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := CreateCodec(ct, "column")
			require.NoError(t, err)
			require.NotNil(t, codec)
		})
	}

	_, err := CreateCodec(format.CompressionType(0xFF), "column")
	require.ErrorIs(t, err, errs.ErrInvalidOption)
	require.Contains(t, err.Error(), "column")
}

func TestGetCodec(t *testing.T) {
	for _, ct := range allCompressions {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := GetCodec(format.CompressionType(0))
	require.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	sizes := []int{1, 100, 4096, 65536}

	for _, ct := range allCompressions {
		for _, size := range sizes {
			t.Run(fmt.Sprintf("%s/%d", ct, size), func(t *testing.T) {
				codec, err := GetCodec(ct)
				require.NoError(t, err)

				payload := columnPayload(size)
				compressed, err := codec.Compress(payload)
				require.NoError(t, err)

				decompressed, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.True(t, bytes.Equal(payload, decompressed))
			})
		}
	}
}

func TestCodec_Empty(t *testing.T) {
	for _, ct := range allCompressions {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, compressed)

			out, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}
}

func TestCodec_CompressesRepetitiveColumn(t *testing.T) {
	payload := bytes.Repeat([]byte{0x02}, 32*1024)

	for _, ct := range allCompressions[1:] {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			require.Less(t, len(compressed), len(payload)/4)
		})
	}
}

func TestCodec_CorruptInput(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33, 0x44}

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionDeflate} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			_, err = codec.Decompress(garbage)
			require.Error(t, err)
		})
	}
}

func TestCodec_DecompressSized(t *testing.T) {
	payload := columnPayload(4096)

	for _, ct := range allCompressions {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			out, err := codec.DecompressSized(compressed, len(payload))
			require.NoError(t, err)
			require.True(t, bytes.Equal(payload, out))

			_, err = codec.DecompressSized(compressed, len(payload)-1)
			require.ErrorIs(t, err, ErrSizeMismatch)
			_, err = codec.DecompressSized(compressed, len(payload)+1)
			require.ErrorIs(t, err, ErrSizeMismatch)
			_, err = codec.DecompressSized(compressed, -1)
			require.ErrorIs(t, err, ErrSizeMismatch)
			_, err = codec.DecompressSized(compressed, MaxDecodedSize+1)
			require.ErrorIs(t, err, ErrSizeMismatch)

			out, err = codec.DecompressSized(nil, 0)
			require.NoError(t, err)
			require.Empty(t, out)
			_, err = codec.DecompressSized(nil, 8)
			require.ErrorIs(t, err, ErrSizeMismatch)
		})
	}
}

func TestCodec_DecompressSizedBoundsOutput(t *testing.T) {
	// a small stream that inflates to 1 MiB must not decode when 64 bytes are recorded
	payload := make([]byte, 1<<20)

	for _, ct := range allCompressions[1:] {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			require.Less(t, len(compressed), len(payload)/16)

			out, err := codec.DecompressSized(compressed, 64)
			require.ErrorIs(t, err, ErrSizeMismatch)
			require.Nil(t, out)
		})
	}
}

func TestNoOpCompressor_SharesMemory(t *testing.T) {
	data := []byte("codes")
	out, err := NewNoOpCompressor().Compress(data)
	require.NoError(t, err)
	require.Equal(t, &data[0], &out[0])
}

func TestLZ4Compressor_HighRatioGrowsBuffer(t *testing.T) {
	// zeros compress far better than 4:1, forcing the adaptive buffer to double
	payload := make([]byte, 1<<20)
	codec := NewLZ4Compressor()

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)

	out, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.Len(t, out, len(payload))
}

func BenchmarkCodec_Compress(b *testing.B) {
	payload := columnPayload(16 * 1024)
	for _, ct := range allCompressions {
		codec, _ := GetCodec(ct)
		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(payload)))
			for b.Loop() {
				_, _ = codec.Compress(payload)
			}
		})
	}
}
