package compress

import (
	"errors"
	"fmt"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
)

// Compressor compresses one encoded field column.
//
// The input is the output of a column encoder (raw words, delta varints or
// packed bits). Implementations must not modify it.
type Compressor interface {
	// Compress returns the compressed form of data.
	//
	// The returned slice may alias data for codecs that do not transform it,
	// otherwise it is newly allocated and owned by the caller.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// Implementations must be safe for concurrent use; the built-in codecs keep
// their reusable state in sync.Pools.
type Decompressor interface {
	// Decompress returns the original bytes of a compressed column.
	//
	// Corrupted input or input produced by a different algorithm yields an error.
	Decompress(data []byte) ([]byte, error)

	// DecompressSized decompresses data whose decoded length is known. Input
	// that decodes to any other length fails with ErrSizeMismatch, and no
	// more than size bytes are decoded.
	DecompressSized(data []byte, size int) ([]byte, error)
}

// MaxDecodedSize bounds the decoded size of one column.
const MaxDecodedSize = 1 << 31

// ErrSizeMismatch indicates compressed input whose decoded length differs from the recorded one.
var ErrSizeMismatch = errors.New("compress: decoded size mismatch")

func sizeMismatch(got uint64, want int) error {
	return fmt.Errorf("%w: input decodes to %d bytes, want %d", ErrSizeMismatch, got, want)
}

// checkSized validates size and handles empty input, which decodes to
// nothing. It reports done when the caller has nothing left to decode.
func checkSized(data []byte, size int) (done bool, err error) {
	if size < 0 || size > MaxDecodedSize {
		return true, fmt.Errorf("%w: decoded size %d out of range", ErrSizeMismatch, size)
	}
	if len(data) == 0 {
		if size != 0 {
			return true, sizeMismatch(0, size)
		}

		return true, nil
	}

	return false, nil
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a fresh Codec for the given compression type.
//
// Parameters:
//   - compressionType: one of the format.Compression* constants
//   - target: what the codec is for, used in error messages
//
// Returns:
//   - Codec: the codec instance
//   - error: errs.ErrInvalidOption for an unknown compression type
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionDeflate:
		return NewDeflateCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: invalid %s compression: %s", errs.ErrInvalidOption, target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:    NewNoOpCompressor(),
	format.CompressionZstd:    NewZstdCompressor(),
	format.CompressionS2:      NewS2Compressor(),
	format.CompressionLZ4:     NewLZ4Compressor(),
	format.CompressionDeflate: NewDeflateCompressor(),
}

// GetCodec returns the shared built-in Codec for the compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: unsupported compression type: %s", errs.ErrInvalidOption, compressionType)
}
