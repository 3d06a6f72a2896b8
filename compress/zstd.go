package compress

// ZstdCompressor provides Zstandard compression.
//
// It is the default column compressor: quantized codes are small integers
// with long runs, which zstd shrinks well at a moderate CPU cost.
//
// The pure Go implementation (klauspost/compress) is used unless the binary
// is built with cgo and the gozstd tag, in which case valyala/gozstd is used.
// Both produce standard zstd frames, so files are interchangeable.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
