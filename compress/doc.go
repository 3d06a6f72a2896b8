// Package compress provides the lossless byte compressors applied to every
// encoded field column of a block.
//
// A block stores each field as a column of quantized integer codes. The
// column is first encoded (see package encoding) and then passed through one
// of the codecs here:
//   - None: no compression
//   - Zstd: best ratio, the default (klauspost/compress, or valyala/gozstd with -tags gozstd)
//   - S2: fast with a good ratio
//   - LZ4: fastest decompression
//   - Deflate: zlib streams, slowest, widely readable
//
// The compression type is recorded per column, so a reader never needs to
// be told which codec a writer used.
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress(column)
//
// All codecs are safe for concurrent use.
package compress
