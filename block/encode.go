package block

import (
	"fmt"
	"math"

	"github.com/arloliu/qcf/compress"
	"github.com/arloliu/qcf/encoding"
	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/pool"
	"github.com/arloliu/qcf/quant"
	"github.com/arloliu/qcf/section"
)

// columnHeaderSize is the fixed prefix of every column.
const columnHeaderSize = 14

// payloadHeaderSize is the event and field count prefix of a payload.
const payloadHeaderSize = 8

// EncodeOptions selects how columns are stored.
type EncodeOptions struct {
	Encoding    format.EncodingType
	Compression format.CompressionType
	Engine      endian.EndianEngine
}

// ColumnStats describes one encoded column.
type ColumnStats struct {
	Values       uint64
	MinCode      uint64
	MaxCode      uint64
	Set          bool                // MinCode and MaxCode are meaningful
	Encoding     format.EncodingType // encoding actually used, never TypeAuto
	EncodedBytes uint64
	StoredBytes  uint64
}

// FieldStats converts s into the form kept in the trailer.
func (s ColumnStats) FieldStats() section.FieldStats {
	return section.FieldStats{
		Values:  s.Values,
		MinCode: s.MinCode,
		MaxCode: s.MaxCode,
		Bytes:   s.StoredBytes,
		Set:     s.Set,
	}
}

func columnStats(c quant.Codec, codes []uint64, enc format.EncodingType, encoded, stored int) ColumnStats {
	s := ColumnStats{
		Values:       uint64(len(codes)),
		Encoding:     enc,
		EncodedBytes: uint64(encoded), //nolint:gosec
		StoredBytes:  uint64(stored),  //nolint:gosec
	}
	for _, code := range codes {
		if !s.Set {
			s.MinCode, s.MaxCode, s.Set = code, code, true
			continue
		}
		if c.Less(code, s.MinCode) {
			s.MinCode = code
		}
		if c.Less(s.MaxCode, code) {
			s.MaxCode = code
		}
	}

	return s
}

// Encode serializes the events buffered in b into a block payload.
//
// Returns:
//   - []byte: the payload, owned by the caller
//   - []ColumnStats: one entry per field in declaration order
//   - error: errs.ErrInvalidOption for an unknown encoding or compression,
//     errs.ErrTooLarge when the block exceeds what a reader accepts
func Encode(b *Builder, opts EncodeOptions) ([]byte, []ColumnStats, error) {
	if b.codes > MaxBlockCodes {
		return nil, nil, fmt.Errorf("%w: block holds %d codes, limit %d", errs.ErrTooLarge, b.codes, MaxBlockCodes)
	}
	if !opts.Encoding.Valid() {
		return nil, nil, fmt.Errorf("%w: block encoding %d", errs.ErrInvalidOption, opts.Encoding)
	}
	if opts.Engine == nil {
		opts.Engine = endian.GetLittleEndianEngine()
	}
	codec, err := compress.GetCodec(opts.Compression)
	if err != nil {
		return nil, nil, err
	}

	buf := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(buf)

	var hdr [payloadHeaderSize]byte
	opts.Engine.PutUint32(hdr[0:4], uint32(b.events))       //nolint:gosec
	opts.Engine.PutUint32(hdr[4:8], uint32(len(b.columns))) //nolint:gosec
	buf.MustWrite(hdr[:])

	stats := make([]ColumnStats, len(b.columns))
	for i, codes := range b.columns {
		c := b.table.At(i).Codec()

		enc, encoded, err := encoding.EncodeColumn(opts.Encoding, opts.Engine, c.Signed(), codes)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", b.table.At(i).Name(), err)
		}
		stored, err := codec.Compress(encoded)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: compress: %w", b.table.At(i).Name(), err)
		}
		if uint64(len(encoded)) > math.MaxUint32 || int64(len(stored)) > section.MaxFramePayload-int64(buf.Len()) {
			return nil, nil, fmt.Errorf("%w: field %q column takes %d bytes", errs.ErrTooLarge, b.table.At(i).Name(), len(stored))
		}

		var col [columnHeaderSize]byte
		col[0] = byte(enc)
		col[1] = byte(opts.Compression)
		opts.Engine.PutUint32(col[2:6], uint32(len(codes)))    //nolint:gosec
		opts.Engine.PutUint32(col[6:10], uint32(len(encoded))) //nolint:gosec
		opts.Engine.PutUint32(col[10:14], uint32(len(stored))) //nolint:gosec
		buf.MustWrite(col[:])
		buf.MustWrite(stored)

		stats[i] = columnStats(c, codes, enc, len(encoded), len(stored))
	}

	if int64(buf.Len()) > section.MaxFramePayload {
		return nil, nil, fmt.Errorf("%w: payload of %d bytes", errs.ErrTooLarge, buf.Len())
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, stats, nil
}
