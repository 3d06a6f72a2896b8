package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
)

// NewCodeEncoder creates the column encoder for an encoding type.
// TypeAuto has no single encoder; use EncodeColumn for it.
func NewCodeEncoder(typ format.EncodingType, engine endian.EndianEngine, signed bool) (ColumnarEncoder[uint64], error) {
	switch typ {
	case format.TypeRaw:
		return NewCodeRawEncoder(engine), nil
	case format.TypeDelta:
		return NewCodeDeltaEncoder(), nil
	case format.TypePacked:
		return NewCodePackedEncoder(engine, signed), nil
	default:
		return nil, fmt.Errorf("%w: no column encoder for %s encoding", errs.ErrInvalidOption, typ)
	}
}

// EncodeColumn encodes a column of codes and returns the encoding actually
// used together with a copy of the encoded bytes.
//
// With TypeAuto both the delta and the packed layouts are produced and the
// smaller one is kept, preferring delta on ties.
//
// Parameters:
//   - typ: requested encoding
//   - engine: byte order of fixed-width words
//   - signed: whether codes order as int64 (signed and quantized float fields)
//   - codes: the column
func EncodeColumn(typ format.EncodingType, engine endian.EndianEngine, signed bool, codes []uint64) (format.EncodingType, []byte, error) {
	if typ == format.TypeAuto {
		deltaType, delta, err := EncodeColumn(format.TypeDelta, engine, signed, codes)
		if err != nil {
			return 0, nil, err
		}
		packedType, packed, err := EncodeColumn(format.TypePacked, engine, signed, codes)
		if err != nil {
			return 0, nil, err
		}
		if len(packed) < len(delta) {
			return packedType, packed, nil
		}

		return deltaType, delta, nil
	}

	enc, err := NewCodeEncoder(typ, engine, signed)
	if err != nil {
		return 0, nil, err
	}
	defer enc.Finish()

	enc.WriteSlice(codes)
	out := make([]byte, enc.Size())
	copy(out, enc.Bytes())

	return typ, out, nil
}

// DecodeColumn decodes exactly count codes from data and appends them to dst.
//
// Unlike the iterator decoders it treats any disagreement between the data
// length and count as errs.ErrCorruptBlock.
func DecodeColumn(typ format.EncodingType, engine endian.EndianEngine, data []byte, count int, dst []uint64) ([]uint64, error) {
	if count < 0 {
		return dst, fmt.Errorf("%w: negative code count %d", errs.ErrCorruptBlock, count)
	}

	switch typ {
	case format.TypeRaw:
		if len(data) != count*8 {
			return dst, fmt.Errorf("%w: raw column is %d bytes, want %d", errs.ErrCorruptBlock, len(data), count*8)
		}
		for v := range NewCodeRawDecoder(engine).All(data, count) {
			dst = append(dst, v)
		}

		return dst, nil

	case format.TypeDelta:
		var cur uint64
		offset := 0
		for i := range count {
			u, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return dst, fmt.Errorf("%w: delta column truncated at code %d of %d", errs.ErrCorruptBlock, i, count)
			}
			offset += n
			cur += uint64(unzigzag(u)) //nolint:gosec
			dst = append(dst, cur)
		}
		if offset != len(data) {
			return dst, fmt.Errorf("%w: %d trailing bytes after delta column", errs.ErrCorruptBlock, len(data)-offset)
		}

		return dst, nil

	case format.TypePacked:
		if count == 0 {
			if len(data) != 0 {
				return dst, fmt.Errorf("%w: packed column holds data for zero codes", errs.ErrCorruptBlock)
			}

			return dst, nil
		}
		dec := NewCodePackedDecoder(engine)
		_, width, ok := dec.header(data)
		if !ok {
			return dst, fmt.Errorf("%w: invalid packed column header", errs.ErrCorruptBlock)
		}
		if want := PackedHeaderSize + (count*width+7)/8; len(data) != want {
			return dst, fmt.Errorf("%w: packed column is %d bytes, want %d", errs.ErrCorruptBlock, len(data), want)
		}
		for v := range dec.All(data, count) {
			dst = append(dst, v)
		}

		return dst, nil

	default:
		return dst, fmt.Errorf("%w: unknown column encoding %d", errs.ErrCorruptBlock, typ)
	}
}
