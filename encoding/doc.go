// Package encoding implements the column encodings for quantized field codes.
//
// Every field of a block is stored as one column: the uint64 codes of all of
// its values in event order. A column is encoded with one of:
//   - Raw (format.TypeRaw): 8 bytes per code
//   - Delta (format.TypeDelta): zigzag varint of the difference to the previous code
//   - Packed (format.TypePacked): column minimum plus fixed-width bit offsets
//
// format.TypeAuto encodes with both Delta and Packed and keeps the smaller.
//
// Encoders implement ColumnarEncoder[uint64] and draw their output buffers
// from internal/pool; decoders implement ColumnarDecoder[uint64] and are
// stateless. EncodeColumn and DecodeColumn are the entry points used by the
// block codec:
//
//	typ, data, err := encoding.EncodeColumn(format.TypeAuto, engine, signed, codes)
//	codes, err = encoding.DecodeColumn(typ, engine, data, len(codes), nil)
//
// The package also provides the length-prefixed strings used by headers and
// trailers (AppendVarString, ReadVarString).
package encoding
