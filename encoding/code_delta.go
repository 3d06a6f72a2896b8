package encoding

import (
	"encoding/binary"
	"iter"

	"github.com/arloliu/qcf/internal/pool"
)

// CodeDeltaEncoder stores each code as the zigzag varint of its difference to
// the previous code in the column. The first code is taken relative to zero.
//
// Differences are computed with wrapping uint64 arithmetic and interpreted as
// int64, so the encoding is lossless for any code, including the two's
// complement patterns of signed and quantized float fields.
//
// Smooth columns (counters, slowly varying measurements, repeated values)
// shrink to one byte per value before compression.
type CodeDeltaEncoder struct {
	prev  uint64
	temp  [binary.MaxVarintLen64]byte
	buf   *pool.ByteBuffer
	count int
}

var _ ColumnarEncoder[uint64] = (*CodeDeltaEncoder)(nil)

// NewCodeDeltaEncoder creates a delta code encoder.
func NewCodeDeltaEncoder() *CodeDeltaEncoder {
	return &CodeDeltaEncoder{buf: pool.GetColumnBuffer()}
}

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63)) //nolint:gosec
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec
}

// Write encodes a single code.
func (e *CodeDeltaEncoder) Write(code uint64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.count++
	delta := int64(code - e.prev) //nolint:gosec
	n := binary.PutUvarint(e.temp[:], zigzag(delta))
	e.buf.MustWrite(e.temp[:n])
	e.prev = code
}

// WriteSlice encodes codes, growing the buffer once for the common small-delta case.
func (e *CodeDeltaEncoder) WriteSlice(codes []uint64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	if len(codes) == 0 {
		return
	}

	e.count += len(codes)
	e.buf.Grow(len(codes) * 2)

	prev := e.prev
	for _, c := range codes {
		n := binary.PutUvarint(e.temp[:], zigzag(int64(c-prev))) //nolint:gosec
		e.buf.MustWrite(e.temp[:n])
		prev = c
	}
	e.prev = prev
}

func (e *CodeDeltaEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *CodeDeltaEncoder) Len() int {
	return e.count
}

func (e *CodeDeltaEncoder) Size() int {
	return e.buf.Len()
}

// Reset restarts the delta chain at zero; written bytes are kept.
func (e *CodeDeltaEncoder) Reset() {
	e.prev = 0
}

// Finish returns the buffer to the pool.
func (e *CodeDeltaEncoder) Finish() {
	if e.buf != nil {
		pool.PutColumnBuffer(e.buf)
		e.buf = nil
	}
	e.prev = 0
	e.count = 0
}

// CodeDeltaDecoder decodes columns written by CodeDeltaEncoder.
type CodeDeltaDecoder struct{}

var _ ColumnarDecoder[uint64] = CodeDeltaDecoder{}

// NewCodeDeltaDecoder creates a delta code decoder. It is stateless.
func NewCodeDeltaDecoder() CodeDeltaDecoder {
	return CodeDeltaDecoder{}
}

// All yields up to count codes, stopping at the first malformed varint.
func (d CodeDeltaDecoder) All(data []byte, count int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		var cur uint64
		offset := 0
		for i := 0; i < count && offset < len(data); i++ {
			u, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}
			offset += n
			cur += uint64(unzigzag(u)) //nolint:gosec
			if !yield(cur) {
				return
			}
		}
	}
}

// At decodes sequentially up to index.
func (d CodeDeltaDecoder) At(data []byte, index int, count int) (uint64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}

	i := 0
	for code := range d.All(data, index+1) {
		if i == index {
			return code, true
		}
		i++
	}

	return 0, false
}
