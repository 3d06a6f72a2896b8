package encoding

import (
	"iter"

	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/internal/pool"
)

// CodeRawEncoder stores each code as a fixed 8-byte word in the engine's byte order.
//
// It never shrinks data on its own; it is meant for columns that are passed
// through a compressor afterwards, or for debugging.
type CodeRawEncoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

var _ ColumnarEncoder[uint64] = (*CodeRawEncoder)(nil)

// NewCodeRawEncoder creates a raw code encoder using the given byte order.
func NewCodeRawEncoder(engine endian.EndianEngine) *CodeRawEncoder {
	return &CodeRawEncoder{
		engine: engine,
		buf:    pool.GetColumnBuffer(),
	}
}

// Write encodes a single code.
//
// Panics if Finish() has been called.
func (e *CodeRawEncoder) Write(code uint64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.count++
	e.buf.Grow(8)
	e.buf.B = e.engine.AppendUint64(e.buf.B, code)
}

// WriteSlice encodes codes with a single buffer growth.
func (e *CodeRawEncoder) WriteSlice(codes []uint64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	if len(codes) == 0 {
		return
	}

	e.count += len(codes)
	start := e.buf.Len()
	e.buf.ExtendOrGrow(len(codes) * 8)
	for i, c := range codes {
		off := start + i*8
		e.engine.PutUint64(e.buf.B[off:off+8], c)
	}
}

func (e *CodeRawEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *CodeRawEncoder) Len() int {
	return e.count
}

func (e *CodeRawEncoder) Size() int {
	return e.buf.Len()
}

// Reset is a no-op: raw codes carry no state between values.
func (e *CodeRawEncoder) Reset() {}

// Finish returns the buffer to the pool.
func (e *CodeRawEncoder) Finish() {
	if e.buf != nil {
		pool.PutColumnBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// CodeRawDecoder decodes columns written by CodeRawEncoder.
type CodeRawDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[uint64] = CodeRawDecoder{}

// NewCodeRawDecoder creates a raw code decoder using the given byte order.
func NewCodeRawDecoder(engine endian.EndianEngine) CodeRawDecoder {
	return CodeRawDecoder{engine: engine}
}

// All yields up to count codes; it stops early when data runs out.
func (d CodeRawDecoder) All(data []byte, count int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := 0; i < count && (i+1)*8 <= len(data); i++ {
			if !yield(d.engine.Uint64(data[i*8 : i*8+8])) {
				return
			}
		}
	}
}

// At returns the code at index in O(1).
func (d CodeRawDecoder) At(data []byte, index int, count int) (uint64, bool) {
	if index < 0 || index >= count || (index+1)*8 > len(data) {
		return 0, false
	}

	return d.engine.Uint64(data[index*8 : index*8+8]), true
}
