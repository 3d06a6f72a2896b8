package encoding

import (
	"iter"
	"math/bits"

	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/internal/pool"
)

// PackedHeaderSize is the size of the bit width and reference value that prefix a packed column.
const PackedHeaderSize = 9

// CodePackedEncoder stores a column as frame-of-reference bit packing: the
// column minimum followed by every code's offset from it, written with the
// fewest bits that hold the largest offset.
//
// Layout:
//
//	u8  width      bits per value, 0..64
//	u64 reference  column minimum, engine byte order
//	    offsets    count*width bits, MSB first, zero padded to a byte
//
// A column of identical codes packs to the 9-byte header alone.
//
// For signed columns the minimum and maximum are taken over the codes read as
// int64, so small negative and positive values pack tightly.
//
// Packing needs the whole column, so codes are buffered and packed on the
// first Bytes or Size call after a write.
type CodePackedEncoder struct {
	engine endian.EndianEngine
	signed bool
	codes  []uint64
	buf    *pool.ByteBuffer
	dirty  bool
}

var _ ColumnarEncoder[uint64] = (*CodePackedEncoder)(nil)

// NewCodePackedEncoder creates a packed code encoder. signed selects int64
// ordering for the column minimum.
func NewCodePackedEncoder(engine endian.EndianEngine, signed bool) *CodePackedEncoder {
	return &CodePackedEncoder{
		engine: engine,
		signed: signed,
		buf:    pool.GetColumnBuffer(),
	}
}

func (e *CodePackedEncoder) Write(code uint64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	e.codes = append(e.codes, code)
	e.dirty = true
}

func (e *CodePackedEncoder) WriteSlice(codes []uint64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	if len(codes) == 0 {
		return
	}
	e.codes = append(e.codes, codes...)
	e.dirty = true
}

// Bounds returns the column minimum and the bit width needed for its offsets.
func (e *CodePackedEncoder) Bounds() (reference uint64, width int) {
	return packBounds(e.codes, e.signed)
}

func packBounds(codes []uint64, signed bool) (uint64, int) {
	if len(codes) == 0 {
		return 0, 0
	}

	lo, hi := codes[0], codes[0]
	for _, c := range codes[1:] {
		if signed {
			if int64(c) < int64(lo) { //nolint:gosec
				lo = c
			}
			if int64(c) > int64(hi) { //nolint:gosec
				hi = c
			}

			continue
		}
		lo = min(lo, c)
		hi = max(hi, c)
	}

	return lo, bits.Len64(hi - lo)
}

func (e *CodePackedEncoder) pack() {
	if !e.dirty {
		return
	}
	e.dirty = false
	e.buf.Reset()
	if len(e.codes) == 0 {
		return
	}

	ref, width := packBounds(e.codes, e.signed)
	e.buf.Grow(PackedHeaderSize + (len(e.codes)*width+7)/8)
	_ = e.buf.WriteByte(byte(width))
	e.buf.B = e.engine.AppendUint64(e.buf.B, ref)

	w := bitWriter{buf: e.buf}
	for _, c := range e.codes {
		w.writeBits(c-ref, width)
	}
	w.flush()
}

func (e *CodePackedEncoder) Bytes() []byte {
	e.pack()
	return e.buf.Bytes()
}

func (e *CodePackedEncoder) Len() int {
	return len(e.codes)
}

func (e *CodePackedEncoder) Size() int {
	e.pack()
	return e.buf.Len()
}

// Reset is a no-op: the packed layout has no per-sequence state.
func (e *CodePackedEncoder) Reset() {}

// Finish returns the buffer to the pool and drops buffered codes.
func (e *CodePackedEncoder) Finish() {
	if e.buf != nil {
		pool.PutColumnBuffer(e.buf)
		e.buf = nil
	}
	e.codes = nil
	e.dirty = false
}

// CodePackedDecoder decodes columns written by CodePackedEncoder.
type CodePackedDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[uint64] = CodePackedDecoder{}

// NewCodePackedDecoder creates a packed code decoder using the given byte order.
func NewCodePackedDecoder(engine endian.EndianEngine) CodePackedDecoder {
	return CodePackedDecoder{engine: engine}
}

func (d CodePackedDecoder) header(data []byte) (ref uint64, width int, ok bool) {
	if len(data) < PackedHeaderSize {
		return 0, 0, false
	}
	width = int(data[0])
	if width > 64 {
		return 0, 0, false
	}

	return d.engine.Uint64(data[1:PackedHeaderSize]), width, true
}

// All yields up to count codes.
func (d CodePackedDecoder) All(data []byte, count int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		if count <= 0 {
			return
		}
		ref, width, ok := d.header(data)
		if !ok {
			return
		}

		br := newBitReader(data[PackedHeaderSize:])
		for range count {
			off, ok := br.readBits(width)
			if !ok {
				return
			}
			if !yield(ref + off) {
				return
			}
		}
	}
}

// At returns the code at index without decoding the ones before it.
func (d CodePackedDecoder) At(data []byte, index int, count int) (uint64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}
	ref, width, ok := d.header(data)
	if !ok {
		return 0, false
	}
	if width == 0 {
		return ref, true
	}

	br := newBitReader(data[PackedHeaderSize:])
	br.skip(index * width)
	off, ok := br.readBits(width)
	if !ok {
		return 0, false
	}

	return ref + off, true
}
