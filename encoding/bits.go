package encoding

import (
	"encoding/binary"

	"github.com/arloliu/qcf/internal/pool"
)

// bitWriter accumulates bits MSB-first in a 64-bit register and spills full
// words to a ByteBuffer in big-endian order.
type bitWriter struct {
	buf      *pool.ByteBuffer
	bitBuf   uint64
	bitCount int
}

// writeBits writes the low numBits bits of value (numBits in 0..64).
func (w *bitWriter) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}
	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	available := 64 - w.bitCount
	if numBits <= available {
		if numBits == 64 {
			w.bitBuf = value
		} else {
			w.bitBuf = (w.bitBuf << numBits) | value
		}
		w.bitCount += numBits
		if w.bitCount == 64 {
			w.flush()
		}

		return
	}

	// split across the register boundary
	highBits := numBits - available
	w.bitBuf = (w.bitBuf << available) | (value >> highBits)
	w.bitCount = 64
	w.flush()

	w.bitBuf = value & ((1 << highBits) - 1)
	w.bitCount = highBits
}

// flush writes the pending bits, left-aligned and padded with zeros to a byte boundary.
func (w *bitWriter) flush() {
	if w.bitCount == 0 {
		return
	}

	numBytes := (w.bitCount + 7) / 8
	aligned := w.bitBuf << (64 - w.bitCount)

	start := w.buf.Len()
	w.buf.ExtendOrGrow(numBytes)
	bs := w.buf.B[start : start+numBytes]
	if numBytes == 8 {
		binary.BigEndian.PutUint64(bs, aligned)
	} else {
		for i := range numBytes {
			bs[i] = byte(aligned >> (56 - i*8))
		}
	}

	w.bitBuf = 0
	w.bitCount = 0
}

// bitReader reads bits MSB-first from a byte slice.
type bitReader struct {
	data     []byte
	bytePos  int
	bitBuf   uint64
	bitCount int
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

// readBits reads numBits bits (0..64) right-aligned, or false when data runs out.
func (br *bitReader) readBits(numBits int) (uint64, bool) {
	if numBits == 0 {
		return 0, true
	}

	if numBits <= br.bitCount {
		result := br.bitBuf >> (64 - numBits)
		if numBits == 64 {
			br.bitBuf = 0
		} else {
			br.bitBuf <<= numBits
		}
		br.bitCount -= numBits

		return result, true
	}

	var result uint64
	for numBits > 0 {
		if br.bitCount == 0 && !br.fill() {
			return 0, false
		}

		n := min(numBits, br.bitCount)
		chunk := br.bitBuf >> (64 - n)
		if n == 64 {
			result = chunk
			br.bitBuf = 0
		} else {
			result = (result << n) | chunk
			br.bitBuf <<= n
		}
		br.bitCount -= n
		numBits -= n
	}

	return result, true
}

// skip advances the reader by numBits bits without decoding them.
func (br *bitReader) skip(numBits int) {
	bitPos := br.bytePos*8 - br.bitCount + numBits
	br.bytePos = bitPos / 8
	br.bitBuf = 0
	br.bitCount = 0
	if rem := bitPos % 8; rem != 0 {
		if !br.fill() {
			return
		}
		br.bitBuf <<= rem
		br.bitCount -= rem
	}
}

func (br *bitReader) fill() bool {
	if br.bytePos >= len(br.data) {
		return false
	}

	avail := len(br.data) - br.bytePos
	if avail >= 8 {
		br.bitBuf = binary.BigEndian.Uint64(br.data[br.bytePos : br.bytePos+8])
		br.bytePos += 8
		br.bitCount = 64

		return true
	}

	br.bitBuf = 0
	for range avail {
		br.bitBuf = (br.bitBuf << 8) | uint64(br.data[br.bytePos])
		br.bytePos++
	}
	br.bitBuf <<= (8 - avail) * 8
	br.bitCount = avail * 8

	return true
}
