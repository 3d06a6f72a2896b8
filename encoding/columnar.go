package encoding

import "iter"

// ColumnarEncoder encodes a column of values of one field.
type ColumnarEncoder[T comparable] interface {
	// Bytes returns the encoded byte slice.
	// The returned slice is valid until the next call to Write, WriteSlice or Finish.
	// The caller should not modify the returned slice.
	Bytes() []byte

	// Len returns the number of encoded values.
	Len() int

	// Size returns the number of encoded bytes.
	Size() int

	// Reset clears the per-sequence state (such as the previous value of a delta
	// chain) but keeps the accumulated output.
	Reset()

	// Finish releases the internal buffer back to the pool and empties the encoder.
	// Retrieve Bytes before calling Finish.
	//
	//	enc := NewCodeDeltaEncoder()
	//	defer enc.Finish()
	Finish()

	// Write encodes a single value.
	Write(data T)

	// WriteSlice encodes a slice of values.
	WriteSlice(values []T)
}

// ColumnarDecoder decodes a column produced by the matching ColumnarEncoder.
type ColumnarDecoder[T comparable] interface {
	// All returns an iterator over the count values encoded in data.
	//
	// Malformed or short data makes the iterator stop early; callers that need
	// an exact count should use DecodeColumn.
	All(data []byte, count int) iter.Seq[T]

	// At returns the value at index, or false when index is out of range
	// or data is malformed.
	At(data []byte, index int, count int) (T, bool)
}
