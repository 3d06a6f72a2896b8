package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/qcf/errs"
)

// MaxStringLength bounds strings read back from headers and trailers.
const MaxStringLength = 1 << 24

// AppendVarString appends s with a uvarint length prefix.
func AppendVarString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// VarStringSize returns the encoded size of s.
func VarStringSize(s string) int {
	var tmp [binary.MaxVarintLen64]byte
	return binary.PutUvarint(tmp[:], uint64(len(s))) + len(s)
}

// ReadVarString reads a length-prefixed string from the start of data and
// returns it with the number of bytes consumed.
func ReadVarString(data []byte) (string, int, error) {
	length, n := binary.Uvarint(data)
	if n <= 0 {
		return "", 0, fmt.Errorf("%w: invalid string length prefix", errs.ErrFormat)
	}
	if length > MaxStringLength {
		return "", 0, fmt.Errorf("%w: string length %d exceeds the %d byte limit", errs.ErrFormat, length, MaxStringLength)
	}
	if length > uint64(len(data)-n) { //nolint:gosec
		return "", 0, fmt.Errorf("%w: string length %d exceeds available %d bytes", errs.ErrFormat, length, len(data)-n)
	}
	end := n + int(length) //nolint:gosec

	return string(data[n:end]), end, nil
}
