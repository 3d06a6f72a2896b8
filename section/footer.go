package section

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/qcf/errs"
)

// Footer is the last FooterSize bytes of a cleanly closed file. It is always
// little-endian so a reader can find the trailer with a single read.
type Footer struct {
	TrailerOffset uint64
}

// Bytes serializes the footer.
func (f Footer) Bytes() []byte {
	b := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(b[0:8], f.TrailerOffset)
	binary.LittleEndian.PutUint64(b[8:16], FooterMagic)

	return b
}

// ParseFooter parses a footer.
//
// Returns errs.ErrFormat when data is not a footer. A file without one was
// not closed cleanly and can only be read by scanning its frames.
func ParseFooter(data []byte) (Footer, error) {
	if len(data) != FooterSize {
		return Footer{}, fmt.Errorf("%w: footer needs %d bytes, got %d", errs.ErrFormat, FooterSize, len(data))
	}
	if magic := binary.LittleEndian.Uint64(data[8:16]); magic != FooterMagic {
		return Footer{}, fmt.Errorf("%w: bad footer magic 0x%016x", errs.ErrFormat, magic)
	}

	return Footer{TrailerOffset: binary.LittleEndian.Uint64(data[0:8])}, nil
}
