package section

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
)

// Preamble is the fixed-size prefix of a file. It is always little-endian.
type Preamble struct {
	Version uint16
	Flags   uint16
}

// NewPreamble creates the preamble for a file written with the given engine.
func NewPreamble(engine endian.EndianEngine) Preamble {
	p := Preamble{Version: Version}
	if endian.IsBigEndian(engine) {
		p.Flags |= FlagBigEndian
	}

	return p
}

// BigEndian reports whether payload integers are big-endian.
func (p Preamble) BigEndian() bool {
	return p.Flags&FlagBigEndian != 0
}

// Engine returns the byte order of the file's payloads.
func (p Preamble) Engine() endian.EndianEngine {
	return endian.EngineFor(p.BigEndian())
}

// Bytes serializes the preamble.
func (p Preamble) Bytes() []byte {
	b := make([]byte, PreambleSize)
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint16(b[4:6], p.Version)
	binary.LittleEndian.PutUint16(b[6:8], p.Flags)

	return b
}

// ParsePreamble parses and validates the first PreambleSize bytes of data.
//
// Returns:
//   - Preamble: the parsed preamble
//   - error: errs.ErrFormat on short data, bad magic, unknown version or flags
func ParsePreamble(data []byte) (Preamble, error) {
	if len(data) < PreambleSize {
		return Preamble{}, fmt.Errorf("%w: file is shorter than the %d byte preamble", errs.ErrFormat, PreambleSize)
	}
	if string(data[0:4]) != Magic {
		return Preamble{}, fmt.Errorf("%w: bad magic %q", errs.ErrFormat, data[0:4])
	}

	p := Preamble{
		Version: binary.LittleEndian.Uint16(data[4:6]),
		Flags:   binary.LittleEndian.Uint16(data[6:8]),
	}
	if p.Version != Version {
		return Preamble{}, fmt.Errorf("%w: unsupported version %d", errs.ErrFormat, p.Version)
	}
	if p.Flags&^knownFlags != 0 {
		return Preamble{}, fmt.Errorf("%w: unknown flags 0x%04x", errs.ErrFormat, p.Flags)
	}

	return p, nil
}
