package section

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/internal/hash"
)

// FrameType identifies the payload of a frame.
type FrameType uint32

const (
	FrameHeader  FrameType = 0x1 // FrameHeader carries the file header.
	FrameBlock   FrameType = 0x2 // FrameBlock carries one encoded block.
	FrameTrailer FrameType = 0x3 // FrameTrailer carries the block index and final comments.
)

func (t FrameType) String() string {
	switch t {
	case FrameHeader:
		return "Header"
	case FrameBlock:
		return "Block"
	case FrameTrailer:
		return "Trailer"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is a known frame type.
func (t FrameType) Valid() bool {
	return t >= FrameHeader && t <= FrameTrailer
}

// Frame is the little-endian envelope around every variable-size section:
//
//	u32 type | u32 payload size | u64 xxhash64(payload) | payload
type Frame struct {
	Type     FrameType
	Size     uint32
	Checksum uint64
}

// Len returns the total frame length including the frame header.
func (f Frame) Len() int64 {
	return FrameHeaderSize + int64(f.Size)
}

// AppendFrame appends a complete frame for payload to dst.
//
// A payload larger than MaxFramePayload, which ParseFrame would reject, is
// refused with errs.ErrTooLarge and dst is returned unchanged.
func AppendFrame(dst []byte, typ FrameType, payload []byte) ([]byte, error) {
	if int64(len(payload)) > MaxFramePayload {
		return dst, fmt.Errorf("%w: %s frame payload of %d bytes, limit %d", errs.ErrTooLarge, typ, len(payload), int64(MaxFramePayload))
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(typ))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload))) //nolint:gosec
	dst = binary.LittleEndian.AppendUint64(dst, hash.Checksum(payload))

	return append(dst, payload...), nil
}

// ParseFrame parses a frame header.
//
// Returns errs.ErrFormat for short data, an unknown type or an oversized payload.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) < FrameHeaderSize {
		return Frame{}, fmt.Errorf("%w: frame header needs %d bytes, got %d", errs.ErrFormat, FrameHeaderSize, len(data))
	}

	f := Frame{
		Type:     FrameType(binary.LittleEndian.Uint32(data[0:4])),
		Size:     binary.LittleEndian.Uint32(data[4:8]),
		Checksum: binary.LittleEndian.Uint64(data[8:16]),
	}
	if !f.Type.Valid() {
		return Frame{}, fmt.Errorf("%w: unknown frame type %d", errs.ErrFormat, f.Type)
	}
	if f.Size > MaxFramePayload {
		return Frame{}, fmt.Errorf("%w: frame payload of %d bytes exceeds limit", errs.ErrFormat, f.Size)
	}

	return f, nil
}

// ReadFrame reads the frame starting at offset. limit is the end of the
// readable region; a frame extending past it is truncated.
//
// Returns:
//   - Frame: the frame header
//   - []byte: the verified payload
//   - error: errs.ErrFormat for a malformed or truncated frame,
//     errs.ErrCorruptBlock for a checksum mismatch
func ReadFrame(r io.ReaderAt, offset, limit int64) (Frame, []byte, error) {
	if limit-offset < FrameHeaderSize {
		return Frame{}, nil, fmt.Errorf("%w: truncated frame header at offset %d", errs.ErrFormat, offset)
	}

	var hdr [FrameHeaderSize]byte
	if _, err := r.ReadAt(hdr[:], offset); err != nil {
		return Frame{}, nil, fmt.Errorf("%w: read frame header at offset %d: %v", errs.ErrFormat, offset, err)
	}
	f, err := ParseFrame(hdr[:])
	if err != nil {
		return Frame{}, nil, fmt.Errorf("%w (offset %d)", err, offset)
	}
	if offset+f.Len() > limit {
		return Frame{}, nil, fmt.Errorf("%w: %s frame at offset %d overruns the file", errs.ErrFormat, f.Type, offset)
	}

	payload := make([]byte, f.Size)
	if _, err := r.ReadAt(payload, offset+FrameHeaderSize); err != nil && !(errors.Is(err, io.EOF) && f.Size == 0) {
		return Frame{}, nil, fmt.Errorf("%w: read %s frame payload at offset %d: %v", errs.ErrFormat, f.Type, offset, err)
	}
	if !hash.Verify(payload, f.Checksum) {
		return f, nil, fmt.Errorf("%w: %s frame checksum mismatch at offset %d", errs.ErrCorruptBlock, f.Type, offset)
	}

	return f, payload, nil
}
