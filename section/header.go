package section

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/qcf/encoding"
	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/format"
)

// Header is the payload of the header frame. It is written once, when the
// first block is flushed or the session closes, and never rewritten.
//
// Layout (file byte order):
//
//	[16]byte file id | u64 created-at (unix micros) | u32 block size |
//	u8 encoding | u8 compression |
//	u32 field count | field* | u32 comment count | varstring*
//
//	field := varstring name | u8 kind | u64 resolution bits | varstring parent
type Header struct {
	FileID      uuid.UUID
	CreatedAt   int64
	BlockSize   uint32
	Encoding    format.EncodingType
	Compression format.CompressionType
	Fields      []field.Spec
	Comments    []string
}

// NewHeader creates a header stamped with a random file id and the current time.
func NewHeader(blockSize uint32, enc format.EncodingType, comp format.CompressionType) Header {
	return Header{
		FileID:      uuid.New(),
		CreatedAt:   time.Now().UnixMicro(),
		BlockSize:   blockSize,
		Encoding:    enc,
		Compression: comp,
	}
}

// CreatedAtTime returns the creation time.
func (h Header) CreatedAtTime() time.Time {
	return time.UnixMicro(h.CreatedAt)
}

// AppendTo appends the serialized header to dst.
func (h Header) AppendTo(dst []byte, engine endian.EndianEngine) []byte {
	dst = append(dst, h.FileID[:]...)
	dst = engine.AppendUint64(dst, uint64(h.CreatedAt)) //nolint:gosec
	dst = engine.AppendUint32(dst, h.BlockSize)
	dst = append(dst, byte(h.Encoding), byte(h.Compression))

	dst = engine.AppendUint32(dst, uint32(len(h.Fields))) //nolint:gosec
	for _, f := range h.Fields {
		dst = appendSpec(dst, engine, f)
	}

	return appendStrings(dst, engine, h.Comments)
}

// Bytes serializes the header.
func (h Header) Bytes(engine endian.EndianEngine) []byte {
	return h.AppendTo(nil, engine)
}

func appendSpec(dst []byte, engine endian.EndianEngine, s field.Spec) []byte {
	dst = encoding.AppendVarString(dst, s.Name)
	dst = append(dst, byte(s.Kind))
	dst = engine.AppendUint64(dst, math.Float64bits(s.Resolution))

	return encoding.AppendVarString(dst, s.Parent)
}

// ParseHeader parses a header payload.
//
// Returns errs.ErrFormat on any structural problem. The field list is
// returned as stored; callers validate it with field.NewTableFrom.
func ParseHeader(data []byte, engine endian.EndianEngine) (Header, error) {
	r := newPayloadReader(data, engine, errs.ErrFormat, "header")

	var h Header
	copy(h.FileID[:], r.bytes(len(h.FileID), "file id"))
	h.CreatedAt = int64(r.u64("created-at")) //nolint:gosec
	h.BlockSize = r.u32("block size")
	h.Encoding = format.EncodingType(r.u8("encoding"))
	h.Compression = format.CompressionType(r.u8("compression"))

	// name prefix, kind, resolution, parent prefix
	n := r.count("field count", 11)
	for i := 0; i < n && r.err == nil; i++ {
		s := field.Spec{Name: r.str("field name")}
		s.Kind = format.FieldKind(r.u8("field kind"))
		s.Resolution = math.Float64frombits(r.u64("field resolution"))
		s.Parent = r.str("field parent")
		h.Fields = append(h.Fields, s)
	}
	h.Comments = r.strings("comments")

	if err := r.finish(); err != nil {
		return Header{}, err
	}
	if h.BlockSize == 0 {
		return Header{}, fmt.Errorf("%w: header block size is zero", errs.ErrFormat)
	}
	if !h.Encoding.Valid() {
		return Header{}, fmt.Errorf("%w: header encoding %d", errs.ErrFormat, h.Encoding)
	}
	if !h.Compression.Valid() {
		return Header{}, fmt.Errorf("%w: header compression %d", errs.ErrFormat, h.Compression)
	}

	return h, nil
}
