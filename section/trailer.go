package section

import (
	"fmt"

	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
)

// BlockIndexEntrySize is the serialized size of a BlockIndexEntry.
const BlockIndexEntrySize = 20

// fieldStatsSize is the serialized size of a FieldStats.
const fieldStatsSize = 33

// BlockIndexEntry locates one block frame.
type BlockIndexEntry struct {
	// StartEvent is the number of the first event in the block.
	StartEvent uint64
	// Offset is the file offset of the block's frame header.
	Offset uint64
	// EventCount is the number of events in the block.
	EventCount uint32
}

// EndEvent returns the number one past the block's last event.
func (e BlockIndexEntry) EndEvent() uint64 {
	return e.StartEvent + uint64(e.EventCount)
}

// FieldStats summarizes the codes stored for one field across the file.
type FieldStats struct {
	Values  uint64 // total codes written
	MinCode uint64
	MaxCode uint64
	Bytes   uint64 // stored column bytes after encoding and compression
	Set     bool   // MinCode and MaxCode are meaningful
}

// Merge folds o into s. less orders codes, usually the field codec's Less.
func (s FieldStats) Merge(o FieldStats, less func(a, b uint64) bool) FieldStats {
	out := FieldStats{
		Values: s.Values + o.Values,
		Bytes:  s.Bytes + o.Bytes,
	}
	switch {
	case !o.Set:
		out.MinCode, out.MaxCode, out.Set = s.MinCode, s.MaxCode, s.Set
	case !s.Set:
		out.MinCode, out.MaxCode, out.Set = o.MinCode, o.MaxCode, true
	default:
		out.Set = true
		out.MinCode, out.MaxCode = s.MinCode, s.MaxCode
		if less(o.MinCode, out.MinCode) {
			out.MinCode = o.MinCode
		}
		if less(out.MaxCode, o.MaxCode) {
			out.MaxCode = o.MaxCode
		}
	}

	return out
}

// Trailer is the payload of the trailer frame, rewritten at every close.
//
// Layout (file byte order):
//
//	u64 event count | u32 block count | block entry* |
//	u32 comment count | varstring* | u32 stats count | stats*
//
//	block entry := u64 start event | u64 offset | u32 event count
//	stats := u64 values | u64 min | u64 max | u64 bytes | u8 set
type Trailer struct {
	EventCount uint64
	Blocks     []BlockIndexEntry
	Comments   []string
	Stats      []FieldStats
}

// AppendTo appends the serialized trailer to dst.
func (t Trailer) AppendTo(dst []byte, engine endian.EndianEngine) []byte {
	dst = engine.AppendUint64(dst, t.EventCount)

	dst = engine.AppendUint32(dst, uint32(len(t.Blocks))) //nolint:gosec
	for _, b := range t.Blocks {
		dst = engine.AppendUint64(dst, b.StartEvent)
		dst = engine.AppendUint64(dst, b.Offset)
		dst = engine.AppendUint32(dst, b.EventCount)
	}

	dst = appendStrings(dst, engine, t.Comments)

	dst = engine.AppendUint32(dst, uint32(len(t.Stats))) //nolint:gosec
	for _, s := range t.Stats {
		dst = engine.AppendUint64(dst, s.Values)
		dst = engine.AppendUint64(dst, s.MinCode)
		dst = engine.AppendUint64(dst, s.MaxCode)
		dst = engine.AppendUint64(dst, s.Bytes)
		set := byte(0)
		if s.Set {
			set = 1
		}
		dst = append(dst, set)
	}

	return dst
}

// Bytes serializes the trailer.
func (t Trailer) Bytes(engine endian.EndianEngine) []byte {
	return t.AppendTo(nil, engine)
}

// ParseTrailer parses a trailer payload and checks that the block index is
// contiguous: each block starts where the previous one ended, offsets grow,
// and the counts add up to EventCount.
func ParseTrailer(data []byte, engine endian.EndianEngine) (Trailer, error) {
	r := newPayloadReader(data, engine, errs.ErrFormat, "trailer")

	var t Trailer
	t.EventCount = r.u64("event count")

	n := r.count("block count", BlockIndexEntrySize)
	if n > 0 {
		t.Blocks = make([]BlockIndexEntry, 0, n)
	}
	for i := 0; i < n && r.err == nil; i++ {
		t.Blocks = append(t.Blocks, BlockIndexEntry{
			StartEvent: r.u64("block start"),
			Offset:     r.u64("block offset"),
			EventCount: r.u32("block event count"),
		})
	}

	t.Comments = r.strings("comments")

	n = r.count("stats count", fieldStatsSize)
	if n > 0 {
		t.Stats = make([]FieldStats, 0, n)
	}
	for i := 0; i < n && r.err == nil; i++ {
		t.Stats = append(t.Stats, FieldStats{
			Values:  r.u64("stats values"),
			MinCode: r.u64("stats min"),
			MaxCode: r.u64("stats max"),
			Bytes:   r.u64("stats bytes"),
			Set:     r.u8("stats set") != 0,
		})
	}

	if err := r.finish(); err != nil {
		return Trailer{}, err
	}
	if err := t.validate(); err != nil {
		return Trailer{}, err
	}

	return t, nil
}

func (t Trailer) validate() error {
	var next, lastOffset uint64
	for i, b := range t.Blocks {
		if b.StartEvent != next {
			return fmt.Errorf("%w: block %d starts at event %d, want %d", errs.ErrFormat, i, b.StartEvent, next)
		}
		if b.EventCount == 0 {
			return fmt.Errorf("%w: block %d is empty", errs.ErrFormat, i)
		}
		if i > 0 && b.Offset <= lastOffset {
			return fmt.Errorf("%w: block %d offset %d does not follow %d", errs.ErrFormat, i, b.Offset, lastOffset)
		}
		next = b.EndEvent()
		lastOffset = b.Offset
	}
	if next != t.EventCount {
		return fmt.Errorf("%w: blocks hold %d events, trailer says %d", errs.ErrFormat, next, t.EventCount)
	}

	return nil
}
