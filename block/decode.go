package block

import (
	"fmt"

	"github.com/arloliu/qcf/compress"
	"github.com/arloliu/qcf/encoding"
	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/pool"
)

// maxColumnCodes bounds the code count a column may claim.
const maxColumnCodes = 1 << 28

// Block is a decoded block: the code columns plus the per-event boundaries
// derived from the parent fields.
type Block struct {
	table   *field.Table
	events  int
	columns [][]uint64
	// offsets[i][e] is where event e starts in columns[i]; offsets[i][events] == len(columns[i])
	offsets [][]int
	layout  []columnLayout
}

type columnLayout struct {
	encoding format.EncodingType
	encoded  int
	stored   int
}

// Decode parses a block payload written for table.
//
// Returns errs.ErrCorruptBlock when the payload is truncated, names an
// unknown encoding or compression, fails to decompress, or records code
// counts that disagree with the cardinalities implied by its parent fields.
func Decode(payload []byte, table *field.Table, engine endian.EndianEngine) (*Block, error) {
	if engine == nil {
		engine = endian.GetLittleEndianEngine()
	}
	if len(payload) < payloadHeaderSize {
		return nil, fmt.Errorf("%w: payload of %d bytes", errs.ErrCorruptBlock, len(payload))
	}

	events := int(engine.Uint32(payload[0:4]))
	fields := int(engine.Uint32(payload[4:8]))
	if fields != table.Len() {
		return nil, fmt.Errorf("%w: block has %d fields, table has %d", errs.ErrCorruptBlock, fields, table.Len())
	}
	if fields == 0 || events == 0 {
		return nil, fmt.Errorf("%w: empty block", errs.ErrCorruptBlock)
	}

	b := &Block{
		table:   table,
		events:  events,
		columns: make([][]uint64, fields),
		layout:  make([]columnLayout, fields),
	}

	off := payloadHeaderSize
	for i := range fields {
		name := table.At(i).Name()
		if len(payload)-off < columnHeaderSize {
			return nil, fmt.Errorf("%w: column %q header truncated", errs.ErrCorruptBlock, name)
		}
		enc := format.EncodingType(payload[off])
		comp := format.CompressionType(payload[off+1])
		count := int(engine.Uint32(payload[off+2:]))
		rawSize := int(engine.Uint32(payload[off+6:]))
		storedSize := int(engine.Uint32(payload[off+10:]))
		off += columnHeaderSize

		if !enc.Valid() || enc == format.TypeAuto {
			return nil, fmt.Errorf("%w: column %q has encoding %d", errs.ErrCorruptBlock, name, enc)
		}
		if !comp.Valid() {
			return nil, fmt.Errorf("%w: column %q has compression %d", errs.ErrCorruptBlock, name, comp)
		}
		if count > maxColumnCodes {
			return nil, fmt.Errorf("%w: column %q claims %d codes", errs.ErrCorruptBlock, name, count)
		}
		if storedSize > len(payload)-off {
			return nil, fmt.Errorf("%w: column %q needs %d bytes, %d left", errs.ErrCorruptBlock, name, storedSize, len(payload)-off)
		}
		stored := payload[off : off+storedSize]
		off += storedSize

		codec, err := compress.GetCodec(comp)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", errs.ErrCorruptBlock, name, err)
		}
		raw, err := codec.DecompressSized(stored, rawSize)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: decompress: %v", errs.ErrCorruptBlock, name, err)
		}

		codes, err := encoding.DecodeColumn(enc, engine, raw, count, make([]uint64, 0, count))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		b.columns[i] = codes
		b.layout[i] = columnLayout{encoding: enc, encoded: rawSize, stored: storedSize}
	}
	if off != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrCorruptBlock, len(payload)-off)
	}

	if err := b.split(); err != nil {
		return nil, err
	}

	return b, nil
}

// split derives the event boundaries of every column.
func (b *Block) split() error {
	fields := len(b.columns)
	// field 0 never has a parent, so its code count is the event count
	if len(b.columns[0]) != b.events {
		return fmt.Errorf("%w: field %q has %d codes for %d events",
			errs.ErrCorruptBlock, b.table.At(0).Name(), len(b.columns[0]), b.events)
	}

	pos, release := pool.GetIntSlice(fields)
	defer release()
	clear(pos)

	b.offsets = make([][]int, fields)
	for i := range b.offsets {
		b.offsets[i] = make([]int, b.events+1)
	}

	cur := make([][]uint64, fields)
	for e := range b.events {
		for i := range fields {
			n := b.table.Cardinality(i, cur)
			left := len(b.columns[i]) - pos[i]
			if n > uint64(left) { //nolint:gosec
				return fmt.Errorf("%w: event %d needs %d codes of field %q, %d left",
					errs.ErrCorruptBlock, e, n, b.table.At(i).Name(), left)
			}
			end := pos[i] + int(n) //nolint:gosec
			cur[i] = b.columns[i][pos[i]:end]
			pos[i] = end
			b.offsets[i][e+1] = end
		}
	}

	for i := range fields {
		if pos[i] != len(b.columns[i]) {
			return fmt.Errorf("%w: field %q has %d unused codes",
				errs.ErrCorruptBlock, b.table.At(i).Name(), len(b.columns[i])-pos[i])
		}
	}

	return nil
}

// Table returns the field table the block was decoded with.
func (b *Block) Table() *field.Table {
	return b.table
}

// Len returns the number of events in the block.
func (b *Block) Len() int {
	return b.events
}

// Codes returns the codes of field i in event e of the block.
// The slice aliases the block and must not be modified.
func (b *Block) Codes(e, i int) []uint64 {
	return b.columns[i][b.offsets[i][e]:b.offsets[i][e+1]]
}

// Event returns the codes of every field of event e by declaration index.
func (b *Block) Event(e int) [][]uint64 {
	out := make([][]uint64, len(b.columns))
	for i := range b.columns {
		out[i] = b.Codes(e, i)
	}

	return out
}

// Column returns all codes of field i in the block.
func (b *Block) Column(i int) []uint64 {
	return b.columns[i]
}

// Stats summarizes every column of the block as Encode reported it.
func (b *Block) Stats() []ColumnStats {
	out := make([]ColumnStats, len(b.columns))
	for i, codes := range b.columns {
		l := b.layout[i]
		out[i] = columnStats(b.table.At(i).Codec(), codes, l.encoding, l.encoded, l.stored)
	}

	return out
}
