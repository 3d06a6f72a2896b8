package block

import (
	"fmt"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/field"
)

// MaxBlockCodes bounds the codes buffered in one block so that the encoded
// payload, at most ten bytes per code before compression, fits in a frame.
const MaxBlockCodes = 1 << 27

// Builder accumulates committed events column by column until the block is
// flushed.
type Builder struct {
	table    *field.Table
	capacity int
	columns  [][]uint64
	events   int
	codes    int
	limit    int
}

// NewBuilder creates a builder for the current fields of table holding at
// most capacity events. The table must not gain fields while the builder
// is in use.
func NewBuilder(table *field.Table, capacity int) *Builder {
	if capacity <= 0 {
		capacity = 1
	}

	return &Builder{
		table:    table,
		capacity: capacity,
		columns:  make([][]uint64, table.Len()),
		limit:    MaxBlockCodes,
	}
}

// SetCodeLimit lowers the number of codes the block may hold. Values outside
// [1, MaxBlockCodes] restore MaxBlockCodes.
func (b *Builder) SetCodeLimit(n int) {
	if n <= 0 || n > MaxBlockCodes {
		n = MaxBlockCodes
	}
	b.limit = n
}

// CodeLimit returns the number of codes the block may hold.
func (b *Builder) CodeLimit() int {
	return b.limit
}

// CountCodes returns the number of codes of one event.
func CountCodes(columns [][]uint64) int {
	n := 0
	for _, codes := range columns {
		n += len(codes)
	}

	return n
}

// Fits reports whether an event can be appended without exceeding the code limit.
func (b *Builder) Fits(columns [][]uint64) bool {
	return b.codes+CountCodes(columns) <= b.limit
}

// Append adds one event, given as the codes of every field by declaration index.
// An event that does not fit is rejected with errs.ErrTooLarge and
// leaves the builder unchanged.
func (b *Builder) Append(columns [][]uint64) error {
	if len(columns) != len(b.columns) {
		return fmt.Errorf("%w: event has %d columns, block has %d fields", errs.ErrCardinality, len(columns), len(b.columns))
	}
	if !b.Fits(columns) {
		return fmt.Errorf("%w: %d buffered codes plus %d exceed %d", errs.ErrTooLarge, b.codes, CountCodes(columns), b.limit)
	}
	for i, codes := range columns {
		b.columns[i] = append(b.columns[i], codes...)
		b.codes += len(codes)
	}
	b.events++

	return nil
}

// Table returns the field table the builder was created for.
func (b *Builder) Table() *field.Table {
	return b.table
}

// Len returns the number of buffered events.
func (b *Builder) Len() int {
	return b.events
}

// Capacity returns the maximum number of events per block.
func (b *Builder) Capacity() int {
	return b.capacity
}

// Full reports whether the block reached its event capacity.
func (b *Builder) Full() bool {
	return b.events >= b.capacity
}

// RawSize returns the buffered size in bytes at eight bytes per code.
func (b *Builder) RawSize() int {
	return b.codes * 8
}

// Column returns the buffered codes of field i.
func (b *Builder) Column(i int) []uint64 {
	return b.columns[i]
}

// Reset empties the builder and keeps its column storage.
func (b *Builder) Reset() {
	for i := range b.columns {
		b.columns[i] = b.columns[i][:0]
	}
	b.events = 0
	b.codes = 0
}
