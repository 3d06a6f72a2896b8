package container

import (
	"fmt"
	"iter"
	"sort"

	"github.com/arloliu/qcf/block"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/event"
	"github.com/arloliu/qcf/format"
)

// Cursor iterates the events of a read session in file order, decoding one
// block at a time.
//
//	cur, _ := s.Cursor()
//	for cur.Next() {
//	    ev := cur.Event()
//	    ...
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor struct {
	s     *Session
	blk   *block.Block
	index int // index of blk in the block index, -1 when none is loaded
	next  uint64
	cur   event.Event
	err   error
}

// Cursor returns a new cursor positioned before the first event.
func (s *Session) Cursor() (*Cursor, error) {
	if s.closed {
		return nil, errs.ErrSessionClosed
	}
	if s.mode != format.ModeRead {
		return nil, fmt.Errorf("%w: cursors need a read session", errs.ErrInvalidMode)
	}

	return &Cursor{s: s, index: -1}, nil
}

// Next advances to the next event. It returns false at the end of the file
// or on error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if c.s.closed {
		c.err = errs.ErrSessionClosed
		return false
	}
	if c.next >= c.s.flushed {
		return false
	}

	i := c.blockFor(c.next)
	if i != c.index {
		blk, err := c.s.readBlock(i)
		if err != nil {
			c.err = err
			return false
		}
		c.blk, c.index = blk, i
	}

	pos := int(c.next - c.s.blocks[i].StartEvent) //nolint:gosec
	c.cur = event.New(c.next, c.s.table, c.blk.Event(pos))
	c.next++

	return true
}

func (c *Cursor) blockFor(n uint64) int {
	blocks := c.s.blocks
	if c.index >= 0 {
		if b := blocks[c.index]; n >= b.StartEvent && n < b.EndEvent() {
			return c.index
		}
		if c.index+1 < len(blocks) && n == blocks[c.index+1].StartEvent {
			return c.index + 1
		}
	}

	return sort.Search(len(blocks), func(i int) bool { return blocks[i].EndEvent() > n })
}

// Event returns the event Next moved to.
func (c *Cursor) Event() event.Event {
	return c.cur
}

// Err returns the error that stopped iteration, if any. Events returned
// before the error remain valid.
func (c *Cursor) Err() error {
	return c.err
}

// Seek positions the cursor so that the next call to Next returns event n.
// Seeking to EventCount positions the cursor at the end.
func (c *Cursor) Seek(n uint64) error {
	if n > c.s.flushed {
		return fmt.Errorf("%w: event %d of %d", errs.ErrEventOutOfRange, n, c.s.flushed)
	}
	c.next = n
	c.err = nil
	c.cur = event.Event{}

	return nil
}

// Rewind positions the cursor before the first event.
func (c *Cursor) Rewind() {
	_ = c.Seek(0)
}

// All returns an iterator over the remaining events. Check Err after the
// loop ends.
func (c *Cursor) All() iter.Seq[event.Event] {
	return func(yield func(event.Event) bool) {
		for c.Next() {
			if !yield(c.cur) {
				return
			}
		}
	}
}

// Events iterates every event of a read session. An error ends the
// sequence as its final element.
func (s *Session) Events() iter.Seq2[event.Event, error] {
	return func(yield func(event.Event, error) bool) {
		c, err := s.Cursor()
		if err != nil {
			yield(event.Event{}, err)
			return
		}
		for c.Next() {
			if !yield(c.cur, nil) {
				return
			}
		}
		if c.err != nil {
			yield(event.Event{}, c.err)
		}
	}
}
