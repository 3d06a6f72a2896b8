// Package event assembles the values of one event and exposes decoded
// events to readers.
package event

import (
	"fmt"
	"strings"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/field"
)

// State is the lifecycle state of an Assembler.
type State uint8

const (
	StateEmpty     State = iota // no values added since the last commit or discard
	StateFilling                // values pending
	StateCommitted              // the last event was committed; the next Add starts a new one
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateFilling:
		return "Filling"
	case StateCommitted:
		return "Committed"
	default:
		return "Unknown"
	}
}

// Columns holds the codes of one event by field declaration index.
type Columns [][]uint64

// Assembler collects the codes of the event being written and checks every
// field's value count against its cardinality when the event is committed.
type Assembler struct {
	table   *field.Table
	pending [][]uint64
	state   State
}

// NewAssembler creates an assembler over table. Fields allocated after
// creation are picked up on the next Add or Commit.
func NewAssembler(table *field.Table) *Assembler {
	return &Assembler{table: table}
}

func (a *Assembler) sync() {
	for len(a.pending) < a.table.Len() {
		a.pending = append(a.pending, nil)
	}
}

// Add appends codes to the pending values of field index.
func (a *Assembler) Add(index int, codes ...uint64) error {
	if index < 0 || index >= a.table.Len() {
		return fmt.Errorf("%w: field index %d", errs.ErrUnknownField, index)
	}
	a.sync()
	if a.state != StateFilling {
		a.clear()
		a.state = StateFilling
	}
	a.pending[index] = append(a.pending[index], codes...)

	return nil
}

// Pending returns the codes added to field index for the current event.
func (a *Assembler) Pending(index int) []uint64 {
	if a.state != StateFilling || index >= len(a.pending) {
		return nil
	}

	return a.pending[index]
}

// State returns the assembler state.
func (a *Assembler) State() State {
	return a.state
}

// Cardinality returns the number of values field index must carry in the
// pending event.
func (a *Assembler) Cardinality(index int) uint64 {
	a.sync()
	if a.state != StateFilling {
		a.clear()
	}

	return a.table.Cardinality(index, a.pending)
}

// Commit validates the pending event and returns its columns.
//
// On success the assembler moves to StateCommitted. The returned columns are
// valid until the next Add.
//
// When any field holds the wrong number of values the whole event is
// discarded, the assembler returns to StateEmpty and the error wraps
// errs.ErrCardinality, naming every offending field.
func (a *Assembler) Commit() (Columns, error) {
	a.sync()
	if a.state != StateFilling {
		a.clear()
	}

	var bad []string
	for i := range a.pending {
		want := a.table.Cardinality(i, a.pending)
		if got := uint64(len(a.pending[i])); got != want {
			bad = append(bad, fmt.Sprintf("%s has %d values, want %d", a.table.At(i).Name(), got, want))
		}
	}
	if len(bad) > 0 {
		a.Discard()
		return nil, fmt.Errorf("%w: %s", errs.ErrCardinality, strings.Join(bad, "; "))
	}

	a.state = StateCommitted

	return Columns(a.pending), nil
}

// Discard drops the pending values and returns to StateEmpty.
func (a *Assembler) Discard() {
	a.clear()
	a.state = StateEmpty
}

func (a *Assembler) clear() {
	for i := range a.pending {
		a.pending[i] = a.pending[i][:0]
	}
}
