package event

import (
	"fmt"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/format"
)

// Event is one decoded event: the codes of every field plus the table that
// gives them meaning. The zero value holds no fields.
//
// Events returned by a reader share storage with the decoded block; they
// stay valid after the reader moves on but must not be modified.
type Event struct {
	number uint64
	table  *field.Table
	codes  [][]uint64
}

// New creates an event from per-field codes in declaration order.
func New(number uint64, table *field.Table, codes [][]uint64) Event {
	return Event{number: number, table: table, codes: codes}
}

// Number returns the zero-based position of the event in its file.
func (e Event) Number() uint64 {
	return e.number
}

// Fields returns the field names in declaration order.
func (e Event) Fields() []string {
	if e.table == nil {
		return nil
	}

	return e.table.Names()
}

// Codes returns the raw codes of field index.
func (e Event) Codes(index int) []uint64 {
	return e.codes[index]
}

func (e Event) lookup(name string) (*field.Descriptor, []uint64, error) {
	if e.table == nil {
		return nil, nil, fmt.Errorf("%w: %q", errs.ErrUnknownField, name)
	}
	d, err := e.table.Resolve(name)
	if err != nil {
		return nil, nil, err
	}

	return d, e.codes[d.Index()], nil
}

func (e Event) scalar(name string) (*field.Descriptor, uint64, error) {
	d, codes, err := e.lookup(name)
	if err != nil {
		return nil, 0, err
	}
	if len(codes) != 1 {
		return nil, 0, fmt.Errorf("%w: %q has %d values in event %d", errs.ErrCardinality, name, len(codes), e.number)
	}

	return d, codes[0], nil
}

// Len returns the number of values field name carries in the event.
func (e Event) Len(name string) (int, error) {
	_, codes, err := e.lookup(name)
	return len(codes), err
}

// Uint returns the single value of field name as uint64.
func (e Event) Uint(name string) (uint64, error) {
	d, code, err := e.scalar(name)
	if err != nil {
		return 0, err
	}

	return d.Codec().Uint64(code), nil
}

// Int returns the single value of field name as int64.
func (e Event) Int(name string) (int64, error) {
	d, code, err := e.scalar(name)
	if err != nil {
		return 0, err
	}

	return d.Codec().Int64(code), nil
}

// Float returns the single value of field name as float64.
func (e Event) Float(name string) (float64, error) {
	d, code, err := e.scalar(name)
	if err != nil {
		return 0, err
	}

	return d.Codec().Float64(code), nil
}

// Uints returns the values of field name as uint64.
func (e Event) Uints(name string) ([]uint64, error) {
	d, codes, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(codes))
	for i, c := range codes {
		out[i] = d.Codec().Uint64(c)
	}

	return out, nil
}

// Ints returns the values of field name as int64.
func (e Event) Ints(name string) ([]int64, error) {
	d, codes, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(codes))
	for i, c := range codes {
		out[i] = d.Codec().Int64(c)
	}

	return out, nil
}

// Floats returns the values of field name as float64.
func (e Event) Floats(name string) ([]float64, error) {
	d, codes, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(codes))
	for i, c := range codes {
		out[i] = d.Codec().Float64(c)
	}

	return out, nil
}

// Values is Floats: every kind decoded as float64.
func (e Event) Values(name string) ([]float64, error) {
	return e.Floats(name)
}

// Value returns the decoded values of field index in the field's natural Go
// type: uint64, int64 or float64 for parentless fields and the matching
// slice for fields with a parent.
func (e Event) Value(index int) any {
	d := e.table.At(index)
	c := d.Codec()
	codes := e.codes[index]

	if !d.HasParent() && len(codes) == 1 {
		switch d.Kind() {
		case format.KindUnsigned:
			return c.Uint64(codes[0])
		case format.KindSigned:
			return c.Int64(codes[0])
		default:
			return c.Float64(codes[0])
		}
	}

	switch d.Kind() {
	case format.KindUnsigned:
		out := make([]uint64, len(codes))
		for i, code := range codes {
			out[i] = c.Uint64(code)
		}

		return out
	case format.KindSigned:
		out := make([]int64, len(codes))
		for i, code := range codes {
			out[i] = c.Int64(code)
		}

		return out
	default:
		out := make([]float64, len(codes))
		for i, code := range codes {
			out[i] = c.Float64(code)
		}

		return out
	}
}

// Map returns every field's decoded value keyed by name, as Value does.
func (e Event) Map() map[string]any {
	if e.table == nil {
		return map[string]any{}
	}
	m := make(map[string]any, e.table.Len())
	for i := range e.table.Len() {
		m[e.table.At(i).Name()] = e.Value(i)
	}

	return m
}
