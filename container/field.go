package container

import (
	"fmt"

	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/internal/pool"
)

// Field is a write handle to one field of a session.
//
// Each Add call quantizes its values and appends them to the event being
// assembled. A value that cannot be quantized fails the whole call with
// errs.ErrRange and none of its values are added.
type Field struct {
	s    *Session
	desc *field.Descriptor
}

// Name returns the field name.
func (f *Field) Name() string {
	return f.desc.Name()
}

// Descriptor returns the field definition.
func (f *Field) Descriptor() *field.Descriptor {
	return f.desc
}

// Add appends floating-point values. Integer fields accept values that round
// to a representable step.
func (f *Field) Add(values ...float64) error {
	return add(f, values, f.desc.Codec().EncodeFloat)
}

// AddUint appends unsigned integer values.
func (f *Field) AddUint(values ...uint64) error {
	return add(f, values, f.desc.Codec().EncodeUnsigned)
}

// AddInt appends signed integer values.
func (f *Field) AddInt(values ...int64) error {
	return add(f, values, f.desc.Codec().EncodeSigned)
}

// AddCodes appends already quantized codes, such as those returned by
// event.Event.Codes for a file with the same field table.
func (f *Field) AddCodes(codes ...uint64) error {
	if err := f.s.writable(); err != nil {
		return err
	}

	return f.s.assembler.Add(f.desc.Index(), codes...)
}

func add[T any](f *Field, values []T, encode func(T) (uint64, error)) error {
	if err := f.s.writable(); err != nil {
		return err
	}

	codes, release := pool.GetUint64Slice(len(values))
	defer release()

	for i, v := range values {
		code, err := encode(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.desc.Name(), err)
		}
		codes[i] = code
	}

	return f.s.assembler.Add(f.desc.Index(), codes...)
}
