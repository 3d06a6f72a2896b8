package field

import (
	"fmt"

	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/hash"
	"github.com/arloliu/qcf/quant"
)

// MaxNameLength is the longest field name a header can store.
const MaxNameLength = 1<<16 - 1

// Spec is the persisted definition of a field: what a header stores and what
// a caller declares.
type Spec struct {
	Name       string
	Kind       format.FieldKind
	Resolution float64
	Parent     string
}

// Descriptor is the immutable definition of one allocated field.
type Descriptor struct {
	spec        Spec
	index       int
	parentIndex int
	id          uint64
	codec       quant.Codec
}

// Name returns the field name.
func (d *Descriptor) Name() string { return d.spec.Name }

// Kind returns the field kind.
func (d *Descriptor) Kind() format.FieldKind { return d.spec.Kind }

// Resolution returns the normalized resolution.
func (d *Descriptor) Resolution() float64 { return d.spec.Resolution }

// Parent returns the parent field name, or "" for a scalar field.
func (d *Descriptor) Parent() string { return d.spec.Parent }

// HasParent reports whether the field's value count comes from a parent.
func (d *Descriptor) HasParent() bool { return d.spec.Parent != "" }

// ParentIndex returns the table index of the parent, or -1.
func (d *Descriptor) ParentIndex() int { return d.parentIndex }

// Index returns the field's position in declaration order.
func (d *Descriptor) Index() int { return d.index }

// ID returns the xxHash64 of the field name.
func (d *Descriptor) ID() uint64 { return d.id }

// Codec returns the quantization codec of the field.
func (d *Descriptor) Codec() quant.Codec { return d.codec }

// Spec returns the persisted definition of the field.
func (d *Descriptor) Spec() Spec { return d.spec }

// Matches reports whether a declaration describes this field exactly.
// The resolution is compared after normalization.
func (d *Descriptor) Matches(kind format.FieldKind, resolution float64, parent string) bool {
	res, err := quant.NormalizeResolution(kind, resolution)
	if err != nil {
		return false
	}

	return d.spec.Kind == kind && d.spec.Resolution == res && d.spec.Parent == parent
}

func (d *Descriptor) String() string {
	if d.HasParent() {
		return fmt.Sprintf("%s(%s, res=%g, parent=%s)", d.spec.Name, d.spec.Kind, d.spec.Resolution, d.spec.Parent)
	}

	return fmt.Sprintf("%s(%s, res=%g)", d.spec.Name, d.spec.Kind, d.spec.Resolution)
}

func newDescriptor(spec Spec, index, parentIndex int) (*Descriptor, error) {
	codec, err := quant.New(spec.Kind, spec.Resolution)
	if err != nil {
		return nil, err
	}
	spec.Resolution = codec.Resolution()

	return &Descriptor{
		spec:        spec,
		index:       index,
		parentIndex: parentIndex,
		id:          hash.ID(spec.Name),
		codec:       codec,
	}, nil
}
