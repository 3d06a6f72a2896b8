// Package field implements the field table: the ordered set of named,
// typed channels that make up every event of a file.
//
// Fields are allocated in dependency order. A field may name a parent, an
// earlier unsigned field with resolution 1, whose values in an event give the
// number of values the child carries. Because a parent must exist before its
// child, the table is acyclic by construction; Validate re-checks this for
// tables read from disk.
package field

import (
	"fmt"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/collision"
)

// Table is the ordered collection of field descriptors of one file.
//
// A Table is not safe for concurrent mutation; sessions own their table.
type Table struct {
	fields   []*Descriptor
	byName   map[string]int
	children [][]int
	ids      *collision.Tracker
	locked   bool
}

// NewTable creates an empty, unlocked table.
func NewTable() *Table {
	return &Table{byName: make(map[string]int), ids: collision.NewTracker()}
}

// NewTableFrom rebuilds a table from persisted specs in declaration order.
//
// Any inconsistency (duplicate names, unknown or forward parents, invalid
// resolutions) is reported as errs.ErrFormat since it can only come from a
// damaged or foreign file.
func NewTableFrom(specs []Spec) (*Table, error) {
	t := NewTable()
	for i, s := range specs {
		if _, err := t.Allocate(s.Name, s.Kind, s.Resolution, s.Parent); err != nil {
			return nil, fmt.Errorf("%w: field %d (%q): %w", errs.ErrFormat, i, s.Name, err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrFormat, err)
	}

	return t, nil
}

// Allocate appends a new field to the table.
//
// Parameters:
//   - name: unique, non-empty name of at most MaxNameLength bytes
//   - kind: value kind
//   - resolution: quantization step, normalized per kind
//   - parent: name of an existing unsigned field with resolution 1, or ""
//
// Returns:
//   - *Descriptor: the new descriptor
//   - error: errs.ErrDuplicateName, errs.ErrInvalidFieldName, errs.ErrInvalidResolution,
//     errs.ErrUnknownField, errs.ErrInvalidParent, errs.ErrParentCycle or errs.ErrSchemaLocked
func (t *Table) Allocate(name string, kind format.FieldKind, resolution float64, parent string) (*Descriptor, error) {
	if t.locked {
		return nil, fmt.Errorf("%w: cannot allocate %q after the header is written", errs.ErrSchemaLocked, name)
	}
	if name == "" || len(name) > MaxNameLength {
		return nil, fmt.Errorf("%w: name length %d", errs.ErrInvalidFieldName, len(name))
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: field %q has unknown kind %d", errs.ErrInvalidResolution, name, kind)
	}
	if _, exists := t.byName[name]; exists {
		return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateName, name)
	}

	parentIndex, err := t.checkParent(name, parent)
	if err != nil {
		return nil, err
	}

	d, err := newDescriptor(Spec{Name: name, Kind: kind, Resolution: resolution, Parent: parent}, len(t.fields), parentIndex)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}

	t.fields = append(t.fields, d)
	t.children = append(t.children, nil)
	t.byName[name] = d.index
	t.ids.Track(d.id, d.index)
	if parentIndex >= 0 {
		t.children[parentIndex] = append(t.children[parentIndex], d.index)
	}

	return d, nil
}

func (t *Table) checkParent(name, parent string) (int, error) {
	if parent == "" {
		return -1, nil
	}
	if parent == name {
		return -1, fmt.Errorf("%w: %q names itself as parent", errs.ErrParentCycle, name)
	}

	idx, ok := t.byName[parent]
	if !ok {
		return -1, fmt.Errorf("%w: parent %q of %q must be allocated first", errs.ErrUnknownField, parent, name)
	}

	p := t.fields[idx]
	if p.Kind() != format.KindUnsigned || p.Resolution() != 1 {
		return -1, fmt.Errorf("%w: parent %q of %q must be an unsigned field with resolution 1, got %s",
			errs.ErrInvalidParent, parent, name, p)
	}

	return idx, nil
}

// Reconcile binds a declaration to an existing field of a loaded table.
//
// It is the append-mode counterpart of Allocate: the persisted table is
// authoritative, so a declaration must match an existing field exactly.
//
// Returns errs.ErrSchemaMismatch when the name is absent or when kind,
// resolution or parent differ.
func (t *Table) Reconcile(name string, kind format.FieldKind, resolution float64, parent string) (*Descriptor, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: field %q is not in the existing file", errs.ErrSchemaMismatch, name)
	}

	d := t.fields[idx]
	if !d.Matches(kind, resolution, parent) {
		got := Spec{Name: name, Kind: kind, Resolution: resolution, Parent: parent}
		return nil, fmt.Errorf("%w: field %q declared as %s, file has %s",
			errs.ErrSchemaMismatch, name, specString(got), specString(d.spec))
	}

	return d, nil
}

func specString(s Spec) string {
	if s.Parent == "" {
		return fmt.Sprintf("%s res=%g", s.Kind, s.Resolution)
	}

	return fmt.Sprintf("%s res=%g parent=%s", s.Kind, s.Resolution, s.Parent)
}

// Resolve returns the descriptor of a field by name.
func (t *Table) Resolve(name string) (*Descriptor, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownField, name)
	}

	return t.fields[idx], nil
}

// ByID returns the descriptor whose name hashes to id (see Descriptor.ID).
// An id shared by two names resolves to neither; use Resolve for those.
func (t *Table) ByID(id uint64) (*Descriptor, error) {
	i, ok := t.ids.Lookup(id)
	if ok {
		return t.fields[i], nil
	}
	if t.ids.Collided(id) {
		return nil, fmt.Errorf("%w: id %#x is shared by several fields", errs.ErrUnknownField, id)
	}

	return nil, fmt.Errorf("%w: id %#x", errs.ErrUnknownField, id)
}

// Index returns the declaration index of a field.
func (t *Table) Index(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// At returns the descriptor at declaration index i. It panics when i is out of range.
func (t *Table) At(i int) *Descriptor {
	return t.fields[i]
}

// Len returns the number of fields.
func (t *Table) Len() int {
	return len(t.fields)
}

// Names returns the field names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.fields))
	for i, d := range t.fields {
		names[i] = d.Name()
	}

	return names
}

// Descriptors returns the descriptors in declaration order.
func (t *Table) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(t.fields))
	copy(out, t.fields)

	return out
}

// Specs returns the persisted definitions in declaration order.
func (t *Table) Specs() []Spec {
	out := make([]Spec, len(t.fields))
	for i, d := range t.fields {
		out[i] = d.spec
	}

	return out
}

// Children returns the indices of the fields whose parent is field i.
func (t *Table) Children(i int) []int {
	return t.children[i]
}

// Lock forbids further allocation.
func (t *Table) Lock() {
	t.locked = true
}

// Locked reports whether the table no longer accepts allocations.
func (t *Table) Locked() bool {
	return t.locked
}

// Equal reports whether two tables hold the same specs in the same order.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i, d := range t.fields {
		if d.spec != other.fields[i].spec {
			return false
		}
	}

	return true
}

// Validate checks that names are unique, parents precede their children and
// no parent chain loops back on itself.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.fields))
	for i, d := range t.fields {
		if _, dup := seen[d.Name()]; dup {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateName, d.Name())
		}
		seen[d.Name()] = struct{}{}

		steps := 0
		for p := d.parentIndex; p >= 0; p = t.fields[p].parentIndex {
			if p >= i || steps > len(t.fields) {
				return fmt.Errorf("%w: field %q", errs.ErrParentCycle, d.Name())
			}
			steps++
		}
	}

	return nil
}
