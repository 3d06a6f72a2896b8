package field

import "math"

// Cardinality returns how many values field i carries in one event.
//
// event holds the codes of every field of the event by declaration index;
// only the entry of i's parent is read, so callers resolving fields in
// declaration order may leave later entries unset.
//
// A parentless field carries one value. A child carries the sum of its
// parent's values: for a scalar parent that is the parent's value, for a
// vector parent it is the total over the parent's elements. Parents are
// unsigned with resolution 1, so codes equal values. The sum saturates at
// math.MaxUint64.
func (t *Table) Cardinality(i int, event [][]uint64) uint64 {
	p := t.fields[i].parentIndex
	if p < 0 {
		return 1
	}

	var n uint64
	for _, v := range event[p] {
		if v > math.MaxUint64-n {
			return math.MaxUint64
		}
		n += v
	}

	return n
}
