// Package collision indexes the 64-bit identifiers of field names and
// detects distinct names that hash to the same identifier.
package collision

// Tracker maps identifiers to field indexes. An identifier claimed by more
// than one field is marked as collided and no longer resolves.
type Tracker struct {
	ids      map[uint64]int      // id → index of the first field with that id
	collided map[uint64]struct{} // ids shared by several fields
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ids:      make(map[uint64]int),
		collided: make(map[uint64]struct{}),
	}
}

// Track records that field index has identifier id. It reports whether id
// was already claimed by another field.
//
// Duplicate names are rejected by the field table before tracking, so a
// repeated id always means two different names.
func (t *Tracker) Track(id uint64, index int) bool {
	if _, exists := t.ids[id]; exists {
		t.collided[id] = struct{}{}
		return true
	}
	t.ids[id] = index

	return false
}

// Lookup returns the field index of id. It fails for unknown and collided ids.
func (t *Tracker) Lookup(id uint64) (int, bool) {
	if _, bad := t.collided[id]; bad {
		return 0, false
	}
	index, ok := t.ids[id]

	return index, ok
}

// Collided reports whether id is shared by several fields.
func (t *Tracker) Collided(id uint64) bool {
	_, bad := t.collided[id]
	return bad
}

// HasCollision reports whether any id is shared by several fields.
func (t *Tracker) HasCollision() bool {
	return len(t.collided) > 0
}

// Count returns the number of distinct tracked ids.
func (t *Tracker) Count() int {
	return len(t.ids)
}

// Reset clears all tracked ids and collision state, preserving capacity.
func (t *Tracker) Reset() {
	clear(t.ids)
	clear(t.collided)
}
