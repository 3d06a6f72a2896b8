package container

// Observer receives session activity. Implementations must be safe for
// concurrent use when shared between sessions.
type Observer interface {
	// EventWritten is called for every committed event.
	EventWritten()
	// EventRejected is called when a commit fails its cardinality check.
	EventRejected()
	// BlockWritten is called after a block frame is written.
	BlockWritten(events, rawBytes, storedBytes int)
	// BlockRead is called after a block frame is decoded.
	BlockRead(events, storedBytes int)
	// CorruptBlock is called when a block fails its checksum or decoding.
	CorruptBlock()
	// Recovered is called when a file without a valid trailer is opened by scanning.
	Recovered()
}

type nopObserver struct{}

func (nopObserver) EventWritten()            {}
func (nopObserver) EventRejected()           {}
func (nopObserver) BlockWritten(_, _, _ int) {}
func (nopObserver) BlockRead(_, _ int)       {}
func (nopObserver) CorruptBlock()            {}
func (nopObserver) Recovered()               {}
