// Package errs defines the sentinel errors returned by qcf.
//
// Every failure is reported by wrapping one of these sentinels with
// fmt.Errorf("%w: detail", errs.ErrX), so callers distinguish conditions
// with errors.Is.
package errs

import "errors"

// File and block integrity.
var (
	// ErrFormat indicates an unreadable or incompatible file (bad magic, version, header).
	ErrFormat = errors.New("qcf: invalid file format")
	// ErrCorruptBlock indicates a checksum or structural failure inside a block.
	ErrCorruptBlock = errors.New("qcf: corrupt block")
)

// Field table misuse.
var (
	// ErrSchemaMismatch indicates an append-mode field declaration that conflicts with the persisted table.
	ErrSchemaMismatch = errors.New("qcf: schema mismatch")
	// ErrDuplicateName indicates a field name that is already allocated.
	ErrDuplicateName = errors.New("qcf: duplicate field name")
	// ErrUnknownField indicates a field name that is not in the table.
	ErrUnknownField = errors.New("qcf: unknown field")
	// ErrInvalidFieldName indicates an empty or oversized field name.
	ErrInvalidFieldName = errors.New("qcf: invalid field name")
	// ErrInvalidResolution indicates a resolution that the field kind cannot use.
	ErrInvalidResolution = errors.New("qcf: invalid resolution")
	// ErrInvalidParent indicates a parent field that cannot carry counts.
	ErrInvalidParent = errors.New("qcf: invalid parent field")
	// ErrParentCycle indicates a parent chain that references the field itself.
	ErrParentCycle = errors.New("qcf: parent cycle")
	// ErrSchemaLocked indicates a field allocation after the header was written.
	ErrSchemaLocked = errors.New("qcf: field table is locked")
	// ErrNoFields indicates that an event was written to a session without fields.
	ErrNoFields = errors.New("qcf: no fields allocated")
)

// Value errors.
var (
	// ErrCardinality indicates a commit-time value count mismatch.
	ErrCardinality = errors.New("qcf: cardinality mismatch")
	// ErrRange indicates a value that cannot be represented as a code for its field.
	ErrRange = errors.New("qcf: value out of range")
)

// Session errors.
var (
	// ErrInvalidMode indicates an operation that the session mode does not allow.
	ErrInvalidMode = errors.New("qcf: operation not allowed in this mode")
	// ErrSessionClosed indicates use of a closed session.
	ErrSessionClosed = errors.New("qcf: session closed")
	// ErrEventOutOfRange indicates a seek past the last event.
	ErrEventOutOfRange = errors.New("qcf: event number out of range")
	// ErrInvalidOption indicates an invalid configuration option value.
	ErrInvalidOption = errors.New("qcf: invalid option")
	// ErrCommentTooLong indicates a comment that a reader could not load back.
	ErrCommentTooLong = errors.New("qcf: comment too long")
	// ErrTooLarge indicates an event, block or frame beyond the sizes a reader accepts.
	ErrTooLarge = errors.New("qcf: size limit exceeded")
)
