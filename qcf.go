// Package qcf provides a compressed, self-describing container for large
// sequences of structured numeric events.
//
// Every event is made of named fields. A field carries either one value per
// event or, when it names a parent field, as many values as the parent holds
// in that event. Values are quantized to a per-field resolution, stored
// column-wise in blocks of events and compressed.
//
// # Core Features
//
//   - Self-describing files: the field table travels in the header
//   - Per-field resolution: lossless integers, bounded-error floats
//   - Variable-length fields driven by parent counts, nested to any depth
//   - Column encodings (Raw, Delta, Packed, Auto) and compression (None, Zstd, S2, LZ4, Deflate)
//   - Append without rewriting existing data
//   - Checksummed frames and recovery of files whose writer never closed them
//
// # Basic Usage
//
// Writing events:
//
//	w, _ := qcf.Create("run.qcf")
//	nHits, _ := w.AllocateField("nHits", format.KindUnsigned, 1, "")
//	hitTime, _ := w.AllocateField("hitTime", format.KindFloat, 0.1, "nHits")
//
//	_ = nHits.AddUint(3)
//	_ = hitTime.Add(1.04, 2.51, 7.0)
//	_ = w.Write()
//	_ = w.Close()
//
// Reading events:
//
//	r, _ := qcf.Open("run.qcf")
//	defer r.Close()
//	for ev, err := range r.Events() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    times, _ := ev.Floats("hitTime")
//	    fmt.Println(ev.Number(), times)
//	}
//
// # Package Structure
//
// This package wraps the container package for the common cases. The
// building blocks live in their own packages: field (field table), quant
// (quantization), event (event assembly), block (block codec), section
// (file layout), encoding and compress (column storage).
package qcf

import (
	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/event"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/hash"
)

// Create creates or truncates a file for writing.
//
// Parameters:
//   - path: file to create
//   - opts: session options (see container.SessionOption)
//
// Returns:
//   - *container.Session: the write session; Close it to finish the file
//   - error: errs.ErrInvalidOption for invalid options, or the os error
//
// Available options:
//   - container.WithBlockSize(n) / container.WithBlockByteThreshold(n)
//   - container.WithEncoding(format.TypeRaw|TypeDelta|TypePacked|TypeAuto)
//   - container.WithCompression(format.CompressionNone|Zstd|S2|LZ4|Deflate)
//   - container.WithLittleEndian() / container.WithBigEndian()
//   - container.WithLogger(l) / container.WithObserver(o) / container.WithSync(true)
//
// Example:
//
//	w, err := qcf.Create("run.qcf",
//	    container.WithBlockSize(4096),
//	    container.WithCompression(format.CompressionS2),
//	)
func Create(path string, opts ...container.SessionOption) (*container.Session, error) {
	return container.Create(path, opts...)
}

// Open opens a file for reading.
//
// The header and trailer are parsed before Open returns. A file that was
// never closed is read by scanning its blocks unless
// container.WithRecovery(false) is given.
//
// Returns errs.ErrFormat when the file is not a readable qcf file.
func Open(path string, opts ...container.SessionOption) (*container.Session, error) {
	return container.OpenRead(path, opts...)
}

// Append opens an existing file to add events and comments.
//
// Fields are re-declared with AllocateField, which fails with
// errs.ErrSchemaMismatch unless the declaration matches the file, or fetched
// with Field. Closing a session that added nothing leaves the file untouched.
func Append(path string, opts ...container.SessionOption) (*container.Session, error) {
	return container.OpenAppend(path, opts...)
}

// OpenFile opens a file in an explicit mode.
func OpenFile(path string, mode format.Mode, opts ...container.SessionOption) (*container.Session, error) {
	return container.Open(path, mode, opts...)
}

// ReadAll reads every event of a file.
//
// It is meant for small files and tests; use Open and iterate for large ones.
// On a corrupt block it returns the events read before it together with the error.
func ReadAll(path string, opts ...container.SessionOption) (events []event.Event, err error) {
	s, err := container.OpenRead(path, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	events = make([]event.Event, 0, s.EventCount())
	for ev, err := range s.Events() {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}

	return events, nil
}

// FieldID returns the 64-bit identifier of a field name.
//
// Identifiers are stable xxHash64 values; Session.Table().ByID maps them
// back to descriptors. Files store names, not identifiers.
func FieldID(name string) uint64 {
	return hash.ID(name)
}
