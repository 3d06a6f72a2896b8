package container

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/arloliu/qcf/block"
	"github.com/arloliu/qcf/endian"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/event"
	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/options"
	"github.com/arloliu/qcf/section"
)

// Session is an open qcf file in one of three modes:
//
//   - format.ModeWrite creates (or truncates) a file and writes events
//   - format.ModeRead reads the events of an existing file
//   - format.ModeAppend adds events and comments to an existing file
//
// A Session is not safe for concurrent use. Always Close it; Close is
// idempotent and safe to defer.
type Session struct {
	cfg    *SessionConfig
	mode   format.Mode
	path   string
	file   *os.File
	engine endian.EndianEngine
	log    *slog.Logger

	header        section.Header
	headerWritten bool
	table         *field.Table
	comments      []string
	commentBytes  int

	assembler *event.Assembler
	builder   *block.Builder

	blocks  []section.BlockIndexEntry
	stats   []section.FieldStats
	flushed uint64 // events that are in written blocks
	events  uint64 // flushed plus buffered events

	dataEnd   int64 // end of the last block frame
	dirty     bool
	recovered bool
	closed    bool
}

// Open opens path in the given mode.
//
// Read and append sessions parse the preamble, header and trailer before
// returning, so a damaged file fails here with errs.ErrFormat.
func Open(path string, mode format.Mode, opts ...SessionOption) (*Session, error) {
	cfg := newSessionConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	switch mode {
	case format.ModeWrite:
		return create(path, cfg)
	case format.ModeRead, format.ModeAppend:
		return open(path, mode, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown mode %d", errs.ErrInvalidMode, mode)
	}
}

// Create creates or truncates path for writing.
func Create(path string, opts ...SessionOption) (*Session, error) {
	return Open(path, format.ModeWrite, opts...)
}

// OpenRead opens path for reading.
func OpenRead(path string, opts ...SessionOption) (*Session, error) {
	return Open(path, format.ModeRead, opts...)
}

// OpenAppend opens path for appending events.
func OpenAppend(path string, opts ...SessionOption) (*Session, error) {
	return Open(path, format.ModeAppend, opts...)
}

func newSession(path string, mode format.Mode, cfg *SessionConfig) *Session {
	return &Session{
		cfg:  cfg,
		mode: mode,
		path: path,
		log:  cfg.logger.With(slog.String("path", path), slog.String("mode", mode.String())),
	}
}

func create(path string, cfg *SessionConfig) (*Session, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	s := newSession(path, format.ModeWrite, cfg)
	s.file = f
	s.engine = cfg.engine
	s.table = field.NewTable()
	s.assembler = event.NewAssembler(s.table)
	s.header = section.NewHeader(uint32(cfg.blockSize), cfg.encoding, cfg.compression) //nolint:gosec
	s.dataEnd = section.PreambleSize

	if _, err := f.WriteAt(section.NewPreamble(s.engine).Bytes(), 0); err != nil {
		return nil, multierr.Append(err, f.Close())
	}
	s.log.Debug("created file",
		slog.String("file_id", s.header.FileID.String()),
		slog.String("encoding", cfg.encoding.String()),
		slog.String("compression", cfg.compression.String()),
		slog.Int("block_size", cfg.blockSize))

	return s, nil
}

func open(path string, mode format.Mode, cfg *SessionConfig) (s *Session, err error) {
	flag := os.O_RDONLY
	if mode == format.ModeAppend {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, f.Close())
		}
	}()

	s = newSession(path, mode, cfg)
	s.file = f
	if err := s.load(); err != nil {
		return nil, err
	}
	for _, c := range s.comments {
		s.commentBytes += len(c)
	}

	if mode == format.ModeAppend {
		s.assembler = event.NewAssembler(s.table)
	}

	return s, nil
}

// Mode returns the session mode.
func (s *Session) Mode() format.Mode {
	return s.mode
}

// Path returns the file path.
func (s *Session) Path() string {
	return s.path
}

func (s *Session) writable() error {
	if s.closed {
		return errs.ErrSessionClosed
	}
	if s.mode == format.ModeRead {
		return fmt.Errorf("%w: session is read-only", errs.ErrInvalidMode)
	}

	return nil
}

// AllocateField declares a field.
//
// In write mode the field is added to the table; fields must be allocated
// before the first Write. In append mode the declaration must match a field
// of the file exactly, otherwise errs.ErrSchemaMismatch is returned and the
// file is left untouched.
func (s *Session) AllocateField(name string, kind format.FieldKind, resolution float64, parent string) (*Field, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}

	var (
		d   *field.Descriptor
		err error
	)
	if s.mode == format.ModeAppend {
		d, err = s.table.Reconcile(name, kind, resolution, parent)
	} else {
		d, err = s.table.Allocate(name, kind, resolution, parent)
	}
	if err != nil {
		return nil, err
	}

	return &Field{s: s, desc: d}, nil
}

// Field returns a handle to an existing field.
func (s *Session) Field(name string) (*Field, error) {
	if s.closed {
		return nil, errs.ErrSessionClosed
	}
	d, err := s.table.Resolve(name)
	if err != nil {
		return nil, err
	}

	return &Field{s: s, desc: d}, nil
}

// Write commits the pending values as one event.
//
// A commit that fails the cardinality check returns an error wrapping
// errs.ErrCardinality and discards the pending values; nothing of the
// event is written. An event that would not fit in a block on its own is
// discarded the same way with errs.ErrTooLarge. A full block is flushed
// to the file.
func (s *Session) Write() error {
	if err := s.writable(); err != nil {
		return err
	}
	if s.table.Len() == 0 {
		return errs.ErrNoFields
	}

	s.table.Lock()
	if s.builder == nil {
		s.builder = block.NewBuilder(s.table, int(s.header.BlockSize))
		s.builder.SetCodeLimit(s.cfg.blockCodes)
	}

	cols, err := s.assembler.Commit()
	if err != nil {
		s.cfg.observer.EventRejected()
		return err
	}
	if n := block.CountCodes(cols); n > s.builder.CodeLimit() {
		s.assembler.Discard()
		s.cfg.observer.EventRejected()

		return fmt.Errorf("%w: event has %d codes, a block holds %d", errs.ErrTooLarge, n, s.builder.CodeLimit())
	}
	if !s.builder.Fits(cols) {
		if err := s.flush(); err != nil {
			return err
		}
	}
	if err := s.builder.Append(cols); err != nil {
		return err
	}
	s.events++
	s.dirty = true
	s.cfg.observer.EventWritten()

	if s.builder.Full() || s.builder.RawSize() >= s.cfg.byteThreshold {
		return s.flush()
	}

	return nil
}

// AddComment appends a free-text comment. Comments added before the first
// block is flushed are also stored in the header.
//
// A comment longer than MaxCommentLength, or one that takes the comments of
// the file past MaxCommentBytes, is rejected with errs.ErrCommentTooLong.
func (s *Session) AddComment(text string) error {
	if err := s.writable(); err != nil {
		return err
	}
	if len(text) > MaxCommentLength {
		return fmt.Errorf("%w: %d bytes, limit %d", errs.ErrCommentTooLong, len(text), MaxCommentLength)
	}
	if s.commentBytes+len(text) > MaxCommentBytes {
		return fmt.Errorf("%w: comments would take %d bytes, limit %d", errs.ErrCommentTooLong, s.commentBytes+len(text), MaxCommentBytes)
	}
	if !s.headerWritten {
		s.header.Comments = append(s.header.Comments, text)
	}
	s.comments = append(s.comments, text)
	s.commentBytes += len(text)
	s.dirty = true

	return nil
}

// AddVersionComment appends a comment naming the format version that wrote
// the file.
func (s *Session) AddVersionComment() error {
	return s.AddComment(fmt.Sprintf("qcf format version %d", section.Version))
}

func (s *Session) writeHeader() error {
	if s.headerWritten {
		return nil
	}
	s.table.Lock()
	s.header.Fields = s.table.Specs()

	frame, err := section.AppendFrame(nil, section.FrameHeader, s.header.Bytes(s.engine))
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := s.file.WriteAt(frame, s.dataEnd); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.dataEnd += int64(len(frame))
	s.headerWritten = true
	s.stats = make([]section.FieldStats, s.table.Len())

	return nil
}

// flush writes the buffered events as one block frame.
func (s *Session) flush() error {
	if s.builder == nil || s.builder.Len() == 0 {
		return nil
	}
	if err := s.writeHeader(); err != nil {
		return err
	}

	payload, stats, err := block.Encode(s.builder, block.EncodeOptions{
		Encoding:    s.header.Encoding,
		Compression: s.header.Compression,
		Engine:      s.engine,
	})
	if err != nil {
		return err
	}

	frame, err := section.AppendFrame(nil, section.FrameBlock, payload)
	if err != nil {
		return fmt.Errorf("write block %d: %w", len(s.blocks), err)
	}
	if _, err := s.file.WriteAt(frame, s.dataEnd); err != nil {
		return fmt.Errorf("write block %d: %w", len(s.blocks), err)
	}

	n := s.builder.Len()
	s.blocks = append(s.blocks, section.BlockIndexEntry{
		StartEvent: s.flushed,
		Offset:     uint64(s.dataEnd), //nolint:gosec
		EventCount: uint32(n),         //nolint:gosec
	})
	s.mergeStats(stats)
	s.dataEnd += int64(len(frame))
	s.flushed += uint64(n)

	s.log.Debug("flushed block",
		slog.Int("block", len(s.blocks)-1),
		slog.Int("events", n),
		slog.Int("raw_bytes", s.builder.RawSize()),
		slog.Int("frame_bytes", len(frame)))
	s.cfg.observer.BlockWritten(n, s.builder.RawSize(), len(payload))
	s.builder.Reset()

	if s.cfg.sync {
		return s.file.Sync()
	}

	return nil
}

func (s *Session) mergeStats(stats []block.ColumnStats) {
	for i, st := range stats {
		s.stats[i] = s.stats[i].Merge(st.FieldStats(), s.table.At(i).Codec().Less)
	}
}

// finish writes the remaining block, the header if no block was written,
// the trailer and the footer, and cuts off anything after them.
func (s *Session) finish() error {
	if err := s.flush(); err != nil {
		return err
	}
	if err := s.writeHeader(); err != nil {
		return err
	}

	trailer := section.Trailer{
		EventCount: s.flushed,
		Blocks:     s.blocks,
		Comments:   s.comments,
		Stats:      s.stats,
	}
	buf, err := section.AppendFrame(nil, section.FrameTrailer, trailer.Bytes(s.engine))
	if err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	buf = append(buf, section.Footer{TrailerOffset: uint64(s.dataEnd)}.Bytes()...) //nolint:gosec

	if _, err := s.file.WriteAt(buf, s.dataEnd); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	end := s.dataEnd + int64(len(buf))
	if err := s.file.Truncate(end); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if s.cfg.sync {
		if err := s.file.Sync(); err != nil {
			return err
		}
	}

	s.log.Debug("closed file",
		slog.Uint64("events", s.flushed),
		slog.Int("blocks", len(s.blocks)),
		slog.Int64("bytes", end))

	return nil
}

// Close finishes and releases the file.
//
// Writing sessions flush the last partial block and write the trailer.
// Values added without a following Write are discarded. An append session
// that wrote neither events nor comments leaves the file untouched.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.mode != format.ModeRead {
		if s.assembler.State() == event.StateFilling {
			s.log.Warn("discarding values of an unwritten event")
			s.assembler.Discard()
		}
		if s.mode == format.ModeWrite || s.dirty {
			err = s.finish()
		}
	}

	return multierr.Append(err, s.file.Close())
}

// FieldNames returns the field names in declaration order.
func (s *Session) FieldNames() []string {
	return s.table.Names()
}

// NFields returns the number of fields.
func (s *Session) NFields() int {
	return s.table.Len()
}

// Table returns the field table. It must not be modified.
func (s *Session) Table() *field.Table {
	return s.table
}

// Comments returns every comment of the file in the order added.
func (s *Session) Comments() []string {
	return slices.Clone(s.comments)
}

// HeaderComments returns the comments stored in the header.
func (s *Session) HeaderComments() []string {
	return slices.Clone(s.header.Comments)
}

// EventCount returns the number of events: stored events for read
// sessions, stored plus written events for write and append sessions.
func (s *Session) EventCount() uint64 {
	return s.events
}

// BlockCount returns the number of block frames written so far.
func (s *Session) BlockCount() int {
	return len(s.blocks)
}

// Blocks returns the block index.
func (s *Session) Blocks() []section.BlockIndexEntry {
	return slices.Clone(s.blocks)
}

// FileID returns the identifier stamped into the header when the file was created.
func (s *Session) FileID() uuid.UUID {
	return s.header.FileID
}

// CreatedAt returns the creation time recorded in the header.
func (s *Session) CreatedAt() time.Time {
	return s.header.CreatedAtTime()
}

// BlockSize returns the maximum number of events per block.
func (s *Session) BlockSize() int {
	return int(s.header.BlockSize)
}

// Encoding returns the column encoding of the file.
func (s *Session) Encoding() format.EncodingType {
	return s.header.Encoding
}

// Compression returns the column compression of the file.
func (s *Session) Compression() format.CompressionType {
	return s.header.Compression
}

// BigEndian reports whether the file payloads are big-endian.
func (s *Session) BigEndian() bool {
	return endian.IsBigEndian(s.engine)
}

// Recovered reports whether the file had no valid trailer and was read by scanning.
func (s *Session) Recovered() bool {
	return s.recovered
}

// FieldStat pairs a field with the statistics of its stored codes.
type FieldStat struct {
	Field *field.Descriptor
	section.FieldStats
}

// Min returns the smallest stored value, or 0 when the field has none.
func (st FieldStat) Min() float64 {
	if !st.Set {
		return 0
	}

	return st.Field.Codec().Float64(st.MinCode)
}

// Max returns the largest stored value, or 0 when the field has none.
func (st FieldStat) Max() float64 {
	if !st.Set {
		return 0
	}

	return st.Field.Codec().Float64(st.MaxCode)
}

// FieldStats returns per-field statistics over the blocks written so far.
func (s *Session) FieldStats() []FieldStat {
	out := make([]FieldStat, s.table.Len())
	for i := range out {
		out[i].Field = s.table.At(i)
		if i < len(s.stats) {
			out[i].FieldStats = s.stats[i]
		}
	}

	return out
}

var errNoTrailer = errors.New("no trailer")
