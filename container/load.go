package container

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/arloliu/qcf/block"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/section"
)

// load parses everything a reader or appender needs before the first event.
func (s *Session) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	pre := make([]byte, section.PreambleSize)
	if size < section.PreambleSize {
		return fmt.Errorf("%w: file is %d bytes", errs.ErrFormat, size)
	}
	if _, err := s.file.ReadAt(pre, 0); err != nil {
		return fmt.Errorf("%w: read preamble: %v", errs.ErrFormat, err)
	}
	preamble, err := section.ParsePreamble(pre)
	if err != nil {
		return err
	}
	s.engine = preamble.Engine()

	frame, payload, err := section.ReadFrame(s.file, section.PreambleSize, size)
	if err != nil {
		return fmt.Errorf("%w: header: %v", errs.ErrFormat, err)
	}
	if frame.Type != section.FrameHeader {
		return fmt.Errorf("%w: first frame is %s, want Header", errs.ErrFormat, frame.Type)
	}
	s.header, err = section.ParseHeader(payload, s.engine)
	if err != nil {
		return err
	}
	s.table, err = field.NewTableFrom(s.header.Fields)
	if err != nil {
		return err
	}
	s.table.Lock()
	s.headerWritten = true
	headerEnd := section.PreambleSize + frame.Len()

	err = s.loadTrailer(headerEnd, size)
	switch {
	case err == nil:
	case !s.cfg.recovery:
		return err
	default:
		s.log.Warn("file has no valid trailer, scanning blocks", slog.String("reason", err.Error()))
		s.scan(headerEnd, size)
	}

	s.events = s.flushed

	return nil
}

func (s *Session) loadTrailer(headerEnd, size int64) error {
	if size-headerEnd < section.FooterSize {
		return fmt.Errorf("%w: %w", errs.ErrFormat, errNoTrailer)
	}

	buf := make([]byte, section.FooterSize)
	if _, err := s.file.ReadAt(buf, size-section.FooterSize); err != nil {
		return fmt.Errorf("%w: read footer: %v", errs.ErrFormat, err)
	}
	footer, err := section.ParseFooter(buf)
	if err != nil {
		return err
	}

	off := int64(footer.TrailerOffset) //nolint:gosec
	if off < headerEnd || off > size-section.FooterSize {
		return fmt.Errorf("%w: trailer offset %d outside [%d, %d]", errs.ErrFormat, off, headerEnd, size-section.FooterSize)
	}
	frame, payload, err := section.ReadFrame(s.file, off, size-section.FooterSize)
	if err != nil {
		return fmt.Errorf("%w: trailer: %v", errs.ErrFormat, err)
	}
	if frame.Type != section.FrameTrailer {
		return fmt.Errorf("%w: footer points at a %s frame", errs.ErrFormat, frame.Type)
	}
	trailer, err := section.ParseTrailer(payload, s.engine)
	if err != nil {
		return err
	}

	for i, b := range trailer.Blocks {
		if int64(b.Offset) < headerEnd || int64(b.Offset) >= off { //nolint:gosec
			return fmt.Errorf("%w: block %d offset %d outside the data region", errs.ErrFormat, i, b.Offset)
		}
	}
	if len(trailer.Stats) != s.table.Len() {
		return fmt.Errorf("%w: trailer has stats for %d fields, table has %d", errs.ErrFormat, len(trailer.Stats), s.table.Len())
	}

	s.blocks = trailer.Blocks
	s.stats = trailer.Stats
	s.comments = trailer.Comments
	s.flushed = trailer.EventCount
	s.dataEnd = off

	return nil
}

// scan rebuilds the block index of a file whose writer did not finish it,
// walking block frames from the header until the first frame that is not
// a valid block. Comments are those of the header.
func (s *Session) scan(headerEnd, size int64) {
	s.recovered = true
	s.cfg.observer.Recovered()

	s.blocks = nil
	s.stats = make([]section.FieldStats, s.table.Len())
	s.comments = append([]string(nil), s.header.Comments...)
	s.flushed = 0
	s.dataEnd = headerEnd

	off := headerEnd
	for off < size {
		frame, payload, err := section.ReadFrame(s.file, off, size)
		if err != nil || frame.Type != section.FrameBlock {
			if err == nil {
				err = fmt.Errorf("%s frame", frame.Type)
			}
			s.log.Warn("stopped scanning", slog.Int64("offset", off), slog.String("reason", err.Error()))

			break
		}
		blk, err := block.Decode(payload, s.table, s.engine)
		if err != nil {
			s.cfg.observer.CorruptBlock()
			s.log.Warn("stopped scanning at undecodable block", slog.Int64("offset", off), slog.String("reason", err.Error()))

			break
		}

		s.blocks = append(s.blocks, section.BlockIndexEntry{
			StartEvent: s.flushed,
			Offset:     uint64(off),       //nolint:gosec
			EventCount: uint32(blk.Len()), //nolint:gosec
		})
		s.mergeStats(blk.Stats())
		s.flushed += uint64(blk.Len())
		off += frame.Len()
		s.dataEnd = off
	}

	s.log.Warn("recovered file",
		slog.Int("blocks", len(s.blocks)),
		slog.Uint64("events", s.flushed),
		slog.Int64("discarded_bytes", size-s.dataEnd))
}

// readBlock loads and decodes block i of the index.
func (s *Session) readBlock(i int) (*block.Block, error) {
	entry := s.blocks[i]
	frame, payload, err := section.ReadFrame(s.file, int64(entry.Offset), s.dataEnd) //nolint:gosec
	if err != nil {
		s.cfg.observer.CorruptBlock()
		if errors.Is(err, errs.ErrCorruptBlock) {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}

		return nil, fmt.Errorf("%w: block %d: %v", errs.ErrCorruptBlock, i, err)
	}
	if frame.Type != section.FrameBlock {
		s.cfg.observer.CorruptBlock()
		return nil, fmt.Errorf("%w: block %d offset holds a %s frame", errs.ErrCorruptBlock, i, frame.Type)
	}

	blk, err := block.Decode(payload, s.table, s.engine)
	if err != nil {
		s.cfg.observer.CorruptBlock()
		return nil, fmt.Errorf("block %d: %w", i, err)
	}
	if blk.Len() != int(entry.EventCount) {
		s.cfg.observer.CorruptBlock()
		return nil, fmt.Errorf("%w: block %d holds %d events, index says %d", errs.ErrCorruptBlock, i, blk.Len(), entry.EventCount)
	}

	s.log.Debug("loaded block", slog.Int("block", i), slog.Int("events", blk.Len()))
	s.cfg.observer.BlockRead(blk.Len(), len(payload))

	return blk, nil
}
