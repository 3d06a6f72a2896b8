package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/internal/logger"
)

// openOutput creates out with the layout and fields of first, or opens it
// for append when appendMode is set. An append target whose table differs
// from first is closed unmodified.
func openOutput(out string, first *container.Session, appendMode bool, log *slog.Logger) (*container.Session, []*container.Field, error) {
	if appendMode {
		w, err := container.OpenAppend(out, container.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		if !w.Table().Equal(first.Table()) {
			err := fmt.Errorf("%w: %s has a different field table than %s", errs.ErrSchemaMismatch, first.Path(), out)
			return nil, nil, multierr.Append(err, w.Close())
		}
		fields := make([]*container.Field, w.NFields())
		for i, name := range w.FieldNames() {
			if fields[i], err = w.Field(name); err != nil {
				return nil, nil, multierr.Append(err, w.Close())
			}
		}

		return w, fields, nil
	}

	opts := []container.SessionOption{
		container.WithLogger(log),
		container.WithBlockSize(first.BlockSize()),
		container.WithEncoding(first.Encoding()),
		container.WithCompression(first.Compression()),
	}
	if first.BigEndian() {
		opts = append(opts, container.WithBigEndian())
	}

	w, err := container.Create(out, opts...)
	if err != nil {
		return nil, nil, err
	}
	fields := make([]*container.Field, 0, first.NFields())
	for _, spec := range first.Table().Specs() {
		f, err := w.AllocateField(spec.Name, spec.Kind, spec.Resolution, spec.Parent)
		if err != nil {
			return nil, nil, multierr.Append(err, w.Close())
		}
		fields = append(fields, f)
	}

	return w, fields, nil
}

// copyEvents appends every event of in to w, code for code.
func copyEvents(in, w *container.Session, fields []*container.Field) (uint64, error) {
	if !in.Table().Equal(w.Table()) {
		return 0, fmt.Errorf("%w: %s has a different field table", errs.ErrSchemaMismatch, in.Path())
	}

	var n uint64
	for ev, err := range in.Events() {
		if err != nil {
			return n, err
		}
		for i, f := range fields {
			if err := f.AddCodes(ev.Codes(i)...); err != nil {
				return n, err
			}
		}
		if err := w.Write(); err != nil {
			return n, err
		}
		n++
	}

	for _, comment := range in.Comments() {
		if err := w.AddComment(comment); err != nil {
			return n, err
		}
	}

	return n, nil
}

func catFiles(out string, inputs []string, appendMode bool, log *slog.Logger) (err error) {
	sessions := make([]*container.Session, 0, len(inputs))
	defer func() {
		for _, s := range sessions {
			err = multierr.Append(err, s.Close())
		}
	}()
	for _, path := range inputs {
		s, err := container.OpenRead(path, container.WithLogger(log))
		if err != nil {
			return err
		}
		sessions = append(sessions, s)
	}
	for _, s := range sessions[1:] {
		if !s.Table().Equal(sessions[0].Table()) {
			return fmt.Errorf("%w: %s and %s have different field tables", errs.ErrSchemaMismatch, sessions[0].Path(), s.Path())
		}
	}

	w, fields, err := openOutput(out, sessions[0], appendMode, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, w.Close()) }()

	for _, in := range sessions {
		n, err := copyEvents(in, w, fields)
		if err != nil {
			return err
		}
		log.Info("copied events", slog.String("from", in.Path()), slog.Uint64("events", n))
	}

	return nil
}

func catCmd() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Concatenate files with identical field tables",
		ArgsUsage: "IN...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file", Required: true},
			&cli.BoolFlag{Name: "append", Aliases: []string{"a"}, Usage: "append to an existing output file"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("%s: expected at least one input file", c.Name)
			}

			return catFiles(c.String("out"), c.Args().Slice(), c.Bool("append"), logger.FromContext(ctx))
		},
	}
}
