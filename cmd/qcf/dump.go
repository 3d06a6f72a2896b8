package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/event"
	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/logger"
)

// eventWriter renders decoded events in one output format.
type eventWriter interface {
	Begin(fields []*field.Descriptor) error
	Write(ev event.Event, fields []*field.Descriptor) error
	Flush() error
}

type jsonlWriter struct {
	w   *bufio.Writer
	buf bytes.Buffer
}

func (j *jsonlWriter) Begin([]*field.Descriptor) error { return nil }

func (j *jsonlWriter) Write(ev event.Event, fields []*field.Descriptor) error {
	j.buf.Reset()
	j.buf.WriteString(`{"event":`)
	j.buf.WriteString(strconv.FormatUint(ev.Number(), 10))

	for _, d := range fields {
		name, err := json.Marshal(d.Name())
		if err != nil {
			return err
		}
		value, err := json.Marshal(jsonValue(ev.Value(d.Index())))
		if err != nil {
			return fmt.Errorf("event %d field %q: %w", ev.Number(), d.Name(), err)
		}
		j.buf.WriteByte(',')
		j.buf.Write(name)
		j.buf.WriteByte(':')
		j.buf.Write(value)
	}
	j.buf.WriteString("}\n")

	_, err := j.w.Write(j.buf.Bytes())

	return err
}

func (j *jsonlWriter) Flush() error { return j.w.Flush() }

// jsonValue replaces NaN and infinities, which JSON cannot represent, with
// the strings "NaN", "+Inf" and "-Inf".
func jsonValue(v any) any {
	switch x := v.(type) {
	case float64:
		if !finite(x) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
	case []float64:
		if !slices.ContainsFunc(x, func(f float64) bool { return !finite(f) }) {
			return x
		}
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = jsonValue(f)
		}

		return out
	}

	return v
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type csvWriter struct {
	w   *csv.Writer
	row []string
}

func (c *csvWriter) Begin(fields []*field.Descriptor) error {
	header := make([]string, 0, len(fields)+1)
	header = append(header, "event")
	for _, d := range fields {
		header = append(header, d.Name())
	}

	return c.w.Write(header)
}

// Write emits one row; the values of a vector field share a cell, separated by spaces.
func (c *csvWriter) Write(ev event.Event, fields []*field.Descriptor) error {
	c.row = append(c.row[:0], strconv.FormatUint(ev.Number(), 10))
	for _, d := range fields {
		parts, err := formatValues(ev, d)
		if err != nil {
			return err
		}
		c.row = append(c.row, strings.Join(parts, " "))
	}

	return c.w.Write(c.row)
}

// formatValues renders the values of one field; integer kinds are printed
// exactly, floats in the shortest form that parses back to the same value.
func formatValues(ev event.Event, d *field.Descriptor) ([]string, error) {
	switch d.Kind() {
	case format.KindUnsigned:
		values, err := ev.Uints(d.Name())
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = strconv.FormatUint(v, 10)
		}

		return parts, nil
	case format.KindSigned:
		values, err := ev.Ints(d.Name())
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = strconv.FormatInt(v, 10)
		}

		return parts, nil
	default:
		values, err := ev.Floats(d.Name())
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}

		return parts, nil
	}
}

func (c *csvWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func newEventWriter(name string, w io.Writer) (eventWriter, error) {
	switch name {
	case "jsonl", "json":
		return &jsonlWriter{w: bufio.NewWriter(w)}, nil
	case "csv":
		return &csvWriter{w: csv.NewWriter(w)}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

// selectFields resolves a comma separated list of field names or 0x-prefixed
// field ids, as printed by info; an empty list selects every field.
func selectFields(table *field.Table, list string) ([]*field.Descriptor, error) {
	if strings.TrimSpace(list) == "" {
		return table.Descriptors(), nil
	}

	var out []*field.Descriptor
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		d, err := resolveField(table, name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, nil
}

// resolveField looks name up as a field name first, so a field literally
// named like an id is still found by name.
func resolveField(table *field.Table, name string) (*field.Descriptor, error) {
	d, err := table.Resolve(name)
	if err == nil {
		return d, nil
	}
	hex, ok := strings.CutPrefix(strings.ToLower(name), "0x")
	if !ok {
		return nil, err
	}
	id, perr := strconv.ParseUint(hex, 16, 64)
	if perr != nil {
		return nil, err
	}

	return table.ByID(id)
}

type dumpOptions struct {
	format string
	fields string
	skip   uint64
	limit  uint64
}

func dump(s *container.Session, w io.Writer, opts dumpOptions) error {
	fields, err := selectFields(s.Table(), opts.fields)
	if err != nil {
		return err
	}
	out, err := newEventWriter(opts.format, w)
	if err != nil {
		return err
	}

	cur, err := s.Cursor()
	if err != nil {
		return err
	}
	if err := cur.Seek(opts.skip); err != nil {
		return err
	}

	if err := out.Begin(fields); err != nil {
		return err
	}
	var n uint64
	for (opts.limit == 0 || n < opts.limit) && cur.Next() {
		if err := out.Write(cur.Event(), fields); err != nil {
			return err
		}
		n++
	}
	if err := out.Flush(); err != nil {
		return err
	}

	return cur.Err()
}

func dumpCmd() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print decoded events",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format (jsonl, csv)", Value: "jsonl"},
			&cli.StringFlag{Name: "fields", Usage: "comma separated field names or 0x ids to print (default all)"},
			&cli.Uint64Flag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of events (0 = no limit)"},
			&cli.Uint64Flag{Name: "skip", Usage: "number of events to skip"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := singleArg(c)
			if err != nil {
				return err
			}

			s, err := container.OpenRead(path, container.WithLogger(logger.FromContext(ctx)))
			if err != nil {
				return err
			}
			defer s.Close()

			return dump(s, c.Root().Writer, dumpOptions{
				format: c.String("format"),
				fields: c.String("fields"),
				skip:   c.Uint64("skip"),
				limit:  c.Uint64("limit"),
			})
		},
	}
}
