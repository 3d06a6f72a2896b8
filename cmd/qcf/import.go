package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/logger"
)

const maxLineSize = 64 << 20

// importEvents reads JSON lines from r and writes one event per line.
// Each line is an object keyed by field name holding a number or an array
// of numbers; the "event" key written by dump is ignored. Float fields also
// take the strings "NaN", "+Inf" and "-Inf" that dump writes for them.
func importEvents(r io.Reader, w *container.Session, fields []*container.Field) (int, error) {
	byName := make(map[string]*container.Field, len(fields))
	for _, f := range fields {
		byName[f.Name()] = f
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var line, n int
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}

		for key := range obj {
			if key == "event" {
				continue
			}
			if _, ok := byName[key]; !ok {
				return n, fmt.Errorf("line %d: %w: %q", line, errs.ErrUnknownField, key)
			}
		}

		for _, f := range fields {
			v, ok := obj[f.Name()]
			if !ok || v == nil {
				continue
			}
			if err := addJSONValue(f, v); err != nil {
				return n, fmt.Errorf("line %d: %w", line, err)
			}
		}

		if err := w.Write(); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}

	return n, sc.Err()
}

func addJSONValue(f *container.Field, v any) error {
	var nums []json.Number
	switch x := v.(type) {
	case json.Number:
		nums = []json.Number{x}
	case string:
		nums = []json.Number{json.Number(x)}
	case []any:
		nums = make([]json.Number, len(x))
		for i, item := range x {
			switch num := item.(type) {
			case json.Number:
				nums[i] = num
			case string:
				nums[i] = json.Number(num)
			default:
				return fmt.Errorf("field %q: element %d is not a number", f.Name(), i)
			}
		}
	default:
		return fmt.Errorf("field %q: expected a number or an array of numbers", f.Name())
	}

	switch f.Descriptor().Kind() {
	case format.KindUnsigned:
		if values, ok := parseAll(nums, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }); ok {
			return f.AddUint(values...)
		}
	case format.KindSigned:
		if values, ok := parseAll(nums, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }); ok {
			return f.AddInt(values...)
		}
	}

	values, ok := parseAll(nums, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	if !ok {
		return fmt.Errorf("field %q: invalid number", f.Name())
	}

	return f.Add(values...)
}

func parseAll[T any](nums []json.Number, parse func(string) (T, error)) ([]T, bool) {
	out := make([]T, len(nums))
	for i, num := range nums {
		v, err := parse(num.String())
		if err != nil {
			return nil, false
		}
		out[i] = v
	}

	return out, true
}

func importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create a file from a YAML schema and JSON lines events",
		ArgsUsage: "[IN.jsonl]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "schema", Aliases: []string{"s"}, Usage: "YAML schema file", Required: true},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) (err error) {
			log := logger.FromContext(ctx)

			sch, err := loadSchema(c.String("schema"))
			if err != nil {
				return err
			}
			opts, err := sch.options()
			if err != nil {
				return err
			}

			var in io.Reader = c.Root().Reader
			if c.Args().Len() > 0 {
				f, err := os.Open(c.Args().First())
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			w, err := container.Create(c.String("out"), append(opts, container.WithLogger(log))...)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, w.Close()) }()

			fields, err := sch.allocate(w)
			if err != nil {
				return err
			}
			for _, comment := range sch.Comments {
				if err := w.AddComment(comment); err != nil {
					return err
				}
			}

			n, err := importEvents(in, w, fields)
			if err != nil {
				return err
			}
			log.Info("imported events", "events", n, "out", c.String("out"))

			return nil
		},
	}
}
