package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/internal/logger"
	"github.com/arloliu/qcf/section"
)

type fileInfo struct {
	Path        string      `json:"path" yaml:"path"`
	Version     int         `json:"version" yaml:"version"`
	FileID      string      `json:"file_id" yaml:"file_id"`
	Created     string      `json:"created" yaml:"created"`
	Events      uint64      `json:"events" yaml:"events"`
	Blocks      int         `json:"blocks" yaml:"blocks"`
	BlockSize   int         `json:"block_size" yaml:"block_size"`
	Encoding    string      `json:"encoding" yaml:"encoding"`
	Compression string      `json:"compression" yaml:"compression"`
	ByteOrder   string      `json:"byte_order" yaml:"byte_order"`
	Recovered   bool        `json:"recovered,omitempty" yaml:"recovered,omitempty"`
	Fields      []fieldInfo `json:"fields" yaml:"fields"`
	Comments    []string    `json:"comments,omitempty" yaml:"comments,omitempty"`
}

type fieldInfo struct {
	Name       string    `json:"name" yaml:"name"`
	ID         string    `json:"id" yaml:"id"`
	Kind       string    `json:"kind" yaml:"kind"`
	Resolution float64   `json:"resolution" yaml:"resolution"`
	Parent     string    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Values     uint64    `json:"values" yaml:"values"`
	Min        statFloat `json:"min" yaml:"min"`
	Max        statFloat `json:"max" yaml:"max"`
	Bytes      uint64    `json:"bytes" yaml:"bytes"`
}

// statFloat is a statistic that may be NaN or infinite in lossless float
// fields. JSON gets those as strings, as dump writes them.
type statFloat float64

func (f statFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonValue(float64(f)))
}

func (f *statFloat) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*f = statFloat(x)
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return err
		}
		*f = statFloat(parsed)
	default:
		return fmt.Errorf("invalid statistic %s", data)
	}

	return nil
}

func describe(s *container.Session) fileInfo {
	info := fileInfo{
		Path:        s.Path(),
		Version:     int(section.Version),
		FileID:      s.FileID().String(),
		Created:     s.CreatedAt().UTC().Format(time.RFC3339Nano),
		Events:      s.EventCount(),
		Blocks:      s.BlockCount(),
		BlockSize:   s.BlockSize(),
		Encoding:    s.Encoding().String(),
		Compression: s.Compression().String(),
		ByteOrder:   "little",
		Recovered:   s.Recovered(),
		Comments:    s.Comments(),
	}
	if s.BigEndian() {
		info.ByteOrder = "big"
	}

	for _, st := range s.FieldStats() {
		info.Fields = append(info.Fields, fieldInfo{
			Name:       st.Field.Name(),
			ID:         fmt.Sprintf("%#016x", st.Field.ID()),
			Kind:       st.Field.Kind().String(),
			Resolution: st.Field.Resolution(),
			Parent:     st.Field.Parent(),
			Values:     st.Values,
			Min:        statFloat(st.Min()),
			Max:        statFloat(st.Max()),
			Bytes:      st.Bytes,
		})
	}

	return info
}

func writeInfoText(w io.Writer, info fileInfo) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("File:        %s\n", info.Path)
	p("Version:     %d\n", info.Version)
	p("File ID:     %s\n", info.FileID)
	p("Created:     %s\n", info.Created)
	p("Events:      %d\n", info.Events)
	p("Blocks:      %d (block size %d)\n", info.Blocks, info.BlockSize)
	p("Encoding:    %s\n", info.Encoding)
	p("Compression: %s\n", info.Compression)
	p("Byte order:  %s\n", info.ByteOrder)
	if info.Recovered {
		p("Recovered:   yes\n")
	}

	p("\nFields (%d):\n", len(info.Fields))
	for _, f := range info.Fields {
		parent := "-"
		if f.Parent != "" {
			parent = f.Parent
		}
		p("  %-20s %s %-8s res=%-10g parent=%-12s values=%-10d min=%-12g max=%-12g bytes=%d\n",
			f.Name, f.ID, f.Kind, f.Resolution, parent, f.Values, float64(f.Min), float64(f.Max), f.Bytes)
	}

	if len(info.Comments) > 0 {
		p("\nComments (%d):\n", len(info.Comments))
		for _, c := range info.Comments {
			p("  %s\n", c)
		}
	}

	return err
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show file layout, fields and statistics",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format (text, json, yaml)", Value: "text"},
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

			info := describe(s)
			w := c.Root().Writer

			switch c.String("format") {
			case "text":
				return writeInfoText(w, info)
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")

				return enc.Encode(info)
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(info); err != nil {
					return err
				}

				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q", c.String("format"))
			}
		},
	}
}

func singleArg(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("%s: expected exactly one file argument", c.Name)
	}

	return c.Args().First(), nil
}
