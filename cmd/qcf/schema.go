package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/format"
)

// schema is the YAML description of a file to create.
//
//	block_size: 1024
//	encoding: delta
//	compression: zstd
//	byte_order: little
//	comments: ["run 42"]
//	fields:
//	  - {name: nHits, kind: uint}
//	  - {name: hitTime, kind: float, resolution: 0.1, parent: nHits}
type schema struct {
	BlockSize   int          `yaml:"block_size"`
	Encoding    string       `yaml:"encoding"`
	Compression string       `yaml:"compression"`
	ByteOrder   string       `yaml:"byte_order"`
	Comments    []string     `yaml:"comments"`
	Fields      []schemaItem `yaml:"fields"`
}

type schemaItem struct {
	Name       string  `yaml:"name"`
	Kind       string  `yaml:"kind"`
	Resolution float64 `yaml:"resolution"`
	Parent     string  `yaml:"parent"`
}

func loadSchema(path string) (*schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s schema
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields", path)
	}

	return &s, nil
}

// options converts the file level settings to session options.
func (s *schema) options() ([]container.SessionOption, error) {
	var opts []container.SessionOption

	if s.BlockSize != 0 {
		opts = append(opts, container.WithBlockSize(s.BlockSize))
	}
	if s.Encoding != "" {
		enc, ok := format.ParseEncodingType(s.Encoding)
		if !ok {
			return nil, fmt.Errorf("schema: unknown encoding %q", s.Encoding)
		}
		opts = append(opts, container.WithEncoding(enc))
	}
	if s.Compression != "" {
		comp, ok := format.ParseCompressionType(s.Compression)
		if !ok {
			return nil, fmt.Errorf("schema: unknown compression %q", s.Compression)
		}
		opts = append(opts, container.WithCompression(comp))
	}
	switch s.ByteOrder {
	case "", "little":
	case "big":
		opts = append(opts, container.WithBigEndian())
	default:
		return nil, fmt.Errorf("schema: unknown byte order %q", s.ByteOrder)
	}

	return opts, nil
}

// allocate declares the schema fields on s in order.
func (s *schema) allocate(w *container.Session) ([]*container.Field, error) {
	fields := make([]*container.Field, 0, len(s.Fields))
	for _, item := range s.Fields {
		kind, ok := format.ParseFieldKind(item.Kind)
		if !ok {
			return nil, fmt.Errorf("schema: field %q: unknown kind %q", item.Name, item.Kind)
		}
		f, err := w.AllocateField(item.Name, kind, item.Resolution, item.Parent)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	return fields, nil
}
