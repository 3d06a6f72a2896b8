package format

type (
	FieldKind       uint8
	EncodingType    uint8
	CompressionType uint8
	Mode            uint8
)

const (
	KindUnsigned FieldKind = 0x1 // KindUnsigned represents an unsigned integer field.
	KindSigned   FieldKind = 0x2 // KindSigned represents a signed integer field.
	KindFloat    FieldKind = 0x3 // KindFloat represents a floating-point field.

	TypeRaw    EncodingType = 0x1 // TypeRaw stores every code as a fixed 8-byte word.
	TypeDelta  EncodingType = 0x2 // TypeDelta stores zigzag varint deltas between consecutive codes.
	TypePacked EncodingType = 0x3 // TypePacked stores codes as min offset plus fixed-width bit packing.
	TypeAuto   EncodingType = 0x4 // TypeAuto picks the smaller of delta and packed per column.

	CompressionNone    CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd    CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2      CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4     CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionDeflate CompressionType = 0x5 // CompressionDeflate represents zlib (deflate) compression.

	ModeRead   Mode = 0x1 // ModeRead opens an existing file for sequential reading.
	ModeWrite  Mode = 0x2 // ModeWrite creates or truncates a file for writing.
	ModeAppend Mode = 0x3 // ModeAppend opens an existing file to add events.
)

func (k FieldKind) String() string {
	switch k {
	case KindUnsigned:
		return "Unsigned"
	case KindSigned:
		return "Signed"
	case KindFloat:
		return "Float"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is one of the defined field kinds.
func (k FieldKind) Valid() bool {
	return k >= KindUnsigned && k <= KindFloat
}

// ParseFieldKind converts a kind name ("unsigned", "uint", "signed", "int", "float")
// to a FieldKind. Unknown names yield 0 and false.
func ParseFieldKind(s string) (FieldKind, bool) {
	switch s {
	case "unsigned", "uint", "Unsigned":
		return KindUnsigned, true
	case "signed", "int", "Signed":
		return KindSigned, true
	case "float", "Float":
		return KindFloat, true
	default:
		return 0, false
	}
}

func (e EncodingType) String() string {
	switch e {
	case TypeRaw:
		return "Raw"
	case TypeDelta:
		return "Delta"
	case TypePacked:
		return "Packed"
	case TypeAuto:
		return "Auto"
	default:
		return "Unknown"
	}
}

// Valid reports whether e is one of the defined encoding types.
func (e EncodingType) Valid() bool {
	return e >= TypeRaw && e <= TypeAuto
}

// ParseEncodingType converts a case-sensitive lowercase encoding name to an EncodingType.
func ParseEncodingType(s string) (EncodingType, bool) {
	switch s {
	case "raw":
		return TypeRaw, true
	case "delta":
		return TypeDelta, true
	case "packed":
		return TypePacked, true
	case "auto":
		return TypeAuto, true
	default:
		return 0, false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionDeflate:
		return "Deflate"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is one of the defined compression types.
func (c CompressionType) Valid() bool {
	return c >= CompressionNone && c <= CompressionDeflate
}

// ParseCompressionType converts a lowercase compression name to a CompressionType.
func ParseCompressionType(s string) (CompressionType, bool) {
	switch s {
	case "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	case "deflate", "zlib":
		return CompressionDeflate, true
	default:
		return 0, false
	}
}

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "Read"
	case ModeWrite:
		return "Write"
	case ModeAppend:
		return "Append"
	default:
		return "Unknown"
	}
}
