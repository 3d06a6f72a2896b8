package section

const (
	// Magic is the first four bytes of every file.
	Magic = "QCF\x00"
	// Version is the format version written by this package.
	Version uint16 = 1

	// FlagBigEndian marks a file whose payload integers are big-endian.
	FlagBigEndian uint16 = 0x0001
	// knownFlags masks every flag bit this version understands.
	knownFlags = FlagBigEndian

	// FooterMagic closes a cleanly finished file ("QCFEND\x00\x01" read little-endian).
	FooterMagic uint64 = 0x0100444e45464351
)

// fixed section sizes in bytes
const (
	PreambleSize    = 8  // magic, version, flags
	FrameHeaderSize = 16 // type, size, checksum
	FooterSize      = 16 // trailer offset, footer magic

	// MaxFramePayload bounds a single frame payload.
	MaxFramePayload = 1 << 31
)
