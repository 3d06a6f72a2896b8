// Package section defines the binary layout of a qcf file.
//
// A file is a fixed preamble followed by checksummed frames and, once the
// writer has closed it, a fixed footer:
//
//	┌──────────────────────────────────────────────────────────┐
//	│ Preamble (8 bytes, little-endian)                        │
//	│  - "QCF\x00", u16 version, u16 flags (bit 0: big-endian) │
//	├──────────────────────────────────────────────────────────┤
//	│ Header frame                                             │
//	│  - file id, created-at, block size, defaults             │
//	│  - field table, comments known when it was written       │
//	├──────────────────────────────────────────────────────────┤
//	│ Block frame × N                                          │
//	│  - one encoded block each (see package block)            │
//	├──────────────────────────────────────────────────────────┤
//	│ Trailer frame                                            │
//	│  - event count, block index, all comments, field stats   │
//	├──────────────────────────────────────────────────────────┤
//	│ Footer (16 bytes, little-endian)                         │
//	│  - u64 trailer offset, u64 footer magic                  │
//	└──────────────────────────────────────────────────────────┘
//
// Every frame starts with a 16-byte little-endian frame header:
//
//	u32 type | u32 payload size | u64 xxhash64(payload)
//
// Header, block and trailer payloads use the byte order named by the
// preamble flags.
//
// Appending to a file overwrites the old trailer and footer with new blocks,
// then writes a fresh trailer and footer. Data frames are never rewritten.
// A file that lost its trailer and footer can still be read by walking the
// frames from the header onwards.
package section
