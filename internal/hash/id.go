// Package hash wraps xxHash64 for frame checksums and field-name identifiers.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of a field name.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Checksum computes the xxHash64 of a frame payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Verify reports whether data hashes to want.
func Verify(data []byte, want uint64) bool {
	return xxhash.Sum64(data) == want
}
