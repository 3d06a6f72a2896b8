//go:build cgo && gozstd

package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/valyala/gozstd"
)

const gozstdLevel = 3

// Compress compresses data with the cgo zstd binding.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, gozstdLevel), nil
}

// Decompress decompresses zstd data with the cgo zstd binding.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return out, nil
}

// DecompressSized streams zstd data into a buffer of size bytes and fails
// once the stream turns out shorter or longer.
func (c ZstdCompressor) DecompressSized(data []byte, size int) ([]byte, error) {
	if done, err := checkSized(data, size); done {
		return nil, err
	}

	r := gozstd.NewReader(bytes.NewReader(data))
	defer r.Release()

	out := make([]byte, size)
	if n, err := io.ReadFull(r, out); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, sizeMismatch(uint64(n), size)
		}

		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	var extra [1]byte
	switch _, err := io.ReadFull(r, extra[:]); {
	case err == nil:
		return nil, fmt.Errorf("%w: input decodes to more than %d bytes", ErrSizeMismatch, size)
	case !errors.Is(err, io.EOF):
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return out, nil
}
