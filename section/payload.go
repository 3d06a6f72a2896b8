package section

import (
	"fmt"

	"github.com/arloliu/qcf/encoding"
	"github.com/arloliu/qcf/endian"
)

// payloadReader decodes sequential fields of a header or trailer payload.
// The first failure sticks; later reads return zero values.
type payloadReader struct {
	engine   endian.EndianEngine
	data     []byte
	off      int
	err      error
	sentinel error
	what     string
}

func newPayloadReader(data []byte, engine endian.EndianEngine, sentinel error, what string) *payloadReader {
	return &payloadReader{engine: engine, data: data, sentinel: sentinel, what: what}
}

func (r *payloadReader) need(n int, name string) bool {
	if r.err != nil {
		return false
	}
	if len(r.data)-r.off < n {
		r.err = fmt.Errorf("%w: %s truncated reading %s at byte %d", r.sentinel, r.what, name, r.off)
		return false
	}

	return true
}

func (r *payloadReader) u8(name string) uint8 {
	if !r.need(1, name) {
		return 0
	}
	v := r.data[r.off]
	r.off++

	return v
}

func (r *payloadReader) u32(name string) uint32 {
	if !r.need(4, name) {
		return 0
	}
	v := r.engine.Uint32(r.data[r.off:])
	r.off += 4

	return v
}

func (r *payloadReader) u64(name string) uint64 {
	if !r.need(8, name) {
		return 0
	}
	v := r.engine.Uint64(r.data[r.off:])
	r.off += 8

	return v
}

func (r *payloadReader) bytes(n int, name string) []byte {
	if !r.need(n, name) {
		return nil
	}
	v := r.data[r.off : r.off+n]
	r.off += n

	return v
}

func (r *payloadReader) str(name string) string {
	if r.err != nil {
		return ""
	}
	s, n, err := encoding.ReadVarString(r.data[r.off:])
	if err != nil {
		r.err = fmt.Errorf("%w: %s %s: %v", r.sentinel, r.what, name, err)
		return ""
	}
	r.off += n

	return s
}

// count reads a u32 element count and rejects counts that could not fit in
// the remaining bytes given a minimum element size.
func (r *payloadReader) count(name string, minSize int) int {
	n := r.u32(name)
	if r.err != nil {
		return 0
	}
	if minSize > 0 && uint64(n)*uint64(minSize) > uint64(len(r.data)-r.off) { //nolint:gosec
		r.err = fmt.Errorf("%w: %s %s %d exceeds payload", r.sentinel, r.what, name, n)
		return 0
	}

	return int(n)
}

func (r *payloadReader) strings(name string) []string {
	n := r.count(name, 1)
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for range n {
		s := r.str(name)
		if r.err != nil {
			return nil
		}
		out = append(out, s)
	}

	return out
}

// finish reports the sticky error or trailing garbage.
func (r *payloadReader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return fmt.Errorf("%w: %d trailing bytes in %s", r.sentinel, len(r.data)-r.off, r.what)
	}

	return nil
}

func appendStrings(dst []byte, engine endian.EndianEngine, list []string) []byte {
	dst = engine.AppendUint32(dst, uint32(len(list))) //nolint:gosec
	for _, s := range list {
		dst = encoding.AppendVarString(dst, s)
	}

	return dst
}
