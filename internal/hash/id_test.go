package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestChecksum_MatchesID(t *testing.T) {
	for _, s := range []string{"", "test", "nHit", "rec.coreX"} {
		require.Equal(t, ID(s), Checksum([]byte(s)))
	}
}

func TestVerify(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	sum := Checksum(payload)

	require.True(t, Verify(payload, sum))

	payload[2] ^= 0xFF
	require.False(t, Verify(payload, sum))
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i)
	}
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		Checksum(data)
	}
}
