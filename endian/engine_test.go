package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	result := CheckEndianness()
	require.True(t, result == binary.LittleEndian || result == binary.BigEndian)
	require.Equal(t, result == binary.LittleEndian, IsNativeLittleEndian())
}

func TestEngineFor(t *testing.T) {
	require.Equal(t, GetBigEndianEngine(), EngineFor(true))
	require.Equal(t, GetLittleEndianEngine(), EngineFor(false))
}

func TestIsBigEndian(t *testing.T) {
	require.True(t, IsBigEndian(GetBigEndianEngine()))
	require.False(t, IsBigEndian(GetLittleEndianEngine()))
}

func TestEngines_ByteLayout(t *testing.T) {
	tests := []struct {
		name   string
		engine EndianEngine
		want   []byte
	}{
		{"little", GetLittleEndianEngine(), []byte{0x04, 0x03, 0x02, 0x01}},
		{"big", GetBigEndianEngine(), []byte{0x01, 0x02, 0x03, 0x04}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.engine.AppendUint32(nil, 0x01020304)
			require.Equal(t, tt.want, got)
			require.Equal(t, uint32(0x01020304), tt.engine.Uint32(got))
		})
	}
}
