package shaders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModulesAreSPIRV(t *testing.T) {
	for name, code := range map[string][]uint32{
		"vertex":   Vertex(),
		"fragment": Fragment(),
	} {
		require.Greater(t, len(code), 5, name)
		require.Equal(t, Magic, code[0], name)
		// Header bound must cover at least one id
		require.NotZero(t, code[3], name)
	}
}

func TestBytesToBytecodeIsLittleEndian(t *testing.T) {
	require.Equal(t, []uint32{0x07230203, 0x00010000}, bytesToBytecode([]byte{
		0x03, 0x02, 0x23, 0x07,
		0x00, 0x00, 0x01, 0x00,
	}))
}
