package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHexAddress(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		bz, err := DecodeHexAddress("0x"+strings.Repeat("ab", 4), 4)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xab, 0xab, 0xab, 0xab}, bz)
	})
	t.Run("missing prefix", func(t *testing.T) {
		_, err := DecodeHexAddress(strings.Repeat("ab", 4), 4)
		assert.ErrorContains(t, err, "0x-prefixed")
	})
	t.Run("wrong length", func(t *testing.T) {
		_, err := DecodeHexAddress("0xabab", 4)
		assert.ErrorContains(t, err, "4 bytes long")
	})
	t.Run("not hex", func(t *testing.T) {
		_, err := DecodeHexAddress("0x"+strings.Repeat("zz", 4), 4)
		assert.Error(t, err)
	})
}
