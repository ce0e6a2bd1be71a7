package pkg

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DecodeHexAddress decodes a 0x-prefixed hex address of exactly size bytes.
func DecodeHexAddress(address string, size int) ([]byte, error) {
	trimmed, ok := strings.CutPrefix(address, "0x")
	if !ok {
		return nil, fmt.Errorf("address %q must be 0x-prefixed", address)
	}
	if len(trimmed) != size*2 {
		return nil, fmt.Errorf("address %q must be %d bytes long", address, size)
	}

	return hex.DecodeString(trimmed)
}
