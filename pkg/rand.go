package pkg

import (
	"math/rand/v2"
	"strings"
)

// lowercase only, so the result is usable in docker container and mongo
// database names
const randLetters = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandString returns n random lowercase letters and digits. It is not meant
// for secrets.
func RandString(n int) string {
	var builder strings.Builder
	builder.Grow(n)

	for range n {
		builder.WriteByte(randLetters[rand.IntN(len(randLetters))]) //nolint:gosec
	}

	return builder.String()
}
