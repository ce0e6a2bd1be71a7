package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains[int](nil, 1))
}

func TestGetFunctionName(t *testing.T) {
	assert.Equal(t, "TestGetFunctionName", GetFunctionName(0))
	assert.Equal(t, "(*Ledger).Credit", shortFuncName("github.com/x/staking.(*Ledger).Credit"))
}
