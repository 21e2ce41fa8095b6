package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexKnownVector(t *testing.T) {
	got, err := Hex([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)
}

func TestHexIsPure(t *testing.T) {
	first, err := Hex([]byte("factura"))
	assert.NoError(t, err)
	again, err := Hex([]byte("factura"))
	assert.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, first, Size)
}

func TestHexRejectsEmptyInput(t *testing.T) {
	_, err := Hex(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = Hex([]byte{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestIsWellFormed(t *testing.T) {
	assert.True(t, IsWellFormed(strings.Repeat("0", Size)))
	assert.True(t, IsWellFormed("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"))
	assert.False(t, IsWellFormed(""))
	assert.False(t, IsWellFormed(strings.Repeat("0", Size-1)))
	assert.False(t, IsWellFormed(strings.Repeat("G", Size)))
	assert.False(t, IsWellFormed(strings.Repeat("A", Size))) // uppercase is not canonical
}
