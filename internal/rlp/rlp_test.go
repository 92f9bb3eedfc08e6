package rlp_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourorg/keyfob/internal/rlp"
)

func TestEncodeKnownVectors(t *testing.T) {
	tests := []struct {
		name     string
		item     rlp.Item
		expected []byte
	}{
		{
			name:     "Empty list",
			item:     rlp.List(),
			expected: []byte{0xc0},
		},
		{
			name:     "Empty byte string",
			item:     rlp.Bytes(nil),
			expected: []byte{0x80},
		},
		{
			name:     "Single zero byte",
			item:     rlp.Bytes([]byte{0x00}),
			expected: []byte{0x00},
		},
		{
			name:     "Single byte below 0x80",
			item:     rlp.Bytes([]byte{0x7f}),
			expected: []byte{0x7f},
		},
		{
			name:     "Single byte at 0x80 gets a prefix",
			item:     rlp.Bytes([]byte{0x80}),
			expected: []byte{0x81, 0x80},
		},
		{
			name:     "Integer zero",
			item:     rlp.BigInt(big.NewInt(0)),
			expected: []byte{0x80},
		},
		{
			name:     "Integer 1024",
			item:     rlp.BigInt(big.NewInt(1024)),
			expected: []byte{0x82, 0x04, 0x00},
		},
		{
			name:     "Uint64 15",
			item:     rlp.Uint64(15),
			expected: []byte{0x0f},
		},
		{
			name:     "Short string",
			item:     rlp.Bytes([]byte("dog")),
			expected: []byte{0x83, 'd', 'o', 'g'},
		},
		{
			name:     "Nested empty lists",
			item:     rlp.List(rlp.List(), rlp.List(rlp.List())),
			expected: []byte{0xc3, 0xc0, 0xc1, 0xc0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rlp.Encode(tt.item))
		})
	}
}

func TestEncodeLongString(t *testing.T) {
	// 55 bytes stays in the short form, 56 switches to the long form.
	b55 := bytes.Repeat([]byte{'a'}, 55)
	enc := rlp.Encode(rlp.Bytes(b55))
	assert.Equal(t, byte(0xb7), enc[0])
	assert.Len(t, enc, 56)

	b56 := bytes.Repeat([]byte{'a'}, 56)
	enc = rlp.Encode(rlp.Bytes(b56))
	assert.Equal(t, []byte{0xb8, 0x38}, enc[:2])
	assert.Len(t, enc, 58)
}

func TestEncodeLongList(t *testing.T) {
	// 14 four-byte strings push the payload past 55 bytes.
	items := make([]rlp.Item, 14)
	for i := range items {
		items[i] = rlp.Bytes([]byte{1, 2, 3, 4})
	}
	enc := rlp.Encode(rlp.List(items...))
	assert.Equal(t, []byte{0xf8, 0x46}, enc[:2])
	assert.Len(t, enc, 2+14*5)
}

func TestEncodeIntegerStripsLeadingZeros(t *testing.T) {
	// 0x00aa is two bytes as a word but must encode as the single byte 0xaa.
	v := new(big.Int).SetBytes([]byte{0x00, 0xaa})
	assert.Equal(t, []byte{0x81, 0xaa}, rlp.Encode(rlp.BigInt(v)))
}

func TestEncodeOrderPreserved(t *testing.T) {
	a := rlp.List(rlp.Uint64(1), rlp.Uint64(2))
	b := rlp.List(rlp.Uint64(2), rlp.Uint64(1))
	assert.NotEqual(t, rlp.Encode(a), rlp.Encode(b))
}
