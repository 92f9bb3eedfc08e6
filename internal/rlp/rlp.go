// Package rlp implements canonical Recursive Length Prefix encoding for the
// subset of shapes the wallet core serializes: byte strings, unsigned
// integers, and nested lists.
// See: https://ethereum.org/en/developers/docs/data-structures-and-encoding/rlp/
package rlp

import "math/big"

// Item is either a byte string or an ordered list of items.
type Item struct {
	bytes  []byte
	list   []Item
	isList bool
}

// Bytes returns a byte-string item.
func Bytes(b []byte) Item {
	return Item{bytes: b}
}

// List returns a list item. Encoding order is the order given here and is
// never reordered.
func List(items ...Item) Item {
	if items == nil {
		items = []Item{}
	}
	return Item{list: items, isList: true}
}

// BigInt returns the minimal big-endian byte-string item for a non-negative
// integer. Zero encodes as the empty byte string. Nil is treated as zero.
func BigInt(i *big.Int) Item {
	if i == nil || i.Sign() == 0 {
		return Bytes(nil)
	}
	return Bytes(i.Bytes())
}

// Uint64 returns the minimal big-endian byte-string item for i.
func Uint64(i uint64) Item {
	if i == 0 {
		return Bytes(nil)
	}
	return Bytes(minimalBigEndian(i))
}

// Encode serializes an item to its canonical RLP encoding. Encoding is total:
// any item value has exactly one encoding.
func Encode(item Item) []byte {
	if !item.isList {
		return encodeBytes(item.bytes)
	}
	var payload []byte
	for _, sub := range item.list {
		payload = append(payload, Encode(sub)...)
	}
	return append(lengthPrefix(len(payload), 0xC0), payload...)
}

// encodeBytes encodes a byte string:
//   - a single byte below 0x80 is its own encoding
//   - up to 55 bytes: (0x80 + len) || bytes
//   - longer: (0xB7 + lenOfLen) || lenBytes || bytes
func encodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append(lengthPrefix(len(b), 0x80), b...)
}

func lengthPrefix(length int, offset byte) []byte {
	if length <= 55 {
		return []byte{offset + byte(length)}
	}
	lenBytes := minimalBigEndian(uint64(length))
	return append([]byte{offset + 55 + byte(len(lenBytes))}, lenBytes...)
}

// minimalBigEndian converts i to big-endian bytes with no leading zeros.
func minimalBigEndian(i uint64) []byte {
	n := 0
	for v := i; v > 0; v >>= 8 {
		n++
	}
	out := make([]byte, n)
	for j := n - 1; j >= 0; j-- {
		out[j] = byte(i)
		i >>= 8
	}
	return out
}
