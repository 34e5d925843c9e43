// Package collections holds the index-tagged containers used by the protocol
// engine. Every identifier is tagged with the index space it belongs to, so a
// party index of one protocol cannot be confused with a share index or with
// an index of a different protocol instance.
package collections

import (
	"encoding/binary"
	"strconv"
)

// TypedID is an integer identifier tagged with a phantom marker type naming
// its index space. IDs from different spaces are different Go types and never
// compare or assign across spaces.
type TypedID[S any] int

// IDFromInt wraps any integer into an index of space S. It never fails; range
// validation belongs to the container the id is used with.
func IDFromInt[S any](n int) TypedID[S] {
	return TypedID[S](n)
}

// AsInt returns the raw integer value.
func (i TypedID[S]) AsInt() int {
	return int(i)
}

// Bytes returns the big-endian 8-byte encoding of the id, used as domain
// separation input for seeded randomness and proof contexts.
func (i TypedID[S]) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

func (i TypedID[S]) String() string {
	return strconv.Itoa(int(i))
}
