// Package bitcoinhash provides the double-SHA256 and byte-reversal helpers
// shared by transaction/block identity hashing and Merkle recomputation.
package bitcoinhash

import "crypto/sha256"

// Double computes double-SHA256 of data.
func Double(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Reverse returns a reversed copy of b (internal little-endian wire order
// to the conventional big-endian display order, and back).
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[len(b)-1-i]
	}
	return out
}
