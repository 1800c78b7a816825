package secp256k1

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
)

// TestDecompressPointMatchesBtcec cross-checks the hand-rolled modular
// square root against a maintained curve implementation: derive a point
// from a deterministic scalar, compress it, then confirm DecompressPoint
// recovers the same uncompressed Y btcec reports.
func TestDecompressPointMatchesBtcec(t *testing.T) {
	scalars := [][]byte{
		sha256Sum([]byte("undo decoder cross-check 1")),
		sha256Sum([]byte("undo decoder cross-check 2")),
		sha256Sum([]byte("undo decoder cross-check 3")),
	}

	for i, scalarBytes := range scalars {
		_, derivedPubKey := btcec.PrivKeyFromBytes(scalarBytes)
		compressed := derivedPubKey.SerializeCompressed() // 33 bytes: prefix, x(32)

		// Re-parse through btcec's own public-key parser so the expected
		// Y comes from the library's point decompression, not from the
		// derivation step above.
		pubKey, err := btcec.ParsePubKey(compressed)
		if err != nil {
			t.Fatalf("case %d: ParsePubKey: %v", i, err)
		}
		uncompressed := pubKey.SerializeUncompressed()

		prefix := compressed[0]
		x := compressed[1:33]
		wantY := uncompressed[33:65]

		gotY, err := DecompressPoint(x, prefix == 0x03)
		if err != nil {
			t.Fatalf("case %d: DecompressPoint: %v", i, err)
		}
		if !bytes.Equal(gotY, wantY) {
			t.Errorf("case %d: y = %x, want %x", i, gotY, wantY)
		}
	}
}

func TestDecompressPointRejectsOffCurveX(t *testing.T) {
	// x = 0 is not a valid secp256k1 x-coordinate (0^3+7=7 is not a QR mod
	// p), but we only assert that at least one candidate x exists that is not
	// on the curve; scan a small range for one that DecompressPoint
	// rejects so the error path is exercised without relying on a single
	// hardcoded non-residue that might drift if the field logic changes).
	found := false
	for b := byte(0); b < 32 && !found; b++ {
		x := bytes.Repeat([]byte{b}, 32)
		if _, err := DecompressPoint(x, false); err == ErrNotOnCurve {
			found = true
		}
	}
	if !found {
		t.Skip("no off-curve candidate found in scanned range")
	}
}

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
