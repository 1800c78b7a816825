package undo

import (
	"bytes"
	"testing"

	"blockforensics/internal/wireformat"
)

// encodeCoreVarint mirrors Bitcoin Core's WriteVarInt, independently of the
// decoder under test, so fixtures here are not just ReadCoreVarint run in
// reverse.
func encodeCoreVarint(n uint64) []byte {
	var tmp []byte
	for {
		b := byte(n & 0x7f)
		if len(tmp) > 0 {
			b |= 0x80
		}
		tmp = append(tmp, b)
		if n <= 0x7f {
			break
		}
		n = (n >> 7) - 1
	}
	// tmp was built least-significant-group first; the wire form is reversed.
	out := make([]byte, len(tmp))
	for i, b := range tmp {
		out[len(tmp)-1-i] = b
	}
	return out
}

func buildCoin(t *testing.T, height uint64, coinbase bool, valueSats uint64, nSize uint64, body []byte) []byte {
	t.Helper()
	code := height << 1
	if coinbase {
		code |= 1
	}
	var buf bytes.Buffer
	buf.Write(encodeCoreVarint(code))
	if height > 0 {
		buf.Write(encodeCoreVarint(0)) // dummy version
	}
	buf.Write(encodeCoreVarint(wireformat.CompressAmount(valueSats)))
	buf.Write(encodeCoreVarint(nSize))
	buf.Write(body)
	return buf.Bytes()
}

func TestDecodeCoinP2PKH(t *testing.T) {
	hash := bytes.Repeat([]byte{0xab}, 20)
	coinBytes := buildCoin(t, 5, false, 100_000_000, 0, hash)

	coin, off, err := decodeCoin(coinBytes, 0)
	if err != nil {
		t.Fatalf("decodeCoin: %v", err)
	}
	if off != len(coinBytes) {
		t.Errorf("offset = %d, want %d", off, len(coinBytes))
	}
	if coin.Height != 5 || coin.Coinbase {
		t.Errorf("got height=%d coinbase=%v, want height=5 coinbase=false", coin.Height, coin.Coinbase)
	}
	if coin.ValueSats != 100_000_000 {
		t.Errorf("value = %d, want 100000000", coin.ValueSats)
	}
	want := append(append([]byte{0x76, 0xa9, 0x14}, hash...), 0x88, 0xac)
	if !bytes.Equal(coin.ScriptPubkey, want) {
		t.Errorf("script = %x, want %x", coin.ScriptPubkey, want)
	}
}

func TestDecodeCoinP2SH(t *testing.T) {
	hash := bytes.Repeat([]byte{0xcd}, 20)
	coinBytes := buildCoin(t, 0, true, 546, 1, hash)

	coin, _, err := decodeCoin(coinBytes, 0)
	if err != nil {
		t.Fatalf("decodeCoin: %v", err)
	}
	if !coin.Coinbase {
		t.Error("expected coinbase flag set")
	}
	want := append(append([]byte{0xa9, 0x14}, hash...), 0x87)
	if !bytes.Equal(coin.ScriptPubkey, want) {
		t.Errorf("script = %x, want %x", coin.ScriptPubkey, want)
	}
}

func TestDecodeCoinCompressedP2PK(t *testing.T) {
	x := bytes.Repeat([]byte{0x11}, 32)
	coinBytes := buildCoin(t, 10, false, 5_000_000_000, 2, x)

	coin, _, err := decodeCoin(coinBytes, 0)
	if err != nil {
		t.Fatalf("decodeCoin: %v", err)
	}
	if len(coin.ScriptPubkey) != 35 || coin.ScriptPubkey[0] != 0x21 || coin.ScriptPubkey[34] != 0xac {
		t.Errorf("script = %x, want 35-byte compressed-pubkey P2PK", coin.ScriptPubkey)
	}
	if coin.ScriptPubkey[1] != 0x02 {
		t.Errorf("pubkey prefix = %x, want 0x02", coin.ScriptPubkey[1])
	}
}

func TestDecodeCoinUncompressedP2PKFallsBackOnBadPoint(t *testing.T) {
	// x = 0 is not on the curve (0^3+7 = 7 is not a quadratic residue mod p);
	// decodeCoin must still return a script, falling back to the
	// compressed-key encoding rather than erroring.
	x := make([]byte, 32)
	coinBytes := buildCoin(t, 10, false, 1_000_000, 4, x)

	coin, _, err := decodeCoin(coinBytes, 0)
	if err != nil {
		t.Fatalf("decodeCoin: %v", err)
	}
	if len(coin.ScriptPubkey) == 0 {
		t.Error("expected a non-empty fallback script")
	}
	if len(coin.ScriptPubkey) != 35 || coin.ScriptPubkey[1] != 0x02 {
		t.Errorf("script = %x, want 35-byte compressed-pubkey P2PK with prefix 0x02", coin.ScriptPubkey)
	}
}

func TestDecodeCoinRawScript(t *testing.T) {
	raw := []byte{0x6a, 0x04, 0xde, 0xad, 0xbe, 0xef} // OP_RETURN push
	nSize := uint64(len(raw) + 6)
	coinBytes := buildCoin(t, 0, true, 0, nSize, raw)

	coin, off, err := decodeCoin(coinBytes, 0)
	if err != nil {
		t.Fatalf("decodeCoin: %v", err)
	}
	if off != len(coinBytes) {
		t.Errorf("offset = %d, want %d", off, len(coinBytes))
	}
	if !bytes.Equal(coin.ScriptPubkey, raw) {
		t.Errorf("script = %x, want %x", coin.ScriptPubkey, raw)
	}
}

func TestDecodeBlockUndoMultipleTransactions(t *testing.T) {
	hashA := bytes.Repeat([]byte{0xaa}, 20)
	hashB := bytes.Repeat([]byte{0xbb}, 20)
	coinA := buildCoin(t, 100, false, 1_000_000, 0, hashA)
	coinB := buildCoin(t, 200, false, 2_000_000, 1, hashB)

	var buf bytes.Buffer
	buf.Write(encodeCoreVarint(2)) // two per-tx undo records
	buf.Write(encodeCoreVarint(1)) // tx 0: one input
	buf.Write(coinA)
	buf.Write(encodeCoreVarint(1)) // tx 1: one input
	buf.Write(coinB)

	txUndos, err := DecodeBlockUndo(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBlockUndo: %v", err)
	}
	if len(txUndos) != 2 {
		t.Fatalf("len(txUndos) = %d, want 2", len(txUndos))
	}
	if len(txUndos[0]) != 1 || len(txUndos[1]) != 1 {
		t.Fatalf("got %d/%d coins per tx, want 1/1", len(txUndos[0]), len(txUndos[1]))
	}
	if txUndos[0][0].ValueSats != 1_000_000 || txUndos[1][0].ValueSats != 2_000_000 {
		t.Errorf("got values %d/%d", txUndos[0][0].ValueSats, txUndos[1][0].ValueSats)
	}
}

func TestDecodeBlockUndoTruncated(t *testing.T) {
	if _, err := DecodeBlockUndo([]byte{0x05}); err == nil {
		t.Error("expected error decoding truncated undo stream")
	}
}

func TestDecompressScriptRawBelowMinimum(t *testing.T) {
	if _, _, err := decompressScript([]byte{}, 0, 3); err == nil {
		t.Error("expected error for nSize below minimum raw-script size")
	}
}
