// Package undo decodes Bitcoin Core's rev*.dat undo records: per-block
// lists of spent coins, compressed via Core's varint, amount compression,
// and script compression (including secp256k1 point recovery for
// legacy P2PK entries).
package undo

import (
	"errors"
	"fmt"

	"blockforensics/internal/bytecursor"
	"blockforensics/internal/secp256k1"
	"blockforensics/internal/wireformat"
)

// Coin is one decompressed spent-output record recovered from a rev*.dat
// undo entry.
type Coin struct {
	Height       uint64
	Coinbase     bool
	ValueSats    int64
	ScriptPubkey []byte
}

// ErrTruncated is returned when an undo record's byte stream ends before
// its declared structure is fully read.
var ErrTruncated = errors.New("undo: truncated undo record")

// DecodeBlockUndo decodes one CBlockUndo payload (already sliced out of the
// rev*.dat stream by the block engine): CompactSize count of per-tx
// undo records, each holding a CompactSize input count followed by that
// many Coin entries. It returns one []Coin per non-coinbase transaction, in
// transaction order.
func DecodeBlockUndo(buf []byte) ([][]Coin, error) {
	c := bytecursor.New(buf)
	numTx, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("undo: num_tx_undos: %w", err)
	}

	result := make([][]Coin, 0, numTx)
	for i := uint64(0); i < numTx; i++ {
		numInputs, err := c.ReadCompactSize()
		if err != nil {
			return nil, fmt.Errorf("undo: tx %d: input count: %w", i, err)
		}
		off := c.Offset()

		coins := make([]Coin, 0, numInputs)
		for j := uint64(0); j < numInputs; j++ {
			coin, next, err := decodeCoin(buf, off)
			if err != nil {
				return nil, fmt.Errorf("undo: tx %d input %d: %w", i, j, err)
			}
			off = next
			coins = append(coins, coin)
		}
		if err := c.Advance(off - c.Offset()); err != nil {
			return nil, fmt.Errorf("undo: tx %d: %w", i, err)
		}
		result = append(result, coins)
	}

	return result, nil
}

// decodeCoin decodes a single Coin entry starting at off, returning the
// coin and the offset just past it.
func decodeCoin(buf []byte, off int) (Coin, int, error) {
	code, off, err := wireformat.ReadCoreVarint(buf, off)
	if err != nil {
		return Coin{}, 0, fmt.Errorf("nCode: %w", err)
	}
	height := code >> 1
	isCoinbase := code&1 != 0

	if height > 0 {
		// Legacy compatibility "dummy version" field, discarded.
		_, next, err := wireformat.ReadCoreVarint(buf, off)
		if err != nil {
			return Coin{}, 0, fmt.Errorf("dummy version: %w", err)
		}
		off = next
	}

	compressedAmount, off, err := wireformat.ReadCoreVarint(buf, off)
	if err != nil {
		return Coin{}, 0, fmt.Errorf("compressed amount: %w", err)
	}
	value := wireformat.DecompressAmount(compressedAmount)

	nSize, off, err := wireformat.ReadCoreVarint(buf, off)
	if err != nil {
		return Coin{}, 0, fmt.Errorf("nSize: %w", err)
	}

	script, off, err := decompressScript(buf, off, nSize)
	if err != nil {
		return Coin{}, 0, fmt.Errorf("script (nSize=%d): %w", nSize, err)
	}

	return Coin{
		Height:       height,
		Coinbase:     isCoinbase,
		ValueSats:    value,
		ScriptPubkey: script,
	}, off, nil
}

// decompressScript reconstructs a scriptPubkey from its nSize-tagged
// compressed form.
func decompressScript(buf []byte, off int, nSize uint64) ([]byte, int, error) {
	take := func(n int) ([]byte, error) {
		if off+n > len(buf) {
			return nil, ErrTruncated
		}
		b := buf[off : off+n]
		off += n
		return b, nil
	}

	switch nSize {
	case 0: // P2PKH: 20-byte hash
		hash, err := take(20)
		if err != nil {
			return nil, 0, err
		}
		out := append([]byte{0x76, 0xa9, 0x14}, hash...)
		out = append(out, 0x88, 0xac)
		return out, off, nil

	case 1: // P2SH: 20-byte hash
		hash, err := take(20)
		if err != nil {
			return nil, 0, err
		}
		out := append([]byte{0xa9, 0x14}, hash...)
		out = append(out, 0x87)
		return out, off, nil

	case 2, 3: // compressed P2PK: prefix(nSize) + 32-byte x
		x, err := take(32)
		if err != nil {
			return nil, 0, err
		}
		key := append([]byte{byte(nSize)}, x...)
		out := append([]byte{0x21}, key...)
		out = append(out, 0xac)
		return out, off, nil

	case 4, 5: // uncompressed P2PK stored as compressed: prefix (nSize-2) + 32-byte x
		x, err := take(32)
		if err != nil {
			return nil, 0, err
		}
		prefix := byte(nSize - 2) // 4 -> 0x02 (even), 5 -> 0x03 (odd)
		y, err := secp256k1.DecompressPoint(x, prefix == 0x03)
		if err != nil {
			// Fall back to the compressed-form P2PK script.
			key := append([]byte{prefix}, x...)
			out := append([]byte{0x21}, key...)
			out = append(out, 0xac)
			return out, off, nil
		}
		uncompressed := append([]byte{0x04}, x...)
		uncompressed = append(uncompressed, y...)
		out := append([]byte{0x41}, uncompressed...)
		out = append(out, 0xac)
		return out, off, nil

	default: // raw script, length = nSize - 6
		if nSize < 6 {
			return nil, 0, fmt.Errorf("undo: nSize %d below minimum raw-script size", nSize)
		}
		raw, err := take(int(nSize - 6))
		if err != nil {
			return nil, 0, err
		}
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, off, nil
	}
}
