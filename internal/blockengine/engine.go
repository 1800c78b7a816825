// Package blockengine frames Bitcoin Core's on-disk blk*.dat/rev*.dat pair:
// magic+size block/undo record framing, XOR de-obfuscation, block-to-undo
// matching by non-coinbase transaction count, Merkle root recomputation,
// and BIP34 coinbase height extraction. It hands back neutral per-block,
// per-transaction data; pkg/parser layers the JSON-visible annotation and
// block-level aggregation on top.
package blockengine

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"blockforensics/internal/apperror"
	"blockforensics/internal/bitcoinhash"
	"blockforensics/internal/bytecursor"
	"blockforensics/internal/txparser"
	"blockforensics/internal/undo"
	"blockforensics/pkg/types"
)

// ErrTruncatedFile describes a .dat file that ends mid-record. ParseFiles
// does not return it: a trailing partial record ends the scan instead.
var ErrTruncatedFile = errors.New("blockengine: truncated .dat file")

// ErrNoMatchingUndo is returned when no undo record's non-coinbase tx count
// matches a block's. Undo records carry no block-hash back-reference, so
// this count-based matching is inherently fragile against reordered or
// partial .dat files.
var ErrNoMatchingUndo = errors.New("blockengine: no undo record matches this block's transaction count")

// Block is one decoded blk*.dat block plus its matched undo data, still in
// wire-native form: raw per-transaction bytes and the prevout list each
// transaction needs, ready for pkg/parser to annotate and aggregate.
type Block struct {
	Header      types.BlockHeader
	TxCount     int
	RawTxs      [][]byte              // tx[0] is always the coinbase
	Prevouts    [][]types.PrevoutInput // Prevouts[0] is nil; Prevouts[i] has one entry per tx[i]'s input, in input order
	Bip34Height int64
}

// ParseFiles reads a blk*.dat file and its companion rev*.dat undo file,
// both XOR-obfuscated with the key at xorKeyPath, and decodes every whole
// block the blk file contains.
func ParseFiles(blkPath, revPath, xorKeyPath string) ([]*Block, error) {
	xorKey, err := os.ReadFile(xorKeyPath)
	if err != nil {
		return nil, fmt.Errorf("blockengine: read xor key: %w", err)
	}

	blkData, err := os.ReadFile(blkPath)
	if err != nil {
		return nil, fmt.Errorf("blockengine: read block file: %w", err)
	}
	blkData = xorDecode(blkData, xorKey)

	revData, err := os.ReadFile(revPath)
	if err != nil {
		return nil, fmt.Errorf("blockengine: read undo file: %w", err)
	}
	revData = xorDecode(revData, xorKey)

	undoRecords, err := splitUndoRecords(revData)
	if err != nil {
		return nil, err
	}
	usedUndo := make([]bool, len(undoRecords))

	var blocks []*Block
	off := 0
	for off < len(blkData) {
		if len(blkData)-off < 8 {
			break // trailing zero padding, not a whole record
		}
		size := binary.LittleEndian.Uint32(blkData[off+4 : off+8])
		payloadStart := off + 8
		payloadEnd := payloadStart + int(size)
		if size == 0 || payloadEnd > len(blkData) {
			break
		}

		block, err := decodeBlock(blkData[payloadStart:payloadEnd], undoRecords, usedUndo)
		if err != nil {
			return nil, fmt.Errorf("blockengine: block at offset %d: %w", off, err)
		}
		blocks = append(blocks, block)
		off = payloadEnd
	}

	if len(blocks) == 0 {
		return nil, errors.New("blockengine: block file contains no complete block records")
	}

	return blocks, nil
}

// xorDecode XORs data against key, repeating key as needed. A nil or
// all-zero key is a no-op, matching Core's unobfuscated (pre-28.0-style)
// .dat layout.
func xorDecode(data, key []byte) []byte {
	if len(key) == 0 {
		return data
	}
	allZero := true
	for _, b := range key {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return data
	}
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	return out
}

type undoRecord struct {
	coins [][]undo.Coin
}

// splitUndoRecords walks a decoded rev*.dat stream, splitting it into its
// magic(4)+size(4)+CBlockUndo(size)+checksum(32) records and decoding each
// record's coin list.
func splitUndoRecords(data []byte) ([]undoRecord, error) {
	var records []undoRecord
	off := 0
	for off < len(data) {
		if len(data)-off < 8 {
			break
		}
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		payloadStart := off + 8
		payloadEnd := payloadStart + int(size)
		recordEnd := payloadEnd + 32
		if size == 0 || recordEnd > len(data) {
			break
		}

		coins, err := undo.DecodeBlockUndo(data[payloadStart:payloadEnd])
		if err != nil {
			return nil, fmt.Errorf("blockengine: decode undo record at offset %d: %w", off, err)
		}
		records = append(records, undoRecord{coins: coins})
		off = recordEnd
	}
	return records, nil
}

// decodeBlock parses one block payload (80-byte header, tx count, that many
// transactions), recomputes its Merkle root, matches it against the first
// unused undo record whose non-coinbase transaction count agrees, and
// builds the per-transaction prevout lists pkg/parser needs.
func decodeBlock(payload []byte, undoRecords []undoRecord, usedUndo []bool) (*Block, error) {
	if len(payload) < 80 {
		return nil, fmt.Errorf("blockengine: block payload shorter than header (%d bytes)", len(payload))
	}
	headerBytes := payload[:80]

	c := bytecursor.New(payload)
	version, err := c.ReadI32LE()
	if err != nil {
		return nil, fmt.Errorf("blockengine: header version: %w", err)
	}
	prevBlockHash, err := c.ReadHash()
	if err != nil {
		return nil, fmt.Errorf("blockengine: header prev_block_hash: %w", err)
	}
	merkleRoot, err := c.ReadHash()
	if err != nil {
		return nil, fmt.Errorf("blockengine: header merkle_root: %w", err)
	}
	timestamp, err := c.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("blockengine: header timestamp: %w", err)
	}
	bits, err := c.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("blockengine: header bits: %w", err)
	}
	nonce, err := c.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("blockengine: header nonce: %w", err)
	}

	blockHash := bitcoinhash.Reverse(bitcoinhash.Double(headerBytes))

	txCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("blockengine: tx_count: %w", err)
	}
	if txCount == 0 {
		return nil, errors.New("blockengine: block declares zero transactions")
	}

	rawTxs := make([][]byte, txCount)
	leafHashes := make([][32]byte, txCount)
	for i := uint64(0); i < txCount; i++ {
		start, end, err := txparser.Skip(c)
		if err != nil {
			return nil, fmt.Errorf("blockengine: tx %d: %w", i, err)
		}
		raw := append([]byte(nil), payload[start:end]...)
		rawTxs[i] = raw

		tx, err := txparser.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("blockengine: tx %d reparse: %w", i, err)
		}
		txidBytes, err := hex.DecodeString(tx.Txid)
		if err != nil {
			return nil, fmt.Errorf("blockengine: tx %d txid decode: %w", i, err)
		}
		var h [32]byte
		copy(h[:], bitcoinhash.Reverse(txidBytes))
		leafHashes[i] = h
	}

	computedMerkle := computeMerkleRoot(leafHashes)
	merkleValid := computedMerkle == merkleRoot

	wantCount := uint64(txCount - 1)
	var matchedCoins [][]undo.Coin
	if wantCount > 0 {
		undoIdx := -1
		for i, rec := range undoRecords {
			if usedUndo[i] {
				continue
			}
			if uint64(len(rec.coins)) == wantCount {
				undoIdx = i
				break
			}
		}
		if undoIdx == -1 {
			return nil, apperror.Wrap(apperror.CodeBlockUndoMismatch, ErrNoMatchingUndo)
		}
		usedUndo[undoIdx] = true
		matchedCoins = undoRecords[undoIdx].coins
	}

	prevouts := make([][]types.PrevoutInput, txCount)
	for i := uint64(1); i < txCount; i++ {
		tx, err := txparser.Parse(rawTxs[i])
		if err != nil {
			return nil, fmt.Errorf("blockengine: tx %d prevout pass: %w", i, err)
		}
		coins := matchedCoins[i-1]
		if len(coins) != len(tx.Vin) {
			return nil, fmt.Errorf("blockengine: tx %d: undo record has %d coins, tx has %d inputs", i, len(coins), len(tx.Vin))
		}
		txPrevouts := make([]types.PrevoutInput, len(tx.Vin))
		for j, in := range tx.Vin {
			coin := coins[j]
			txPrevouts[j] = types.PrevoutInput{
				Txid:            hex.EncodeToString(bitcoinhash.Reverse(in.PrevTxid[:])),
				Vout:            in.PrevVout,
				ValueSats:       coin.ValueSats,
				ScriptPubkeyHex: hex.EncodeToString(coin.ScriptPubkey),
			}
		}
		prevouts[i] = txPrevouts
	}

	coinbaseFast, err := txparser.ParseFast(rawTxs[0])
	if err != nil {
		return nil, fmt.Errorf("blockengine: coinbase fast parse: %w", err)
	}
	bip34Height := extractBIP34Height(coinbaseFast.CoinbaseScriptSig)

	return &Block{
		Header: types.BlockHeader{
			Version:         version,
			PrevBlockHash:   hex.EncodeToString(bitcoinhash.Reverse(prevBlockHash[:])),
			MerkleRoot:      hex.EncodeToString(bitcoinhash.Reverse(merkleRoot[:])),
			MerkleRootValid: merkleValid,
			Timestamp:       timestamp,
			Bits:            fmt.Sprintf("%08x", bits),
			Nonce:           nonce,
			BlockHash:       hex.EncodeToString(blockHash),
		},
		TxCount:     int(txCount),
		RawTxs:      rawTxs,
		Prevouts:    prevouts,
		Bip34Height: bip34Height,
	}, nil
}
