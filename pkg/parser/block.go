package parser

import (
	"encoding/hex"
	"fmt"
	"math"

	"blockforensics/internal/blockengine"
	"blockforensics/internal/txparser"
	"blockforensics/pkg/types"
)

// ParseBlockFile decodes every block in a blk*.dat file against its
// companion rev*.dat undo file, returning one annotated BlockOutput per
// block.
func ParseBlockFile(blkPath, revPath, xorKeyPath string) ([]*types.BlockOutput, error) {
	blocks, err := blockengine.ParseFiles(blkPath, revPath, xorKeyPath)
	if err != nil {
		return nil, err
	}

	outputs := make([]*types.BlockOutput, 0, len(blocks))
	for _, block := range blocks {
		out, err := annotateBlock(block)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func annotateBlock(block *blockengine.Block) (*types.BlockOutput, error) {
	if !block.Header.MerkleRootValid {
		return &types.BlockOutput{
			OK:          false,
			Mode:        "block",
			BlockHeader: block.Header,
			Error: &types.ErrorInfo{
				Code:    "INVALID_MERKLE_ROOT",
				Message: fmt.Sprintf("computed merkle root does not match header (block %s)", block.Header.BlockHash),
			},
		}, nil
	}

	txOutputs := make([]types.TransactionOutput, 0, block.TxCount)
	var totalFees int64
	var totalWeight int
	var totalVbytes int
	scriptTypeCounts := make(map[string]int)

	for i, raw := range block.RawTxs {
		fixture := types.Fixture{
			Network:  "mainnet",
			RawTx:    hex.EncodeToString(raw),
			Prevouts: block.Prevouts[i],
		}

		txOutput, err := ParseTransaction(fixture)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze tx %d: %w", i, err)
		}
		txOutputs = append(txOutputs, *txOutput)

		if i > 0 {
			totalFees += txOutput.FeeSats
			totalVbytes += txOutput.Vbytes
		}
		totalWeight += txOutput.Weight

		for _, out := range txOutput.Vout {
			scriptTypeCounts[out.ScriptType]++
		}
	}

	avgFeeRate := 0.0
	if totalVbytes > 0 {
		avgFeeRate = math.Round((float64(totalFees)/float64(totalVbytes))*10) / 10
	}

	coinbaseFast, err := txparser.ParseFast(block.RawTxs[0])
	if err != nil {
		return nil, fmt.Errorf("failed to re-derive coinbase summary: %w", err)
	}
	var coinbaseOutputTotal int64
	for _, v := range coinbaseFast.OutputValues {
		coinbaseOutputTotal += v
	}

	return &types.BlockOutput{
		OK:          true,
		Mode:        "block",
		BlockHeader: block.Header,
		TxCount:     block.TxCount,
		Coinbase: types.CoinbaseInfo{
			Bip34Height:       block.Bip34Height,
			CoinbaseScriptHex: hex.EncodeToString(coinbaseFast.CoinbaseScriptSig),
			TotalOutputSats:   coinbaseOutputTotal,
		},
		Transactions: txOutputs,
		BlockStats: types.BlockStats{
			TotalFeesSats:     totalFees,
			TotalWeight:       totalWeight,
			AvgFeeRateSatVb:   avgFeeRate,
			ScriptTypeSummary: scriptTypeCounts,
		},
	}, nil
}
