// Package parser wires the bit-exact wire-format core (internal/txparser,
// internal/script, internal/address, internal/analyzer, internal/undo,
// internal/blockengine) into the two external data contracts: a single
// annotated transaction, and a sequence of annotated blocks.
package parser

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"blockforensics/internal/address"
	"blockforensics/internal/analyzer"
	"blockforensics/internal/bitcoinhash"
	"blockforensics/internal/script"
	"blockforensics/internal/txparser"
	"blockforensics/pkg/types"
)

var coinbaseNullTxid = strings.Repeat("00", 32)

// ParseTransaction parses a raw transaction hex plus its externally
// supplied prevouts into a fully annotated transaction record.
func ParseTransaction(fixture types.Fixture) (*types.TransactionOutput, error) {
	network := fixture.Network
	if network == "" {
		network = "mainnet"
	}

	rawTxBytes, err := hexDecode(fixture.RawTx)
	if err != nil {
		return nil, fmt.Errorf("invalid raw_tx hex: %w", err)
	}

	tx, err := txparser.Parse(rawTxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction: %w", err)
	}

	prevoutMap := make(map[string]types.PrevoutInput, len(fixture.Prevouts))
	used := make(map[string]bool, len(fixture.Prevouts))
	for _, p := range fixture.Prevouts {
		key := prevoutKey(p.Txid, p.Vout)
		if _, exists := prevoutMap[key]; exists {
			return nil, fmt.Errorf("duplicate prevout %s", key)
		}
		prevoutMap[key] = p
	}

	type inputContext struct {
		txidStr    string
		vout       uint32
		isCoinbase bool
		prevout    types.PrevoutInput
		prevScript []byte
	}

	contexts := make([]inputContext, len(tx.Vin))
	for i, in := range tx.Vin {
		txidStr := hex.EncodeToString(bitcoinhash.Reverse(in.PrevTxid[:]))
		isCoinbase := txidStr == coinbaseNullTxid && in.PrevVout == 0xFFFFFFFF

		var prevout types.PrevoutInput
		if !isCoinbase {
			key := prevoutKey(txidStr, in.PrevVout)
			p, exists := prevoutMap[key]
			if !exists {
				return nil, fmt.Errorf("missing prevout for input %s:%d", txidStr, in.PrevVout)
			}
			used[key] = true
			prevout = p
		}

		prevScript, _ := hexDecode(prevout.ScriptPubkeyHex)
		contexts[i] = inputContext{
			txidStr:    txidStr,
			vout:       in.PrevVout,
			isCoinbase: isCoinbase,
			prevout:    prevout,
			prevScript: prevScript,
		}
	}

	for key := range prevoutMap {
		if !used[key] {
			return nil, fmt.Errorf("prevout %s does not correspond to any input", key)
		}
	}

	inputs := make([]types.Input, 0, len(tx.Vin))
	var totalInputSats int64
	sequences := make([]uint32, 0, len(tx.Vin))
	hasCoinbase := false

	for i, in := range tx.Vin {
		ctx := contexts[i]
		if ctx.isCoinbase {
			hasCoinbase = true
		}
		totalInputSats += ctx.prevout.ValueSats

		witnessHex := make([]string, 0, len(in.Witness))
		for _, item := range in.Witness {
			witnessHex = append(witnessHex, hex.EncodeToString(item))
		}

		var scriptType string
		if ctx.isCoinbase {
			scriptType = "coinbase"
		} else {
			scriptType = script.ClassifyInput(ctx.prevScript, in.ScriptSig, in.Witness)
		}

		var witnessScriptAsm *string
		if (scriptType == script.TypeP2WSH || scriptType == script.TypeP2SHP2WSH) && len(witnessHex) > 0 {
			last := in.Witness[len(in.Witness)-1]
			if len(last) > 0 {
				asm := script.Disassemble(last)
				witnessScriptAsm = &asm
			}
		}

		var addr *string
		if a, ok := address.FromScript(ctx.prevScript); ok {
			addr = &a
		}

		enabled, tlType, tlValue := analyzer.RelativeTimelock(in.Sequence)
		relTimelock := types.RelativeTimelock{Enabled: enabled}
		if enabled {
			relTimelock.Type = tlType
			relTimelock.Value = tlValue
		}

		sequences = append(sequences, in.Sequence)

		inputs = append(inputs, types.Input{
			Txid:             ctx.txidStr,
			Vout:             ctx.vout,
			Sequence:         in.Sequence,
			ScriptSigHex:     hex.EncodeToString(in.ScriptSig),
			ScriptAsm:        script.Disassemble(in.ScriptSig),
			Witness:          witnessHex,
			WitnessScriptAsm: witnessScriptAsm,
			ScriptType:       scriptType,
			Address:          addr,
			Prevout: types.Prevout{
				ValueSats:       ctx.prevout.ValueSats,
				ScriptPubkeyHex: ctx.prevout.ScriptPubkeyHex,
			},
			RelativeTimelock: relTimelock,
		})
	}

	outputs := make([]types.Output, 0, len(tx.Vout))
	warningInputs := make([]analyzer.OutputForWarnings, 0, len(tx.Vout))
	var totalOutputSats int64

	for i, out := range tx.Vout {
		totalOutputSats += out.Value

		scriptType := script.ClassifyOutput(out.Script)
		var addr *string
		if a, ok := address.FromScript(out.Script); ok {
			addr = &a
		}

		output := types.Output{
			N:               i,
			ValueSats:       out.Value,
			ScriptPubkeyHex: hex.EncodeToString(out.Script),
			ScriptAsm:       script.Disassemble(out.Script),
			ScriptType:      scriptType,
			Address:         addr,
		}

		if scriptType == script.TypeOpReturn {
			dataHex, dataUTF8, protocol := script.ParseOpReturn(out.Script)
			output.OpReturnDataHex = dataHex
			output.OpReturnDataUtf8 = dataUTF8
			output.OpReturnProtocol = protocol
		}

		outputs = append(outputs, output)
		warningInputs = append(warningInputs, analyzer.OutputForWarnings{ScriptType: scriptType, ValueSats: out.Value})
	}

	var feeSats int64
	var feeRate float64
	if !hasCoinbase {
		feeSats, feeRate = analyzer.Fee(totalInputSats, totalOutputSats, tx.Vbytes)
	}

	locktimeType := analyzer.LocktimeType(tx.Locktime)
	rbfSignaling := analyzer.IsRBFSignaling(sequences)

	var segwitSavings *types.SegwitSavings
	if tx.Segwit {
		s := analyzer.ComputeSegwitSavings(tx.NonWitnessSize, tx.WitnessSize, tx.Weight)
		segwitSavings = &types.SegwitSavings{
			WitnessBytes:    s.WitnessBytes,
			NonWitnessBytes: s.NonWitnessBytes,
			TotalBytes:      s.TotalBytes,
			WeightActual:    s.WeightActual,
			WeightIfLegacy:  s.WeightIfLegacy,
			SavingsPct:      s.SavingsPct,
		}
	}

	voutScriptTypes := make([]string, len(outputs))
	for i, o := range outputs {
		voutScriptTypes[i] = o.ScriptType
	}

	warningCodes := analyzer.GenerateWarnings(feeSats, feeRate, rbfSignaling, warningInputs)
	warnings := make([]types.Warning, len(warningCodes))
	for i, code := range warningCodes {
		warnings[i] = types.Warning{Code: code}
	}

	var wtxid *string
	if tx.Segwit {
		w := tx.Wtxid
		wtxid = &w
	}

	sizeBytes := tx.NonWitnessSize + tx.WitnessSize

	return &types.TransactionOutput{
		OK:              true,
		Network:         network,
		Segwit:          tx.Segwit,
		Txid:            tx.Txid,
		Wtxid:           wtxid,
		Version:         tx.Version,
		Locktime:        tx.Locktime,
		SizeBytes:       sizeBytes,
		Weight:          tx.Weight,
		Vbytes:          tx.Vbytes,
		FeeSats:         feeSats,
		FeeRateSatVb:    feeRate,
		TotalInputSats:  totalInputSats,
		TotalOutputSats: totalOutputSats,
		RbfSignaling:    rbfSignaling,
		LocktimeType:    locktimeType,
		LocktimeValue:   tx.Locktime,
		VinCount:        len(inputs),
		VoutCount:       len(outputs),
		VoutScriptTypes: voutScriptTypes,
		SegwitSavings:   segwitSavings,
		Vin:             inputs,
		Vout:            outputs,
		Warnings:        warnings,
	}, nil
}

func prevoutKey(txid string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid, vout)
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, errors.New("invalid hex string: odd length")
	}
	return hex.DecodeString(s)
}
