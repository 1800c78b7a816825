package parser

import (
	"strings"
	"testing"

	"blockforensics/pkg/types"
)

// legacyRawTx is a one-input, one-output non-SegWit transaction spending a
// single P2PKH prevout.
func legacyRawTx(t *testing.T) string {
	t.Helper()
	return "01000000" +
		"01" +
		strings.Repeat("11", 32) +
		"00000000" +
		"00" +
		"ffffffff" +
		"01" +
		"60e3160000000000" + // 1500000 sats
		"19" +
		"76a914" + strings.Repeat("bb", 20) + "88ac" +
		"00000000"
}

func TestParseTransactionEndToEnd(t *testing.T) {
	prevTxid := strings.Repeat("11", 32)
	fixture := types.Fixture{
		Network: "mainnet",
		RawTx:   legacyRawTx(t),
		Prevouts: []types.PrevoutInput{
			{
				Txid:            prevTxid,
				Vout:            0,
				ValueSats:       1_600_000,
				ScriptPubkeyHex: "76a914" + strings.Repeat("cc", 20) + "88ac",
			},
		},
	}

	out, err := ParseTransaction(fixture)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if !out.OK {
		t.Fatal("expected OK result")
	}
	if out.Segwit {
		t.Error("legacy transaction must not be marked segwit")
	}
	if out.VinCount != 1 || out.VoutCount != 1 {
		t.Fatalf("vin/vout count = %d/%d, want 1/1", out.VinCount, out.VoutCount)
	}
	if out.TotalInputSats != 1_600_000 {
		t.Errorf("TotalInputSats = %d, want 1600000", out.TotalInputSats)
	}
	if out.TotalOutputSats != 1_500_000 {
		t.Errorf("TotalOutputSats = %d, want 1500000", out.TotalOutputSats)
	}
	if out.FeeSats != 100_000 {
		t.Errorf("FeeSats = %d, want 100000", out.FeeSats)
	}
	if out.Vin[0].ScriptType != "p2pkh" {
		t.Errorf("input script type = %s, want p2pkh (spending a p2pkh prevout)", out.Vin[0].ScriptType)
	}
	if out.Vout[0].ScriptType != "p2pkh" {
		t.Errorf("output script type = %s, want p2pkh", out.Vout[0].ScriptType)
	}
	if out.Vin[0].Address == nil {
		t.Error("expected a derivable address for the p2pkh prevout")
	}
}

func TestParseTransactionMissingPrevoutErrors(t *testing.T) {
	fixture := types.Fixture{
		RawTx:    legacyRawTx(t),
		Prevouts: nil,
	}
	if _, err := ParseTransaction(fixture); err == nil {
		t.Error("expected error for missing prevout")
	}
}

func TestParseTransactionUnusedPrevoutErrors(t *testing.T) {
	fixture := types.Fixture{
		RawTx: legacyRawTx(t),
		Prevouts: []types.PrevoutInput{
			{Txid: strings.Repeat("11", 32), Vout: 0, ValueSats: 1, ScriptPubkeyHex: "6a00"},
			{Txid: strings.Repeat("22", 32), Vout: 0, ValueSats: 1, ScriptPubkeyHex: "6a00"},
		},
	}
	if _, err := ParseTransaction(fixture); err == nil {
		t.Error("expected error for a prevout with no matching input")
	}
}

func TestParseTransactionDuplicatePrevoutErrors(t *testing.T) {
	fixture := types.Fixture{
		RawTx: legacyRawTx(t),
		Prevouts: []types.PrevoutInput{
			{Txid: strings.Repeat("11", 32), Vout: 0, ValueSats: 1, ScriptPubkeyHex: "6a00"},
			{Txid: strings.Repeat("11", 32), Vout: 0, ValueSats: 2, ScriptPubkeyHex: "6a00"},
		},
	}
	if _, err := ParseTransaction(fixture); err == nil {
		t.Error("expected error for a duplicate prevout key")
	}
}

func TestParseTransactionInvalidHexErrors(t *testing.T) {
	fixture := types.Fixture{RawTx: "not-hex"}
	if _, err := ParseTransaction(fixture); err == nil {
		t.Error("expected error for invalid raw_tx hex")
	}
}

func TestParseTransactionCoinbaseSkipsFee(t *testing.T) {
	coinbaseRaw := "01000000" +
		"01" +
		strings.Repeat("00", 32) +
		"ffffffff" +
		"02" +
		"0164" +
		"ffffffff" +
		"01" +
		"00f2052a01000000" +
		"19" +
		"76a914" + strings.Repeat("dd", 20) + "88ac" +
		"00000000"

	fixture := types.Fixture{RawTx: coinbaseRaw}
	out, err := ParseTransaction(fixture)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if out.Vin[0].ScriptType != "coinbase" {
		t.Errorf("coinbase input script type = %s, want coinbase", out.Vin[0].ScriptType)
	}
	if out.FeeSats != 0 {
		t.Errorf("coinbase FeeSats = %d, want 0 (fee is not computed for coinbase transactions)", out.FeeSats)
	}
}
