package txparser

import (
	"encoding/hex"
	"fmt"

	"blockforensics/internal/bitcoinhash"
	"blockforensics/internal/bytecursor"
)

// FastTx is the stripped-down record produced by ParseFast: just enough to
// compute a coinbase transaction's BIP34 height and output total, and a
// transaction's weight/vbytes, without materializing every input's
// scriptSig/witness.
type FastTx struct {
	Txid             string
	Version          int32
	NumInputs        int
	CoinbaseScriptSig []byte // scriptSig of input 0 only
	OutputValues     []int64
	OutputScripts    [][]byte
	Weight           int
	Vbytes           int
}

// ParseFast extracts {txid, version, num_inputs, coinbase_script_sig,
// output_values, output_scripts, weight, vbytes} from a raw transaction
// without building full Input/Witness records.
func ParseFast(raw []byte) (*FastTx, error) {
	if len(raw) < 4 {
		return nil, errEmptyTx
	}
	c := bytecursor.New(raw)

	version, err := c.ReadI32LE()
	if err != nil {
		return nil, fmt.Errorf("txparser/fast: version: %w", err)
	}

	segwit := false
	if marker, err := c.Peek(2); err == nil && marker[0] == 0x00 && marker[1] == 0x01 {
		segwit = true
		if err := c.Advance(2); err != nil {
			return nil, err
		}
	}

	inputsStart := c.Offset()

	numInputs, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("txparser/fast: num_inputs: %w", err)
	}

	var coinbaseScriptSig []byte
	for i := uint64(0); i < numInputs; i++ {
		if err := c.Advance(36); err != nil { // prev txid(32) + vout(4)
			return nil, err
		}
		scriptLen, err := c.ReadCompactSize()
		if err != nil {
			return nil, err
		}
		scriptSig, err := c.ReadBytes(int(scriptLen))
		if err != nil {
			return nil, err
		}
		if i == 0 {
			coinbaseScriptSig = append([]byte(nil), scriptSig...)
		}
		if err := c.Advance(4); err != nil { // sequence
			return nil, err
		}
	}

	numOutputs, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("txparser/fast: num_outputs: %w", err)
	}
	values := make([]int64, numOutputs)
	scripts := make([][]byte, numOutputs)
	for i := range values {
		v, err := c.ReadU64LE()
		if err != nil {
			return nil, err
		}
		scriptLen, err := c.ReadCompactSize()
		if err != nil {
			return nil, err
		}
		script, err := c.ReadBytes(int(scriptLen))
		if err != nil {
			return nil, err
		}
		values[i] = int64(v)
		scripts[i] = append([]byte(nil), script...)
	}

	outputsEnd := c.Offset()

	if segwit {
		for i := uint64(0); i < numInputs; i++ {
			itemCount, err := c.ReadCompactSize()
			if err != nil {
				return nil, err
			}
			for j := uint64(0); j < itemCount; j++ {
				itemLen, err := c.ReadCompactSize()
				if err != nil {
					return nil, err
				}
				if err := c.Advance(int(itemLen)); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := c.Advance(4); err != nil { // locktime
		return nil, fmt.Errorf("txparser/fast: locktime: %w", err)
	}

	nonWitness := make([]byte, 0, 4+(outputsEnd-inputsStart)+4)
	nonWitness = append(nonWitness, raw[0:4]...)
	nonWitness = append(nonWitness, raw[inputsStart:outputsEnd]...)
	nonWitness = append(nonWitness, raw[len(raw)-4:]...)

	nonWitnessSize := len(nonWitness)
	witnessSize := len(raw) - nonWitnessSize
	weight := nonWitnessSize*4 + witnessSize

	return &FastTx{
		Txid:              hex.EncodeToString(bitcoinhash.Reverse(bitcoinhash.Double(nonWitness))),
		Version:           version,
		NumInputs:         int(numInputs),
		CoinbaseScriptSig: coinbaseScriptSig,
		OutputValues:      values,
		OutputScripts:     scripts,
		Weight:            weight,
		Vbytes:            (weight + 3) / 4,
	}, nil
}
